package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/figkit/figkit/pkg/cache"
	"github.com/figkit/figkit/pkg/compose"
	"github.com/figkit/figkit/pkg/convert"
	"github.com/figkit/figkit/pkg/distribute"
	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/observability"
	"github.com/figkit/figkit/pkg/project"
	"github.com/figkit/figkit/pkg/style"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the preview server use this to avoid duplicating
// caching logic.
//
// The Runner is stateless except for the cache, receipt store and
// logger - it doesn't hold pipeline results. Multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Receipts records deliveries. Nil resolves the default file store
	// on first use.
	Receipts *distribute.ReceiptStore
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// ExecuteAll runs the pipeline for the selected figure, or for every
// registry figure when figureID is empty. Figures run sequentially in
// registry order and the first failure aborts the run; results for
// figures that already finished are returned alongside the error.
func (r *Runner) ExecuteAll(ctx context.Context, proj *project.Manifest, figureID string, opts Options) ([]*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	figs, err := proj.Resolve(figureID)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(figs))
	for _, fig := range figs {
		res, err := r.Execute(ctx, proj, fig, opts)
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return results, errors.Wrap(code, err, "figure %s", fig.ID)
		}
		results = append(results, res)
	}
	return results, nil
}

// Execute runs the complete compose → convert → distribute pipeline
// for one figure.
func (r *Runner) Execute(ctx context.Context, proj *project.Manifest, fig project.Figure, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	spec, err := project.LoadSpec(fig)
	if err != nil {
		return nil, err
	}
	sheet, err := r.LoadStyle(proj, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		FigureID:  fig.ID,
		Artifacts: make(map[string]string),
	}

	// Stage 1: Compose
	doc, err := r.composeStage(ctx, fig, spec, sheet, opts, result)
	if err != nil {
		return nil, err
	}

	// Stage 2: Convert
	convertStart := time.Now()
	requested := opts.requestedFormats(proj.Convert.PDF, proj.Convert.PNG)
	observability.Pipeline().OnConvertStart(ctx, fig.ID, requested)
	artifacts, convertHit, err := r.ConvertWithCacheInfo(ctx, proj, fig, spec, doc, opts)
	if err != nil {
		observability.Pipeline().OnConvertComplete(ctx, fig.ID, requested, time.Since(convertStart), err)
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.ConvertTime = time.Since(convertStart)
	result.CacheInfo.ConvertHit = convertHit
	observability.Pipeline().OnConvertComplete(ctx, fig.ID, requested, result.Stats.ConvertTime, nil)

	if len(artifacts) > 0 {
		r.Logger.Info("converted figure",
			"figure", fig.ID,
			"formats", artifactFormats(artifacts),
			"duration", result.Stats.ConvertTime)
	}

	// Stage 3: Distribute
	if opts.Sync {
		syncStart := time.Now()
		observability.Pipeline().OnSyncStart(ctx, fig.ID, proj.RemoteDir())
		files, err := r.SyncFigure(ctx, proj, fig, opts)
		if err != nil {
			observability.Pipeline().OnSyncComplete(ctx, fig.ID, 0, time.Since(syncStart), err)
			return nil, err
		}
		result.Synced = files
		result.Stats.SyncTime = time.Since(syncStart)
		observability.Pipeline().OnSyncComplete(ctx, fig.ID, len(files), result.Stats.SyncTime, nil)

		r.Logger.Info("delivered figure",
			"figure", fig.ID,
			"files", len(files),
			"duration", result.Stats.SyncTime)
	}

	return result, nil
}

// composeStage composes the document, writes the SVG under the figure's
// output directory, and fills the compose fields of result.
func (r *Runner) composeStage(ctx context.Context, fig project.Figure, spec *project.Spec, sheet *style.Sheet, opts Options, result *Result) (*compose.Result, error) {
	if dups := spec.DuplicateLabels(); len(dups) > 0 {
		r.Logger.Warn("duplicate panel labels", "figure", fig.ID, "labels", dups)
	}

	composeStart := time.Now()
	observability.Pipeline().OnComposeStart(ctx, fig.ID, len(spec.Panels))
	doc, composeHit, err := r.ComposeWithCacheInfo(ctx, fig, spec, sheet, opts)
	if err != nil {
		observability.Pipeline().OnComposeComplete(ctx, fig.ID, 0, time.Since(composeStart), err)
		return nil, err
	}
	result.Stats.ComposeTime = time.Since(composeStart)
	result.Stats.PanelCount = len(spec.Panels)
	result.CacheInfo.ComposeHit = composeHit
	result.SVGHash = cache.Hash(doc.SVG)
	observability.Pipeline().OnComposeComplete(ctx, fig.ID, len(doc.SVG), result.Stats.ComposeTime, nil)

	if err := os.MkdirAll(fig.OutputDir(), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "creating %s", fig.OutputDir())
	}
	result.SVGPath = spec.OutputBase(fig, "svg")
	if err := os.WriteFile(result.SVGPath, doc.SVG, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "writing %s", result.SVGPath)
	}

	r.Logger.Info("composed figure",
		"figure", fig.ID,
		"panels", result.Stats.PanelCount,
		"size", len(doc.SVG),
		"duration", result.Stats.ComposeTime)
	return doc, nil
}

// ComposeFigure runs the compose stage alone: load the figure spec,
// resolve the style, place the panels, and write the SVG. No conversion
// or delivery happens.
func (r *Runner) ComposeFigure(ctx context.Context, proj *project.Manifest, fig project.Figure, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	spec, err := project.LoadSpec(fig)
	if err != nil {
		return nil, err
	}
	sheet, err := r.LoadStyle(proj, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		FigureID:  fig.ID,
		Artifacts: make(map[string]string),
	}
	if _, err := r.composeStage(ctx, fig, spec, sheet, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ComposeWithCacheInfo composes the figure and reports whether this
// exact document was composed before. The document is always rebuilt,
// composition is local and cheap; the cache entry serves as a ledger
// of known outputs for status reporting and artifact reuse.
func (r *Runner) ComposeWithCacheInfo(ctx context.Context, fig project.Figure, spec *project.Spec, sheet *style.Sheet, opts Options) (*compose.Result, bool, error) {
	doc, err := compose.Compose(spec, fig.Dir, compose.WithStyle(sheet))
	if err != nil {
		return nil, false, err
	}

	key := r.Keyer.ComposeKey(specHash(spec), cache.ComposeKeyOpts{
		StyleHash:      cache.Hash(sheet.Canonical()),
		FragmentHashes: doc.FragmentHashes,
	})

	hit := false
	if !opts.Refresh {
		if _, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			hit = true
			observability.Cache().OnCacheHit(ctx, "compose")
		}
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "compose")
		_ = r.Cache.Set(ctx, key, doc.SVG, cache.TTLCompose)
		observability.Cache().OnCacheSet(ctx, "compose", len(doc.SVG))
	}
	return doc, hit, nil
}

// Compose is a convenience wrapper that calls ComposeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Compose(ctx context.Context, fig project.Figure, spec *project.Spec, sheet *style.Sheet, opts Options) (*compose.Result, error) {
	doc, _, err := r.ComposeWithCacheInfo(ctx, fig, spec, sheet, opts)
	return doc, err
}

// ConvertWithCacheInfo produces the requested print artifacts with
// caching and reports whether every artifact came from cache. PDF is
// produced before PNG; backends that rasterize the print PDF get it as
// their input even when only PNG was requested.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, proj *project.Manifest, fig project.Figure, spec *project.Spec, doc *compose.Result, opts Options) (map[string]string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	cfg := proj.Convert
	wantPDF := opts.wantsFormat(FormatPDF, cfg.PDF, cfg.PNG)
	wantPNG := opts.wantsFormat(FormatPNG, cfg.PDF, cfg.PNG)

	artifacts := make(map[string]string)
	if !wantPDF && !wantPNG {
		return artifacts, false, nil
	}

	conv := opts.Converter
	if conv == nil {
		c, err := convert.Detect(ctx, cfg.Tool)
		if err != nil {
			return nil, false, err
		}
		conv = c
	}

	background := cfg.Background
	if background == "" {
		background = doc.Background
	}
	copts := convert.Options{
		DPI:        cfg.DPI,
		Background: background,
		TextToPath: doc.TextToPath,
	}

	svgHash := cache.Hash(doc.SVG)
	svgPath := spec.OutputBase(fig, "svg")
	pdfPath := spec.OutputBase(fig, FormatPDF)
	pngPath := spec.OutputBase(fig, FormatPNG)

	needPDF := wantPDF || (wantPNG && conv.PNGSource() == FormatPDF)
	allHit := true

	if needPDF {
		hit, err := r.convertArtifact(ctx, conv, svgHash, FormatPDF, svgPath, pdfPath, copts, opts.Refresh)
		if err != nil {
			return nil, false, err
		}
		allHit = allHit && hit
		if wantPDF {
			artifacts[FormatPDF] = pdfPath
		}
	}

	if wantPNG {
		src := svgPath
		if conv.PNGSource() == FormatPDF {
			src = pdfPath
		}
		hit, err := r.convertArtifact(ctx, conv, svgHash, FormatPNG, src, pngPath, copts, opts.Refresh)
		if err != nil {
			return nil, false, err
		}
		allHit = allHit && hit
		artifacts[FormatPNG] = pngPath
	}

	return artifacts, allHit, nil
}

// Convert is a convenience wrapper that calls ConvertWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Convert(ctx context.Context, proj *project.Manifest, fig project.Figure, spec *project.Spec, doc *compose.Result, opts Options) (map[string]string, error) {
	artifacts, _, err := r.ConvertWithCacheInfo(ctx, proj, fig, spec, doc, opts)
	return artifacts, err
}

// convertArtifact produces one artifact, reusing the cached bytes when
// the composed document and conversion options match a previous run.
func (r *Runner) convertArtifact(ctx context.Context, conv convert.Converter, svgHash, format, src, dst string, copts convert.Options, refresh bool) (bool, error) {
	key := r.Keyer.ArtifactKey(svgHash, cache.ArtifactKeyOpts{
		Format:     format,
		DPI:        copts.DPI,
		Background: copts.Background,
		Tool:       conv.Name(),
		TextToPath: copts.TextToPath,
	})

	if !refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			if err := os.WriteFile(dst, data, 0o644); err == nil {
				observability.Cache().OnCacheHit(ctx, "artifact")
				return true, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	var err error
	switch format {
	case FormatPDF:
		err = conv.PDF(ctx, src, dst, copts)
	case FormatPNG:
		err = conv.PNG(ctx, src, dst, copts)
	}
	if err != nil {
		return false, err
	}

	if data, err := os.ReadFile(dst); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return false, nil
}

// SyncFigure delivers the figure's converted outputs to the project's
// remote directory and records a receipt.
func (r *Runner) SyncFigure(ctx context.Context, proj *project.Manifest, fig project.Figure, opts Options) ([]distribute.FileResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	dest := proj.RemoteDir()
	if dest == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"project manifest sets no remote directory, nothing to sync to")
	}

	cfg := proj.Convert
	files, err := distribute.Sync(fig, dest, distribute.Options{
		PDF:    opts.wantsFormat(FormatPDF, cfg.PDF, cfg.PNG),
		PNG:    opts.wantsFormat(FormatPNG, cfg.PDF, cfg.PNG),
		DryRun: opts.DryRun,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun && len(files) > 0 {
		if err := r.saveReceipt(ctx, fig.ID, dest, files); err != nil {
			r.Logger.Warn("failed to record delivery receipt", "figure", fig.ID, "error", err)
		}
	}
	return files, nil
}

func (r *Runner) saveReceipt(ctx context.Context, figureID, dest string, files []distribute.FileResult) error {
	store := r.Receipts
	if store == nil {
		s, err := distribute.NewReceiptStore("")
		if err != nil {
			return err
		}
		store = s
	}
	return store.Save(ctx, distribute.NewReceipt(figureID, dest, files))
}

// LoadStyle resolves the active style sheet: an explicit path wins,
// then the project sheet merged over the built-in defaults. Warnings
// are logged, error-severity problems fail the load.
func (r *Runner) LoadStyle(proj *project.Manifest, opts Options) (*style.Sheet, error) {
	path := opts.StylePath
	if path == "" {
		path = proj.StylePath()
	}
	if path == "" {
		return style.Default(), nil
	}

	sheet, err := style.Load(path)
	if err != nil {
		return nil, err
	}

	problems := sheet.Validate()
	for _, p := range problems {
		if p.Severity == style.SeverityWarning {
			r.Logger.Warn("style sheet", "file", path, "problem", p.String())
		}
	}
	if style.HasErrors(problems) {
		return nil, errors.New(errors.ErrCodeInvalidStyle,
			"style sheet %s has invalid directives, run `figkit style check` for details", path)
	}

	return style.Default().Merge(sheet), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// specHash fingerprints the figure spec for cache keys. The JSON
// encoding of the struct is deterministic, so comments and formatting
// in the source file do not affect the hash.
func specHash(spec *project.Spec) string {
	data, _ := json.Marshal(spec)
	return cache.Hash(data)
}

func artifactFormats(artifacts map[string]string) []string {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
