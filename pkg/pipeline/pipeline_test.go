package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/figkit/figkit/pkg/cache"
	"github.com/figkit/figkit/pkg/convert"
	"github.com/figkit/figkit/pkg/distribute"
	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/project"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"pdf", false},
		{"png", false},
		{"svg", true}, // composed, never converted to
		{"PDF", true}, // case-sensitive
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"pdf", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"pdf", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid, the manifest decides
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsValidateIdempotent(t *testing.T) {
	opts := Options{Formats: []string{"pdf"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger default not applied")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}

	bad := Options{Formats: []string{"docx"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("invalid format should fail validation")
	}
}

func TestWantsFormat(t *testing.T) {
	manifest := Options{} // empty Formats follows the toggles
	if !manifest.wantsFormat(FormatPDF, true, false) {
		t.Error("pdf toggle on, wantsFormat(pdf) = false")
	}
	if manifest.wantsFormat(FormatPNG, true, false) {
		t.Error("png toggle off, wantsFormat(png) = true")
	}

	explicit := Options{Formats: []string{"png"}}
	if explicit.wantsFormat(FormatPDF, true, true) {
		t.Error("explicit formats should override the manifest toggles")
	}
	if !explicit.wantsFormat(FormatPNG, false, false) {
		t.Error("explicitly requested format denied")
	}
}

// =============================================================================
// Runner tests
// =============================================================================

type fakeCall struct {
	src, dst string
}

// fakeConverter stands in for inkscape: it records invocations and
// writes placeholder artifacts so downstream stages find real files.
type fakeConverter struct {
	pngSource string
	pdfCalls  []fakeCall
	pngCalls  []fakeCall
	fail      error
}

func (f *fakeConverter) Name() string      { return "fake" }
func (f *fakeConverter) PNGSource() string { return f.pngSource }

func (f *fakeConverter) PDF(_ context.Context, src, dst string, _ convert.Options) error {
	if f.fail != nil {
		return f.fail
	}
	f.pdfCalls = append(f.pdfCalls, fakeCall{src, dst})
	return os.WriteFile(dst, []byte("%PDF-1.5 placeholder\n"), 0o644)
}

func (f *fakeConverter) PNG(_ context.Context, src, dst string, _ convert.Options) error {
	if f.fail != nil {
		return f.fail
	}
	f.pngCalls = append(f.pngCalls, fakeCall{src, dst})
	return os.WriteFile(dst, []byte("png placeholder"), 0o644)
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testProject lays out a complete project on disk: manifest, one
// registered figure with a vector panel, and a remote directory.
func testProject(t *testing.T) (*project.Manifest, project.Figure) {
	t.Helper()
	root := t.TempDir()

	manifest := `remote = "shared/figures"

[figures]
1 = "figures/fig1"

[convert]
dpi = 250
`
	if err := os.WriteFile(filepath.Join(root, "figkit.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	figDir := filepath.Join(root, "figures", "fig1")
	if err := os.MkdirAll(filepath.Join(figDir, "panels"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	spec := `name = "fig1"
width = 100
height = 40

[[panel]]
src = "panels/a.svg"
x = 5
y = 5
scale = 0.5
label = "a"
`
	if err := os.WriteFile(filepath.Join(figDir, "figure.toml"), []byte(spec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	panel := `<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96" viewBox="0 0 96 96"><rect width="96" height="96" fill="#333333"/></svg>`
	if err := os.WriteFile(filepath.Join(figDir, "panels", "a.svg"), []byte(panel), 0o644); err != nil {
		t.Fatalf("write panel: %v", err)
	}

	proj, err := project.Load(filepath.Join(root, "figkit.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	fig, err := proj.Figure("1")
	if err != nil {
		t.Fatalf("Figure() error = %v", err)
	}
	return proj, fig
}

func TestRunnerExecuteAll(t *testing.T) {
	proj, _ := testProject(t)
	ctx := context.Background()

	store, err := distribute.NewReceiptStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewReceiptStore() error = %v", err)
	}

	runner := NewRunner(nil, nil, testLogger())
	runner.Receipts = store

	fake := &fakeConverter{pngSource: "pdf"}
	opts := Options{Sync: true, Converter: fake}

	results, err := runner.ExecuteAll(ctx, proj, "", opts)
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]

	if res.FigureID != "1" {
		t.Errorf("FigureID = %q, want 1", res.FigureID)
	}

	svg, err := os.ReadFile(res.SVGPath)
	if err != nil {
		t.Fatalf("composed document missing: %v", err)
	}
	if !strings.Contains(string(svg), `width="100mm"`) {
		t.Errorf("composed document lacks the declared canvas: %.80s", svg)
	}
	if res.SVGHash == "" {
		t.Error("no document hash recorded")
	}
	if res.Stats.PanelCount != 1 {
		t.Errorf("PanelCount = %d, want 1", res.Stats.PanelCount)
	}

	// Conversion: svg fed to pdf, pdf fed to png.
	if len(fake.pdfCalls) != 1 || fake.pdfCalls[0].src != res.SVGPath {
		t.Errorf("pdf calls = %v, want one from %s", fake.pdfCalls, res.SVGPath)
	}
	if len(fake.pngCalls) != 1 || !strings.HasSuffix(fake.pngCalls[0].src, "fig1.pdf") {
		t.Errorf("png calls = %v, want one from the pdf", fake.pngCalls)
	}
	for _, format := range []string{"pdf", "png"} {
		path, ok := res.Artifacts[format]
		if !ok {
			t.Fatalf("no %s artifact recorded", format)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s artifact missing on disk: %v", format, err)
		}
	}

	// Distribution: pdf and png landed in the remote directory.
	if len(res.Synced) != 2 {
		t.Fatalf("Synced = %d files, want 2", len(res.Synced))
	}
	for _, f := range res.Synced {
		if _, err := os.Stat(f.Dest); err != nil {
			t.Errorf("delivered file missing: %v", err)
		}
		if !strings.HasPrefix(f.Dest, proj.RemoteDir()) {
			t.Errorf("delivery outside the remote dir: %s", f.Dest)
		}
	}

	receipt, err := store.Latest(ctx, "1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if receipt == nil || len(receipt.Files) != 2 {
		t.Errorf("receipt = %+v, want one with 2 files", receipt)
	}
}

func TestRunnerUnknownFigure(t *testing.T) {
	proj, _ := testProject(t)
	runner := NewRunner(nil, nil, testLogger())

	_, err := runner.ExecuteAll(context.Background(), proj, "99", Options{Converter: &fakeConverter{pngSource: "pdf"}})
	if errors.GetCode(err) != errors.ErrCodeFigureNotFound {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeFigureNotFound)
	}
}

func TestRunnerCacheReuse(t *testing.T) {
	proj, fig := testProject(t)
	ctx := context.Background()

	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fileCache, nil, testLogger())

	first := &fakeConverter{pngSource: "pdf"}
	res1, err := runner.Execute(ctx, proj, fig, Options{Converter: first})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if res1.CacheInfo.ComposeHit || res1.CacheInfo.ConvertHit {
		t.Errorf("first run reported cache hits: %+v", res1.CacheInfo)
	}
	if len(first.pdfCalls) != 1 || len(first.pngCalls) != 1 {
		t.Fatalf("first run conversions = %d pdf, %d png; want 1 each", len(first.pdfCalls), len(first.pngCalls))
	}

	second := &fakeConverter{pngSource: "pdf"}
	res2, err := runner.Execute(ctx, proj, fig, Options{Converter: second})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !res2.CacheInfo.ComposeHit || !res2.CacheInfo.ConvertHit {
		t.Errorf("second run missed the cache: %+v", res2.CacheInfo)
	}
	if len(second.pdfCalls) != 0 || len(second.pngCalls) != 0 {
		t.Errorf("second run still invoked the converter: %d pdf, %d png", len(second.pdfCalls), len(second.pngCalls))
	}
	if data, err := os.ReadFile(res2.Artifacts["pdf"]); err != nil || len(data) == 0 {
		t.Errorf("cached artifact not restored to disk: %v", err)
	}

	third := &fakeConverter{pngSource: "pdf"}
	res3, err := runner.Execute(ctx, proj, fig, Options{Converter: third, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if res3.CacheInfo.ComposeHit || res3.CacheInfo.ConvertHit {
		t.Errorf("refresh run reported cache hits: %+v", res3.CacheInfo)
	}
	if len(third.pdfCalls) != 1 {
		t.Errorf("refresh run conversions = %d, want 1", len(third.pdfCalls))
	}
}

func TestRunnerManifestToggles(t *testing.T) {
	proj, fig := testProject(t)
	proj.Convert.PNG = false

	fake := &fakeConverter{pngSource: "pdf"}
	runner := NewRunner(nil, nil, testLogger())

	res, err := runner.Execute(context.Background(), proj, fig, Options{Converter: fake})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := res.Artifacts["png"]; ok {
		t.Error("png produced despite the manifest toggle")
	}
	if len(fake.pngCalls) != 0 {
		t.Errorf("png conversions = %d, want 0", len(fake.pngCalls))
	}
	if len(fake.pdfCalls) != 1 {
		t.Errorf("pdf conversions = %d, want 1", len(fake.pdfCalls))
	}
}

func TestRunnerDirectPNGBackend(t *testing.T) {
	proj, fig := testProject(t)

	fake := &fakeConverter{pngSource: "svg"}
	runner := NewRunner(nil, nil, testLogger())

	res, err := runner.Execute(context.Background(), proj, fig, Options{Formats: []string{"png"}, Converter: fake})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(fake.pdfCalls) != 0 {
		t.Errorf("direct backend still produced a pdf: %v", fake.pdfCalls)
	}
	if len(fake.pngCalls) != 1 || fake.pngCalls[0].src != res.SVGPath {
		t.Errorf("png calls = %v, want one from the svg", fake.pngCalls)
	}
}

func TestRunnerConverterFailure(t *testing.T) {
	proj, fig := testProject(t)

	fake := &fakeConverter{
		pngSource: "pdf",
		fail:      &errors.ConvertError{Tool: "fake", Stderr: "cannot open display"},
	}
	runner := NewRunner(nil, nil, testLogger())

	_, err := runner.Execute(context.Background(), proj, fig, Options{Converter: fake})
	if err == nil {
		t.Fatal("Execute() expected the converter failure")
	}
	if errors.GetCode(err) != errors.ErrCodeConvertFailed {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeConvertFailed)
	}
	if !strings.Contains(err.Error(), "cannot open display") {
		t.Errorf("tool stderr not passed through: %v", err)
	}
}

func TestSyncRequiresRemote(t *testing.T) {
	proj, fig := testProject(t)
	proj.Remote = ""

	runner := NewRunner(nil, nil, testLogger())
	_, err := runner.SyncFigure(context.Background(), proj, fig, Options{})
	if errors.GetCode(err) != errors.ErrCodeInvalidManifest {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidManifest)
	}
}

func TestLoadStyle(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())

	t.Run("built-in default", func(t *testing.T) {
		proj, _ := testProject(t)
		sheet, err := runner.LoadStyle(proj, Options{})
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if !sheet.Has("font.size") {
			t.Error("default sheet missing font.size")
		}
	})

	t.Run("project sheet merges over defaults", func(t *testing.T) {
		proj, _ := testProject(t)
		path := filepath.Join(proj.RootDir(), "paper.style")
		if err := os.WriteFile(path, []byte("figure.titlesize : 14.0\n"), 0o644); err != nil {
			t.Fatalf("write style: %v", err)
		}
		proj.Style = "paper.style"

		sheet, err := runner.LoadStyle(proj, Options{})
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if got := sheet.Float("figure.titlesize", 0); got != 14.0 {
			t.Errorf("figure.titlesize = %g, want the project override 14", got)
		}
		if !sheet.Has("font.size") {
			t.Error("merge dropped the defaults")
		}
	})

	t.Run("explicit path wins", func(t *testing.T) {
		proj, _ := testProject(t)
		path := filepath.Join(t.TempDir(), "review.style")
		if err := os.WriteFile(path, []byte("figure.titlesize : 9.0\n"), 0o644); err != nil {
			t.Fatalf("write style: %v", err)
		}

		sheet, err := runner.LoadStyle(proj, Options{StylePath: path})
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if got := sheet.Float("figure.titlesize", 0); got != 9.0 {
			t.Errorf("figure.titlesize = %g, want 9", got)
		}
	})

	t.Run("invalid sheet fails", func(t *testing.T) {
		proj, _ := testProject(t)
		path := filepath.Join(t.TempDir(), "broken.style")
		if err := os.WriteFile(path, []byte("font.size : not-a-number\n"), 0o644); err != nil {
			t.Fatalf("write style: %v", err)
		}

		_, err := runner.LoadStyle(proj, Options{StylePath: path})
		if errors.GetCode(err) != errors.ErrCodeInvalidStyle {
			t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidStyle)
		}
	})
}
