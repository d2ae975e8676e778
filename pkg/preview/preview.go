// Package preview serves composed figures over HTTP for visual
// inspection while panels are being edited.
//
// Every request composes from the files on disk, so edits to figure
// specs, fragments and the style sheet show up on reload. The manifest
// itself is read once at startup; restart the server after changing
// the figure registry.
//
// SVG responses are the composed document exactly as `figkit compose`
// would write it. PNG responses come from the built-in proof renderer
// and approximate fonts; they exist so a browser without inline SVG
// tooling can still show the figure.
package preview

import (
	"context"
	"html/template"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/figkit/figkit/pkg/compose"
	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/pipeline"
	"github.com/figkit/figkit/pkg/project"
)

// Options configures the preview server.
type Options struct {
	// StylePath overrides the project style sheet.
	StylePath string
}

// Server previews a project's figures over HTTP.
type Server struct {
	proj   *project.Manifest
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
}

// NewServer creates a preview server for the loaded project.
// A nil runner gets a cache-less default; a nil logger logs nowhere.
func NewServer(proj *project.Manifest, runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{proj: proj, runner: runner, logger: logger, opts: opts}
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/", s.handleIndex)
	r.Get("/figs/{id}.svg", s.handleFigureSVG)
	r.Get("/figs/{id}.png", s.handleFigurePNG)
	r.Get("/figs/{id}", s.handleFigurePage)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("preview server listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID  string
		Dir string
	}
	data := struct {
		Project string
		Figures []entry
	}{Project: s.proj.RootDir()}
	for _, id := range s.proj.IDs() {
		data.Figures = append(data.Figures, entry{ID: id, Dir: s.proj.Figures[id]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

func (s *Server) handleFigurePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.proj.Figure(id); err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := figureTmpl.Execute(w, struct{ ID string }{ID: id}); err != nil {
		s.logger.Error("render figure page", "error", err)
	}
}

func (s *Server) handleFigureSVG(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.composeFigure(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(doc.SVG)
}

func (s *Server) handleFigurePNG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fig, err := s.proj.Figure(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	spec, err := project.LoadSpec(fig)
	if err != nil {
		s.fail(w, err)
		return
	}
	sheet, err := s.runner.LoadStyle(s.proj, pipeline.Options{StylePath: s.opts.StylePath})
	if err != nil {
		s.fail(w, err)
		return
	}

	copts := []compose.Option{compose.WithStyle(sheet)}
	if dpi, err := strconv.ParseFloat(r.URL.Query().Get("dpi"), 64); err == nil && dpi > 0 {
		copts = append(copts, compose.WithDPI(dpi))
	}

	img, err := compose.ComposeRaster(spec, fig.Dir, copts...)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.logger.Error("encode png", "figure", id, "error", err)
	}
}

func (s *Server) composeFigure(id string) (*compose.Result, project.Figure, error) {
	fig, err := s.proj.Figure(id)
	if err != nil {
		return nil, fig, err
	}
	spec, err := project.LoadSpec(fig)
	if err != nil {
		return nil, fig, err
	}
	sheet, err := s.runner.LoadStyle(s.proj, pipeline.Options{StylePath: s.opts.StylePath})
	if err != nil {
		return nil, fig, err
	}
	doc, err := compose.Compose(spec, fig.Dir, compose.WithStyle(sheet))
	return doc, fig, err
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeFigureNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidFigure, errors.ErrCodeInvalidPanel, errors.ErrCodeInvalidStyle:
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, errors.UserMessage(err), status)
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>figkit preview</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
li { margin: 0.3rem 0; }
code { color: #666; }
</style>
</head>
<body>
<h1>Figures</h1>
<p><code>{{.Project}}</code></p>
<ul>
{{range .Figures}}<li><a href="/figs/{{.ID}}">{{.ID}}</a> <code>{{.Dir}}</code></li>
{{end}}</ul>
</body>
</html>
`))

var figureTmpl = template.Must(template.New("figure").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>figure {{.ID}}</title>
<meta http-equiv="refresh" content="2">
</head>
<body style="margin:0; background:#777">
<img src="/figs/{{.ID}}.svg" alt="figure {{.ID}}"
  style="display:block; margin:2rem auto; background:white; box-shadow:0 2px 10px rgba(0,0,0,0.5)">
</body>
</html>
`))
