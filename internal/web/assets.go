package web

import (
	"bytes"
	"compress/gzip"
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

//go:embed static/*
var staticFS embed.FS

// asset holds a minified and gzipped version of a static file.
type asset struct {
	content     []byte // minified content
	gzipped     []byte // gzipped minified content
	contentType string
}

// Assets is the processed set of embedded files, keyed by serving path ("index.html", "app.js").
type Assets struct {
	files  map[string]*asset
	logger *log.Logger
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// LoadAssets minifies and gzips every file under dir in fsys. A file that fails to minify is kept as is.
func LoadAssets(fsys fs.FS, dir string, logger *log.Logger) (*Assets, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	a := &Assets{files: make(map[string]*asset), logger: shared.WithLogger(logger, "component", "web")}
	m := newMinifier()

	err := fs.WalkDir(fsys, dir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return err
		}

		contentType := mime.TypeByExtension(path.Ext(filePath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		servePath := strings.TrimPrefix(filePath, dir+"/")

		minified := data
		mediaType, _, _ := strings.Cut(contentType, ";")
		if _, _, fn := m.Match(mediaType); fn != nil {
			var buf bytes.Buffer
			if err := m.Minify(mediaType, &buf, bytes.NewReader(data)); err != nil {
				a.logger.Warn("failed to minify, using original", "file", servePath, "error", err)
			} else {
				minified = buf.Bytes()
				a.logger.Debug("minified", "file", servePath, "before", len(data), "after", len(minified))
			}
		}

		var gzBuf bytes.Buffer
		gz, _ := gzip.NewWriterLevel(&gzBuf, gzip.BestCompression)
		if _, err := gz.Write(minified); err != nil {
			return fmt.Errorf("failed to gzip %s: %w", servePath, err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to gzip %s: %w", servePath, err)
		}

		a.files[servePath] = &asset{content: minified, gzipped: gzBuf.Bytes(), contentType: contentType}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process embedded assets: %w", err)
	}

	a.logger.Info("initialized embedded assets", "count", len(a.files))
	return a, nil
}

// Len returns the number of processed files.
func (a *Assets) Len() int {
	return len(a.files)
}

// ServeHTTP serves a processed file, falling back to index.html for unknown paths.
// Clients that accept gzip get the compressed copy.
func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := path.Clean(r.URL.Path)
	if urlPath == "/" || urlPath == "." {
		urlPath = "index.html"
	} else {
		urlPath = strings.TrimPrefix(urlPath, "/")
	}

	f, ok := a.files[urlPath]
	if !ok {
		if f, ok = a.files["index.html"]; !ok {
			http.NotFound(w, r)
			return
		}
	}

	w.Header().Set("Content-Type", f.contentType)
	w.Header().Set("Vary", "Accept-Encoding")
	if strings.HasPrefix(f.contentType, "text/html") {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}

	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") && len(f.gzipped) > 0 {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(f.gzipped)
		return
	}
	_, _ = w.Write(f.content)
}

// Handler returns the dashboard page handler. When DEV=1 files are read from internal/web/static on
// every request instead.
func Handler(logger *log.Logger) (http.Handler, error) {
	if os.Getenv("DEV") == "1" {
		if logger != nil {
			logger.Info("development mode: serving assets from disk", "dir", "internal/web/static")
		}
		return http.FileServer(http.Dir("internal/web/static")), nil
	}
	return LoadAssets(staticFS, "static", logger)
}
