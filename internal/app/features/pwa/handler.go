// internal/app/features/pwa/handler.go
package pwa

import (
	"bytes"
	"embed"
	"encoding/json"
	htmltemplate "html/template"
	"io/fs"
	"text/template"

	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"go.uber.org/zap"
)

//go:embed static/sw.js.tmpl static/index.html.tmpl static/icons/*.png
var staticFS embed.FS

// Config is the installability metadata of the web app manifest.
type Config struct {
	Name            string
	ShortName       string
	BackgroundColor string
	ThemeColor      string
}

// Handler serves the installable app surface: web app manifest, service
// worker, app shell and icons.
type Handler struct {
	Config  Config
	Version offline.Version
	Assets  offline.AssetManifest
	Log     *zap.Logger

	manifest []byte
	sw       []byte
	shell    []byte
	icons    fs.FS
}

// NewHandler renders every response up front; they only change on restart.
func NewHandler(cfg Config, version offline.Version, assets offline.AssetManifest, logger *zap.Logger) (*Handler, error) {
	if cfg.ShortName == "" {
		cfg.ShortName = cfg.Name
	}
	h := &Handler{Config: cfg, Version: version, Assets: assets, Log: logger}

	var err error
	if h.manifest, err = json.MarshalIndent(newWebManifest(cfg), "", "  "); err != nil {
		return nil, err
	}
	if h.sw, err = renderServiceWorker(version, assets); err != nil {
		return nil, err
	}
	if h.shell, err = renderShell(cfg); err != nil {
		return nil, err
	}
	if h.icons, err = fs.Sub(staticFS, "static/icons"); err != nil {
		return nil, err
	}
	return h, nil
}

var swFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

func renderServiceWorker(version offline.Version, assets offline.AssetManifest) ([]byte, error) {
	t, err := template.New("sw.js.tmpl").Funcs(swFuncs).ParseFS(staticFS, "static/sw.js.tmpl")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, struct {
		Bucket string
		Assets []string
	}{version.BucketName(), assets.URLs()})
	return buf.Bytes(), err
}

func renderShell(cfg Config) ([]byte, error) {
	t, err := htmltemplate.ParseFS(staticFS, "static/index.html.tmpl")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, cfg)
	return buf.Bytes(), err
}
