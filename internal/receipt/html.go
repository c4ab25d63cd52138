package receipt

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static/index.html
var indexHTML []byte

// staticFS holds the stylesheet and the ES module tree, served under /static/
//
//go:embed static/app.css static/app.js static/controllers/*.js
var staticFS embed.FS

// staticTypes pins the media types browsers need for module scripts,
// independent of the host's mime tables
var staticTypes = map[string]string{
	".js":  "application/javascript; charset=utf-8",
	".css": "text/css; charset=utf-8",
}

func uiFS() fs.FS {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return fsys
}

// handleIndex serves the single page interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStatic serves the embedded assets referenced by index.html
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	assets := uiFS()
	if info, err := fs.Stat(assets, name); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	if contentType, ok := staticTypes[path.Ext(name)]; ok {
		w.Header().Set("Content-Type", contentType)
	}
	http.ServeFileFS(w, r, assets, name)
}
