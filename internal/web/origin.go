package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/starford/koinecards/internal/storage"
)

// OriginHandler serves the files of a local cards directory (manifest and
// card texts) so the directory can act as a deck origin. Paths outside the
// directory and missing files answer 404.
func OriginHandler(store storage.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathParam(r, "*")
		if name == "" {
			http.NotFound(w, r)
			return
		}
		data, err := store.Read(name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Debug("origin: read refused", slog.String("path", name), slog.String("error", err.Error()))
			}
			http.NotFound(w, r)
			return
		}
		ctype := mime.TypeByExtension(path.Ext(name))
		if path.Ext(name) == storage.CardExt || ctype == "" {
			ctype = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	}
}
