package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/storage"
)

// NewRouter creates a chi router with the viewer panels and the JSON API.
// authEnabled controls whether Bearer token auth is enforced on /api.
// origin, if non-nil, is served read-only under /cards.
func NewRouter(svc *deckservice.Service, authEnabled bool, token string, origin storage.Provider) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Viewer panels.
	r.Get("/", h.DomainPanel)
	r.Get("/d/{domain}", h.CardListPanel)
	r.Get("/d/{domain}/*", h.CardPanel)
	r.Get("/static/styles.css", h.Styles)

	if origin != nil {
		r.Get("/cards/*", OriginHandler(origin))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Get("/domains", h.ListDomains)
		r.Get("/domains/{domain}", h.ListCards)
		r.Get("/domains/{domain}/cards/*", h.GetCard)
	})

	return r
}
