package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/koinecards/internal/apperr"
	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/render"
)

// Handler holds the viewer route handlers. Each request navigates its own
// session over the shared deck.
type Handler struct {
	svc *deckservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *deckservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns a decoded route parameter. Encoded slashes (%2F) reach
// chi still escaped, so they are unescaped here.
func pathParam(r *http.Request, name string) string {
	raw := strings.TrimPrefix(chi.URLParam(r, name), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// domainParam returns the domain named by the {domain} route segment.
func domainParam(r *http.Request) string {
	return render.ParseDomainSegment(pathParam(r, "domain"))
}

func writeHTML(w http.ResponseWriter, status int, page render.Page) {
	var buf bytes.Buffer
	if err := render.HTML(&buf, page); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// DomainPanel handles GET /.
func (h *Handler) DomainPanel(w http.ResponseWriter, _ *http.Request) {
	s, err := h.svc.NewSession()
	if err != nil {
		writeHTML(w, errorStatus(err), render.ErrorPage(err))
		return
	}
	writeHTML(w, http.StatusOK, render.NewPage(s))
}

// CardListPanel handles GET /d/{domain}.
func (h *Handler) CardListPanel(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	s, err := h.svc.NewSession()
	if err != nil {
		writeHTML(w, errorStatus(err), render.ErrorPage(err))
		return
	}
	if _, err := h.svc.Cards(r.Context(), domain); err != nil {
		writeHTML(w, errorStatus(err), render.ErrorPage(err))
		return
	}
	s.OpenDomain(domain)
	writeHTML(w, http.StatusOK, render.NewPage(s))
}

// CardPanel handles GET /d/{domain}/*.
func (h *Handler) CardPanel(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	filename := pathParam(r, "*")
	s, err := h.svc.NewSession()
	if err != nil {
		writeHTML(w, errorStatus(err), render.ErrorPage(err))
		return
	}
	c, err := h.svc.Card(r.Context(), domain, filename)
	if err != nil {
		writeHTML(w, errorStatus(err), render.ErrorPage(err))
		return
	}
	s.OpenCard(domain, c)
	writeHTML(w, http.StatusOK, render.NewPage(s))
}

// Styles handles GET /static/styles.css.
func (h *Handler) Styles(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(render.Styles())
}

// ListDomains handles GET /api/domains.
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Domains(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DomainListResponse{Domains: rows})
}

// ListCards handles GET /api/domains/{domain}.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	rows, err := h.svc.Cards(r.Context(), domain)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CardListResponse{Domain: domain, Cards: rows})
}

// GetCard handles GET /api/domains/{domain}/cards/*.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	filename := pathParam(r, "*")
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("filename is required"))
		return
	}
	c, err := h.svc.Card(r.Context(), domain, filename)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.CardDetail(c))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusNotFound {
		writeJSON(w, status, errorBody("not found"))
		return
	}
	slog.Error("deck unavailable", slog.String("error", err.Error()))
	writeJSON(w, status, errorBody(err.Error()))
}
