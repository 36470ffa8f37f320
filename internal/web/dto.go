package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/koinecards/internal/render"
)

// DomainListResponse wraps the domain listing.
type DomainListResponse struct {
	Domains []render.DomainRow `json:"domains"`
}

// CardListResponse wraps the card listing of one domain.
type CardListResponse struct {
	Domain string           `json:"domain"`
	Cards  []render.CardRow `json:"cards"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("api: encode response", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
