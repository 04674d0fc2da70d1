package handlers

import (
	"net/http"

	"github.com/dvloznov/docrisk/internal/api/middleware"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Livez handles GET /health/livez
func Livez(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Service is live"})
}

// Readyz handles GET /health/readyz
func Readyz(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Service is ready"})
}
