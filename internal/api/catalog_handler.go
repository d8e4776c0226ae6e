package api

import (
	"net/http"

	"github.com/phrazzld/clarity-api/internal/api/shared"
	"github.com/phrazzld/clarity-api/internal/domain"
)

// GetCatalog handles GET /api/catalog.
func GetCatalog(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, CatalogResponse{
		Emotions:               domain.EmotionCatalog(),
		Needs:                  domain.NeedCatalog(),
		MaxEmotions:            domain.MaxEmotions,
		MaxCustomEmotionLength: domain.MaxCustomEmotionLength,
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
