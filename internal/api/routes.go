package api

import "github.com/go-chi/chi/v5"

// Routes registers the public authentication endpoints under r.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

// Routes registers the session and history endpoints under r. The caller
// must install the authentication middleware first.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/session", h.GetSession)
	r.Post("/session/emotions", h.SelectEmotion)
	r.Put("/session/custom-emotion", h.SetCustomEmotion)
	r.Put("/session/event", h.SetEvent)
	r.Put("/session/need", h.SetNeed)
	r.Put("/session/min-action", h.SetMinAction)
	r.Post("/session/advance", h.Advance)
	r.Post("/session/retreat", h.Retreat)
	r.Post("/session/analysis", h.RunAnalysis)
	r.Post("/session/save", h.Save)
	r.Post("/session/reset", h.Reset)

	r.Get("/history", h.GetHistory)
	r.Delete("/history/{timestamp}", h.DeleteHistoryRecord)
}
