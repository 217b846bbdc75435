package procurement

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/received/{lineID}", h.UpdateReceivedLine)
	r.Get("/{id}/settlement", h.Settlement)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/reject", h.Reject)
	r.Delete("/{id}", h.SoftDelete)
	r.Post("/{id}/restore", h.Restore)
}
