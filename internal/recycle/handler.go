package recycle

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/milkline/milkline/internal/platform/httpx"
)

// PurgeEnqueuer hands a purge off to the background worker.
type PurgeEnqueuer interface {
	EnqueueRecyclePurge(ctx context.Context) (*asynq.TaskInfo, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer PurgeEnqueuer
}

// NewHandler builds the bin handler. With a nil enqueuer the purge
// endpoint runs inline instead of through the worker queue.
func NewHandler(logger *slog.Logger, service *Service, enqueuer PurgeEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchases", h.ListPurchases)
	r.Get("/sales", h.ListSales)
	r.Post("/purchases/{id}/restore", h.RestorePurchase)
	r.Post("/sales/{id}/restore", h.RestoreSale)
	r.Post("/purge", h.Purge)
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	page, limit := pageLimit(r)
	purchases, total, err := h.service.ListPurchases(r.Context(), page, limit)
	if err != nil {
		h.logger.Error("list recycled purchases failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": purchases, "total": total})
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	page, limit := pageLimit(r)
	sales, total, err := h.service.ListSales(r.Context(), page, limit)
	if err != nil {
		h.logger.Error("list recycled sales failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales, "total": total})
}

func (h *Handler) RestorePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RestorePurchase(r.Context(), id, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"restored": id})
}

func (h *Handler) RestoreSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RestoreSale(r.Context(), id, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"restored": id})
}

// Purge exists for manual runs; the worker fires the same operation on
// its schedule.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer != nil {
		if _, err := h.enqueuer.EnqueueRecyclePurge(r.Context()); err != nil {
			h.logger.Error("enqueue recycle purge failed", "error", err)
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{"enqueued": true})
		return
	}
	purchases, sales, err := h.service.Purge(r.Context())
	if err != nil {
		h.logger.Error("recycle purge failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purged_purchases": purchases, "purged_sales": sales})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func pageLimit(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return page, limit
}
