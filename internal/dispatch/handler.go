package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	sales, total, err := h.service.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list sales failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto SaleDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in, err := dto.toCreateInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto SaleDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in, err := dto.toUpdateInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) UpdateReceivedLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return
	}
	var dto ReceivedChangeDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	ch, err := dto.toChange()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.UpdateReceivedLine(r.Context(), id, lineID, ch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) EditFixedCost(w http.ResponseWriter, r *http.Request) {
	h.rateEdit(w, r, h.service.EditFixedCost)
}

func (h *Handler) EditTaxPercent(w http.ResponseWriter, r *http.Request) {
	h.rateEdit(w, r, h.service.EditTaxPercent)
}

func (h *Handler) rateEdit(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64, value float64) (Sale, error)) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto RateDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	value, err := dto.toValue()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := op(r.Context(), id, value)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Settlement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.service.Settlement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Accept, "accepted")
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Reject, "rejected")
}

func (h *Handler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.SoftDelete, "deleted")
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Restore, "restored")
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, actorID int64) error, verb string) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), id, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{verb: id})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func parseListQuery(r *http.Request) ListQuery {
	qs := r.URL.Query()
	q := ListQuery{Page: 1, Limit: 20}
	if page, _ := strconv.Atoi(qs.Get("page")); page > 0 {
		q.Page = page
	}
	if limit, _ := strconv.Atoi(qs.Get("limit")); limit > 0 {
		q.Limit = limit
	}
	q.CustomerID, _ = strconv.ParseInt(qs.Get("customer_id"), 10, 64)
	q.Status = milk.Status(qs.Get("status"))
	if from, err := time.Parse("2006-01-02", qs.Get("from")); err == nil {
		q.From = from
	}
	if to, err := time.Parse("2006-01-02", qs.Get("to")); err == nil {
		q.To = to
	}
	q.IncludeDeleted = qs.Get("include_deleted") == "true"
	return q
}
