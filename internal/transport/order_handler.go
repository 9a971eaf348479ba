package transport

import (
	"net/http"

	"procurement-be/internal/order"
)

type orderLinesRequest struct {
	Lines []order.LineInput `json:"lines"`
}

type transitionRequest struct {
	Action  order.Action `json:"action"`
	Comment string       `json:"comment,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req orderLinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.Orders.CreateOrder(r.Context(), actor, req.Lines)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req orderLinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.Orders.UpdateOrder(r.Context(), actor, id, req.Lines)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.Orders.Transition(r.Context(), actor, id, req.Action, req.Comment)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	o, err := h.Orders.GetOrder(r.Context(), actor, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	from, to, err := queryRange(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	f := order.Filter{From: from, To: to}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		f.Status = &status
	}

	orders, err := h.Orders.ListOrders(r.Context(), actor, f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	from, to, err := queryRange(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	stats, err := h.Orders.Stats(r.Context(), actor, from, to)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
