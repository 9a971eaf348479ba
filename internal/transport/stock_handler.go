package transport

import (
	"net/http"

	"github.com/google/uuid"
)

type movementRequest struct {
	ProductID   uuid.UUID `json:"productId"`
	Quantity    int       `json:"quantity"`
	RecipientID uuid.UUID `json:"recipientId,omitempty"`
}

func (h *Handler) recordInbound(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req movementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.Stock.RecordInbound(r.Context(), actor, req.ProductID, req.Quantity)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) recordOutbound(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req movementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.Stock.RecordOutbound(r.Context(), actor, req.ProductID, req.Quantity, req.RecipientID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		WriteError(w, r, err)
		return
	}

	levels, err := h.Stock.ListStock(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": levels})
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "productId")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	rec, err := h.Stock.GetStock(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
