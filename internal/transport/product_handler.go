package transport

import (
	"net/http"

	"procurement-be/internal/apperror"
	"procurement-be/internal/catalog"

	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name              string           `json:"name"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	CriticalThreshold *int             `json:"criticalThreshold,omitempty"`
}

type setPriceRequest struct {
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	p, err := h.Products.CreateProduct(r.Context(), actor, catalog.CreateProductInput{
		Name:              req.Name,
		UnitPrice:         req.UnitPrice,
		CriticalThreshold: req.CriticalThreshold,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		WriteError(w, r, err)
		return
	}

	products, err := h.Products.ListProducts(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFrom(r); err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	p, err := h.Products.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) {
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

	var req setPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.UnitPrice == nil {
		WriteError(w, r, apperror.New(apperror.KindValidation, "unitPrice is required"))
		return
	}

	p, err := h.Products.SetPrice(r.Context(), actor, id, *req.UnitPrice)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
