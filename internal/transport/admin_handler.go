package transport

import (
	"net/http"

	"procurement-be/internal/access"
	"procurement-be/internal/journal"
)

type updateRoleRequest struct {
	Role access.Role `json:"role"`
}

func (h *Handler) queryJournal(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var f journal.Filter
	if f.OrderID, err = queryUUID(r, "orderId"); err != nil {
		WriteError(w, r, err)
		return
	}
	if f.ActorID, err = queryUUID(r, "actorId"); err != nil {
		WriteError(w, r, err)
		return
	}
	if f.From, f.To, err = queryRange(r); err != nil {
		WriteError(w, r, err)
		return
	}

	entries, err := h.Journal.Query(r.Context(), actor, f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	users, err := h.Users.ListUsers(r.Context(), actor)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
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

	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	u, err := h.Users.UpdateRole(r.Context(), actor, id, req.Role)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
