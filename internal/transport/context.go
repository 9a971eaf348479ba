package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var (
	ErrUnauthenticated = apperror.New(apperror.KindUnauthenticated, "authentication required")
	ErrMalformedBody   = apperror.New(apperror.KindValidation, "request body is not valid JSON")
)

// actorFrom returns the authenticated caller or ErrUnauthenticated.
func actorFrom(r *http.Request) (access.Actor, error) {
	actor, ok := access.ActorFrom(r.Context())
	if !ok {
		return access.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.New(apperror.KindValidation, "request body is empty")
		}
		return apperror.Wrap(apperror.KindValidation, ErrMalformedBody.Message, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperror.Newf(apperror.KindValidation, "%s is not a valid id", name)
	}
	return id, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Newf(apperror.KindValidation, "%s is not a valid id", name)
	}
	return &id, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.New(apperror.KindValidation, fmt.Sprintf("%s must be RFC 3339 or YYYY-MM-DD", name))
}

func queryRange(r *http.Request) (from, to *time.Time, err error) {
	if from, err = queryTime(r, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(r, "to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
