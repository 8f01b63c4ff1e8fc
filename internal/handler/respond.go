package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// decodeJSON reads a single JSON document from the request body into v.
// An empty body is an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// handleError maps a domain error to its HTTP status. Unexpected errors are
// logged and answered with a generic message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		orderValidation   *order.ValidationError
		loyaltyValidation *loyalty.ValidationError
		orderTransition   *order.TransitionError
		loyaltyTransition *loyalty.TransitionError
	)
	switch {
	case errors.As(err, &orderValidation), errors.As(err, &loyaltyValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, loyalty.ErrProgramNotFound),
		errors.Is(err, loyalty.ErrMembershipNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &orderTransition), errors.As(err, &loyaltyTransition),
		errors.Is(err, order.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
