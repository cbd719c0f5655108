// Package errors writes JSON error responses and logs the underlying cause
// with the chi request id so client-visible messages stay generic.
package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func write(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	slog.Error(message, "request_id", middleware.GetReqID(r.Context()), "error", err)
	write(w, http.StatusInternalServerError, "internal server error")
}

func BadRequest(w http.ResponseWriter, r *http.Request, clientMessage string) {
	write(w, http.StatusBadRequest, clientMessage)
}

func NotFound(w http.ResponseWriter) {
	write(w, http.StatusNotFound, "not found")
}

func Forbidden(w http.ResponseWriter) {
	write(w, http.StatusForbidden, "forbidden")
}

func Conflict(w http.ResponseWriter, clientMessage string) {
	write(w, http.StatusConflict, clientMessage)
}

// BadGateway reports an upstream CalDAV failure during an immediate publish.
func BadGateway(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	slog.Error("upstream failure", "request_id", middleware.GetReqID(r.Context()), "error", err)
	write(w, http.StatusBadGateway, clientMessage)
}
