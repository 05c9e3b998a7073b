package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opsdeck/missiond/pkg/cerr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := cerr.CodeOf(err)
	if !code.IsExpected() {
		slog.ErrorContext(r.Context(), "request failed", "error", err)
	}
	writeJSON(w, code.HTTPCode(), errorBody{
		Code:    code.String(),
		Message: err.Error(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, cerr.NewError(cerr.InvalidArgument, "invalid request body", err))
		return false
	}
	return true
}
