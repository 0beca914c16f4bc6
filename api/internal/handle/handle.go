package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vibeshift/api/internal/transform"
)

// Pinger is anything the health check should reach (e.g. the state store).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Limits struct {
	UIMaxInputLength int
	UIWarnLength     int
}

type Handle struct {
	pipe   *transform.Pipeline
	limits Limits
	log    *zap.Logger
	deps   []Pinger
}

func New(pipe *transform.Pipeline, limits Limits, log *zap.Logger, deps ...Pinger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{
		pipe:   pipe,
		limits: limits,
		log:    log,
		deps:   deps,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}
