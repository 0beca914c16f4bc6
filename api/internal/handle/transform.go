package handle

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"vibeshift/api/internal/transform"
)

const maxBodyBytes = 1 << 20

// transformBody keeps the fields raw so a value of the wrong type is treated
// as missing instead of failing the whole body.
type transformBody struct {
	Text   json.RawMessage `json:"text"`
	Filter json.RawMessage `json:"filter"`
}

type transformResponse struct {
	Transformed string `json:"transformed"`
}

// stringField returns raw as a string, or "" when it is absent or not a string.
func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Transform serves POST /api/transform: {"text","filter"} -> {"transformed"} | {"error"}.
func (h *Handle) Transform(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body transformBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.log.Debug("bad transform body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := transform.Request{Text: stringField(body.Text), Lens: stringField(body.Filter)}

	ctx := transform.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	res, err := h.pipe.Transform(ctx, req)
	if err != nil {
		writeError(w, transform.KindOf(err).HTTPStatus(), transform.MessageOf(err))
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{Transformed: res.Transformed})
}
