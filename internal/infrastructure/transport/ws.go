package transport

import (
	"net/http"

	"docify/internal/domain/entity"
)

type wsEvent struct {
	Type   string `json:"type"` // stage | result
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Result any    `json:"result,omitempty"`
}

// GET /generate/ws
//
// Accepts one generation request frame, streams stage transitions while the
// same linear pipeline runs, then sends the terminal result and closes. No
// background processing: the pipeline runs on the connection's goroutine and
// is cancelled with it.
func (h *DocifyHandler) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	var req entity.GenerationRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsEvent{Type: "result", Result: generateResponse{
			Success: false,
			Error:   "bad request frame",
		}})
		return
	}

	result := h.docs.GenerateWithProgress(r.Context(), req, func(from, to entity.Stage) {
		_ = conn.WriteJSON(wsEvent{Type: "stage", From: string(from), To: string(to)})
	})

	if err := conn.WriteJSON(wsEvent{Type: "result", Result: resultEnvelope(result)}); err != nil {
		h.logger.Warn("failed to send terminal result", "err", err)
	}
}
