package handler

import (
	"log/slog"
	"net/http"

	"caseprep/internal/gateway"
	"caseprep/internal/handler/sse"
	"caseprep/internal/httputil"
)

// StreamHandler serves the live interview stream over SSE.
//
// Connecting replays the session's full transcript as events before any live
// traffic, so a dropped client can reconnect and rebuild its view from
// scratch. Live events then follow in order.
type StreamHandler struct {
	gateway *gateway.Gateway
	config  *sse.Config
	logger  *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(gw *gateway.Gateway, config *sse.Config, logger *slog.Logger) *StreamHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &StreamHandler{
		gateway: gw,
		config:  config,
		logger:  logger,
	}
}

// Stream opens the SSE stream for a session
// GET /api/sessions/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	// Resolve the session before committing to an event stream so auth and
	// not-found failures still produce normal HTTP errors.
	session, turns, err := h.gateway.Connect(r.Context(), sessionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	// Subscribe before replay so no live event published during the replay
	// window is lost. Duplicates are possible at the seam; clients render
	// turns idempotently by position.
	events, unsubscribe := h.gateway.Subscribe(sessionID)
	defer unsubscribe()

	writer, err := sse.NewWriter(w, sessionID)
	if err != nil {
		h.logger.Error("sse not supported", "session_id", sessionID, "error", err)
		return
	}

	for _, t := range turns {
		err := writer.WriteEvent("turn", gateway.Event{
			Type:      gateway.EventTurn,
			Role:      t.Role,
			Text:      t.Content,
			Phase:     session.Phase,
			Completed: session.Completed(),
		})
		if err != nil {
			h.logger.Debug("client disconnected during replay", "session_id", sessionID)
			return
		}
	}

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	kaStopped := keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	h.logger.Info("stream opened", "session_id", sessionID, "replayed_turns", len(turns))

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("stream closed by client", "session_id", sessionID)
			return

		case <-kaStopped:
			// Keep-alive detected a dead connection.
			return

		case event, open := <-events:
			if !open {
				return
			}
			if err := writer.WriteEvent(string(event.Type), event); err != nil {
				h.logger.Debug("stream write failed", "session_id", sessionID, "error", err)
				return
			}
		}
	}
}

// SubmitMessage submits a candidate message through the gateway so that the
// reply is also broadcast to every open stream for the session
// POST /api/sessions/{id}/messages
func (h *StreamHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	var req messageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.gateway.Submit(r.Context(), sessionID, userID, req.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reply)
}
