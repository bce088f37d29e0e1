package card_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-fidelity/internal/session"
)

// CardEvents streams card_added events to the signed-in viewer's pages.
func (h *Handler) CardEvents(w http.ResponseWriter, r *http.Request) {
	state := session.FromContext(r.Context())
	if !state.Authenticated() {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// streams outlive the server write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("SSE", "could not clear write deadline: "+err.Error())
	}
	setupSSEHeaders(w)

	ctx := r.Context()
	viewerID := state.ViewerID()
	eventChan := h.Events.Subscribe(ctx, viewerID)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Debug("SSE", "client connected for viewer "+viewerID)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", "failed to serialize card event: "+err.Error())
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "client disconnected for viewer "+viewerID)
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
