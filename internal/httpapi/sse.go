package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/titrolabs/srt-batch-translator/internal/notify"
)

// sseSubscriber bridges registry events into the streaming response. Send
// never blocks the publisher; when the buffer is full the event is dropped
// and the client reconciles through the next status poll.
type sseSubscriber struct {
	events chan notify.Event
}

func newSSESubscriber() *sseSubscriber {
	return &sseSubscriber{events: make(chan notify.Event, 16)}
}

func (s *sseSubscriber) Send(event notify.Event) {
	select {
	case s.events <- event:
	default:
	}
}

func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request, batchID string) {
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "missing batch id")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(name string, payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// Seed the stream with a full snapshot so the client starts consistent
	// regardless of which events it missed before connecting.
	report, err := s.status.BatchStatus(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !send("status", report) {
		return
	}

	sub := newSSESubscriber()
	s.registry.Register(batchID, sub)
	defer s.registry.Unregister(batchID, sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-sub.events:
			if !send(string(event.Type), event) {
				return
			}
		}
	}
}
