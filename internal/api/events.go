package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/gridlight/internal/events"
)

// registerSSERoutes streams status and indicator events as they are published.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of poll results and indicator transitions",
		Tags:        []string{"events"},
	}, map[string]any{
		"status-updated":    events.StatusUpdatedEvent{},
		"indicator-changed": events.IndicatorChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.StatusUpdatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.IndicatorChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Current state first so clients need not wait a full poll
		snapshot := s.tracker.snapshot()
		if err := send.Data(events.IndicatorChangedEvent{
			State:       snapshot.Indicator,
			Description: snapshot.Description,
			Timestamp:   snapshot.LastUpdate,
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
