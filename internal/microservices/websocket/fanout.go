package websocket

import (
	"log/slog"
	"sync/atomic"

	"journeyhub/internal/microservices/pubsub"
)

// Fanout reacts to broker channel messages: look the recipient up in the
// local registry and push the payload to every live handle. Fire-and-forget
// per handle - durability is already guaranteed by the publisher's persist
// step, so a failed write only delays visibility until the next
// reconciliation fetch.
type Fanout struct {
	registry *Registry
	logger   *slog.Logger

	// process-local observability, no cross-process aggregation
	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewFanout(registry *Registry, logger *slog.Logger) *Fanout {
	return &Fanout{
		registry: registry,
		logger:   logger,
	}
}

// HandleMessage processes one broker payload. Called strictly in receipt
// order by the subscriber loop; only the per-handle writes fan out.
func (f *Fanout) HandleMessage(payload []byte) {
	msg, err := pubsub.FanoutMessageFromJSON(payload)
	if err != nil {
		f.logger.Warn("Dropping malformed broker message", "error", err)
		return
	}

	handles := f.registry.HandlesFor(msg.RecipientID)
	if len(handles) == 0 {
		// Recipient not connected to this gateway; another process may
		// hold the connection, or the record waits for reconciliation.
		return
	}

	frame, err := NewNotificationEnvelope(&msg.Notification)
	if err != nil {
		f.logger.Error("Failed to encode notification frame", "error", err)
		return
	}

	for _, h := range handles {
		if err := h.Send(frame); err != nil {
			// The transport died between registration and write. Drop
			// this handle only; the recipient's other handles are
			// unaffected and no error surfaces to the producer.
			f.registry.Unregister(h)
			h.Close()
			f.dropped.Add(1)
			f.logger.Warn("Push failed, handle dropped",
				"notification_id", msg.Notification.ID,
				"recipient_id", msg.RecipientID,
				"error", err)
			continue
		}
		f.delivered.Add(1)
	}

	f.logger.Debug("Notification fanned out",
		"notification_id", msg.Notification.ID,
		"recipient_id", msg.RecipientID,
		"handles", len(handles),
		"total_delivered", f.delivered.Load())
}

// Delivered returns the running count of successful push attempts
func (f *Fanout) Delivered() int64 {
	return f.delivered.Load()
}

// Dropped returns the running count of handles removed on write failure
func (f *Fanout) Dropped() int64 {
	return f.dropped.Load()
}
