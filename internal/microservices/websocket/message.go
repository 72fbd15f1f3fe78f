package websocket

import (
	"encoding/json"

	"journeyhub/internal/microservices/http-api/models"
)

// Wire protocol on the client-gateway transport

type MessageType string

const (
	// TypeIdentify is sent by the client once after connecting; it claims
	// the user identity the connection should receive pushes for.
	TypeIdentify MessageType = "identify"
	// TypeNotification is pushed by the gateway, at most once per handle
	// per live notification.
	TypeNotification MessageType = "notification"
)

// Envelope wraps every message on the transport
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IdentifyPayload carries the opaque user identifier
type IdentifyPayload struct {
	UserID string `json:"user_id"`
}

// NewNotificationEnvelope builds the push frame for a notification.
// The record carries recipient_id so clients can filter/debug.
func NewNotificationEnvelope(n *models.Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type: TypeNotification,
		Data: data,
	})
}

// EnvelopeFromJSON parses an inbound client frame
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
