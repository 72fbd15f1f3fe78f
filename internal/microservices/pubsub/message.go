package pubsub

import (
	"encoding/json"

	"journeyhub/internal/microservices/http-api/models"
)

// FanoutMessage is the wire format carried on the broker channel.
// It exists only between publish and the last subscriber's receipt;
// the notification record is the durable fallback.
type FanoutMessage struct {
	RecipientID  string              `json:"recipient_id"`
	Notification models.Notification `json:"notification"`
}

// ToJSON converts the message to JSON bytes
func (m *FanoutMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FanoutMessageFromJSON parses a broker payload
func FanoutMessageFromJSON(data []byte) (*FanoutMessage, error) {
	var msg FanoutMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
