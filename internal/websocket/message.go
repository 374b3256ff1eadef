package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewSignalMessage encodes a lifecycle event notification for clients.
func NewSignalMessage(eventType string, payload interface{}) []byte {
	raw, _ := json.Marshal(Message{
		Action: "signal",
		Payload: map[string]interface{}{
			"type": eventType,
			"data": payload,
		},
	})
	return raw
}

// NewErrorMessage encodes an error notification for a single client.
func NewErrorMessage(msg string) []byte {
	raw, _ := json.Marshal(Message{Action: "error", Payload: msg})
	return raw
}
