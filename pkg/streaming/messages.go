package streaming

import (
	"encoding/json"
	"fmt"
)

// Message type constants of the marker streaming protocol.
const (
	TypeMarkerAdd    = "marker_add"
	TypeMarkerMove   = "marker_move"
	TypeMarkerRemove = "marker_remove"
	TypeStatus       = "status"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarkerAddPayload announces a new marker and the image it displays.
type MarkerAddPayload struct {
	ID    string `json:"id"`
	Asset string `json:"asset"`
}

// MarkerMovePayload carries the horizontal offset of a marker. Transform is the
// CSS value the browser applies as is.
type MarkerMovePayload struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Transform string  `json:"transform"`
}

// MarkerRemovePayload detaches a marker.
type MarkerRemovePayload struct {
	ID string `json:"id"`
}

// StatusPayload replaces the status text.
type StatusPayload struct {
	Text string `json:"text"`
}

// TranslateX formats x as a CSS horizontal translation.
func TranslateX(x float64) string {
	return fmt.Sprintf("translateX(%gpx)", x)
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
