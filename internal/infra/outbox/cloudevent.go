package outbox

import (
	"encoding/json"
	"time"
)

// CloudEvent is the structured-mode envelope written to the broker.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

func DecodeCloudEvent(payload []byte) (CloudEvent, error) {
	var evt CloudEvent
	err := json.Unmarshal(payload, &evt)
	return evt, err
}
