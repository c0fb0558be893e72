package repository

import (
	"encoding/json"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

func encodeEvent(evt ports.CareEvent) ([]byte, error) {
	evt.OccurredAt = occurredAt(evt)
	return json.Marshal(evt)
}

// DecodeEvent parses an outbox payload written by ApplyChange.
func DecodeEvent(payload []byte) (ports.CareEvent, error) {
	var evt ports.CareEvent
	err := json.Unmarshal(payload, &evt)
	return evt, err
}
