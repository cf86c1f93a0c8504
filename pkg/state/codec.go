package state

import (
	"encoding/json"
	"fmt"
)

// envelope is the on-disk form shared by the file and pebble backends.
type envelope struct {
	Meta     Meta            `json:"meta"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func encodeEnvelope[T any](snapshot T, meta Meta) ([]byte, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("state: encode snapshot: %w", err)
	}
	out, err := json.MarshalIndent(envelope{Meta: meta, Snapshot: raw}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("state: encode envelope: %w", err)
	}
	return out, nil
}

func decodeEnvelope[T any](data []byte) (T, Meta, error) {
	var zero T
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, Meta{}, fmt.Errorf("state: decode envelope: %w", err)
	}
	var snapshot T
	if len(env.Snapshot) > 0 {
		if err := json.Unmarshal(env.Snapshot, &snapshot); err != nil {
			return zero, Meta{}, fmt.Errorf("state: decode snapshot: %w", err)
		}
	}
	return snapshot, env.Meta, nil
}
