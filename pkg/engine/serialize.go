package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"standardizer/pkg/form"
	"standardizer/pkg/parser"
)

// Snapshot is the JSON view of a session returned by the state API and the
// browser bindings. Dataset is null until a file parses successfully.
type Snapshot struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	LastSeen  time.Time             `json:"lastSeen"`
	FileName  string                `json:"fileName,omitempty"`
	SkipRows  int                   `json:"skipRows"`
	Summary   string                `json:"summary,omitempty"`
	Error     string                `json:"error,omitempty"`
	Dataset   *parser.Dataset       `json:"dataset"`
	Options   []form.Option         `json:"options,omitempty"`
	Form      *form.State           `json:"form"`
	Stale     []form.StaleSelection `json:"stale,omitempty"`
	Changes   ColumnChanges         `json:"columnChanges"`
}

// SerializeSnapshot converts a snapshot to JSON.
func SerializeSnapshot(snap *Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return string(data), nil
}

// DeserializeSnapshot reconstructs a snapshot from its JSON representation.
// Decoded geometries are not restored; the WKT geometry column still is.
func DeserializeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	if snap.Form == nil {
		snap.Form = form.New()
	}
	return &snap, nil
}
