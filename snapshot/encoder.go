package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSnapshotCorrupt is returned when a stored snapshot cannot be decoded.
var ErrSnapshotCorrupt = errors.New("snapshot corrupt")

// ErrSchemaVersion is returned when a stored snapshot carries an unsupported
// schema version.
var ErrSchemaVersion = errors.New("unsupported snapshot schema version")

// Encode serializes a snapshot, stamping the current schema version.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, ErrSnapshotCorrupt
	}
	out := s.Clone()
	out.SchemaVersion = CurrentSchemaVersion
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return data, nil
}

// Decode parses a snapshot previously produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if s.SchemaVersion < 1 || s.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, s.SchemaVersion)
	}
	if s.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrSnapshotCorrupt)
	}
	return &s, nil
}
