package db

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Tags, blocked-by sets and tech stacks are stored as JSON text columns.
// Marshaling happens only at this boundary; everything above works with
// typed slices.

func encodeStrings(vals []string) interface{} {
	if len(vals) == 0 {
		return nil
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(raw.String), &vals); err != nil {
		return nil
	}
	return vals
}

func encodeIDs(ids []int64) interface{} {
	if len(ids) == 0 {
		return nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeIDs(raw sql.NullString) []int64 {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return nil
	}
	return ids
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
