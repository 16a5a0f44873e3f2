package ui

import (
	"path/filepath"
	"testing"
	"time"

	"pm/internal/db"
)

func TestMarkReviewed(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "pm.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	if err := markReviewed(database, at); err != nil {
		t.Fatal(err)
	}

	raw, err := database.GetSetting(db.SettingLastReview)
	if err != nil {
		t.Fatal(err)
	}
	got, err := time.Parse(time.RFC3339, raw)
	if err != nil || !got.Equal(at) {
		t.Errorf("stored %q, want %s", raw, at.Format(time.RFC3339))
	}

	later := at.Add(24 * time.Hour)
	if err := markReviewed(database, later); err != nil {
		t.Fatal(err)
	}
	raw, err = database.GetSetting(db.SettingLastReview)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := time.Parse(time.RFC3339, raw); !got.Equal(later) {
		t.Errorf("second review not stamped, got %q", raw)
	}
}
