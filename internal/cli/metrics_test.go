package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pm/internal/db"
	"pm/internal/models"
)

func TestStatusAllShowsLastReview(t *testing.T) {
	app := testApp(t)
	var buf bytes.Buffer
	app.Out = &buf

	if _, err := app.DB.CreateProject(&models.Project{Name: "api", Path: "/tmp/api"}); err != nil {
		t.Fatal(err)
	}
	at := time.Now().UTC().Add(-48 * time.Hour)
	if err := app.DB.SetSetting(db.SettingLastReview, at.Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}

	if err := app.statusAll(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Last review: 2d ago") {
		t.Errorf("output missing last review line:\n%s", buf.String())
	}
}

func TestStatusAllWithoutReviewStamp(t *testing.T) {
	app := testApp(t)
	var buf bytes.Buffer
	app.Out = &buf

	if _, err := app.DB.CreateProject(&models.Project{Name: "api", Path: "/tmp/api"}); err != nil {
		t.Fatal(err)
	}
	if err := app.statusAll(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Last review") {
		t.Errorf("unexpected last review line:\n%s", buf.String())
	}
}
