package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pm/internal/models"
)

func TestPrintStatsListsRecentCommits(t *testing.T) {
	app := testApp(t)
	var buf bytes.Buffer
	app.Out = &buf

	p, err := app.DB.CreateProject(&models.Project{Name: "api", Path: "/tmp/api"})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	commits := []models.Commit{
		{ProjectID: p.ID, SHA: "aaa1111bbb", Message: "fix login\n\nlonger body", Author: "dev <dev@example.com>", CommittedAt: now.Add(-1 * time.Hour), FilesChanged: 1, Insertions: 3, Deletions: 1},
		{ProjectID: p.ID, SHA: "ccc2222ddd", Message: "add cache", Author: "dev <dev@example.com>", CommittedAt: now.Add(-2 * time.Hour), FilesChanged: 2, Insertions: 8, Deletions: 2},
	}
	for i := range commits {
		if _, err := app.DB.InsertCommit(&commits[i]); err != nil {
			t.Fatal(err)
		}
	}

	if err := app.printStats(p.ID, "api"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "Recent commits") {
		t.Fatalf("output missing recent commits section:\n%s", out)
	}
	if !strings.Contains(out, "aaa1111") || !strings.Contains(out, "fix login") {
		t.Errorf("output missing shortened sha or subject:\n%s", out)
	}
	if strings.Contains(out, "longer body") {
		t.Errorf("commit body leaked into listing:\n%s", out)
	}
	if strings.Index(out, "aaa1111") > strings.Index(out, "ccc2222") {
		t.Errorf("commits not newest first:\n%s", out)
	}
}
