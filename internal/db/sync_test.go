package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pm/internal/models"
)

func TestInsertCommitDuplicate(t *testing.T) {
	database := testDB(t)
	p := testProject(t, database, "api")

	c := models.Commit{
		ProjectID:   p.ID,
		SHA:         "abc1234def",
		Message:     "initial",
		Author:      "dev <dev@example.com>",
		CommittedAt: time.Now().UTC(),
	}
	if _, err := database.InsertCommit(&c); err != nil {
		t.Fatal(err)
	}
	if _, err := database.InsertCommit(&c); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	shas, err := database.ExistingSHAs(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !shas["abc1234def"] {
		t.Error("ExistingSHAs missing inserted commit")
	}
}

func TestRecentCommits(t *testing.T) {
	database := testDB(t)
	p := testProject(t, database, "api")

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		c := models.Commit{
			ProjectID:   p.ID,
			SHA:         fmt.Sprintf("sha%d", i),
			Message:     fmt.Sprintf("change %d", i),
			Author:      "dev <dev@example.com>",
			CommittedAt: base.AddDate(0, 0, -i),
		}
		if _, err := database.InsertCommit(&c); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := database.RecentCommits(p.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d commits, want 2", len(recent))
	}
	if recent[0].SHA != "sha0" || recent[1].SHA != "sha1" {
		t.Errorf("order = %s, %s, want newest first", recent[0].SHA, recent[1].SHA)
	}
}

func TestApplyCommits(t *testing.T) {
	database := testDB(t)
	p := testProject(t, database, "api")
	todo := testTodo(t, database, p.ID, "fix login")
	done := testTodo(t, database, p.ID, "old work")
	if err := database.CompleteTodo(done.ID); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	commits := []models.Commit{
		{
			SHA:         "aaaa111bbbb",
			Message:     fmt.Sprintf("fixes #%d", todo.ID),
			Author:      "dev <dev@example.com>",
			CommittedAt: now,
			TodoIDs:     []int64{todo.ID, 9999},
		},
	}
	completions := map[int64]time.Time{
		todo.ID: now,
		done.ID: now, // already completed, must not count again
	}

	added, completed, err := database.ApplyCommits(p.ID, commits, completions)
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}

	got, err := database.GetTodo(todo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" {
		t.Errorf("status = %q, want completed", got.Status)
	}
	found := false
	for _, tag := range got.Tags {
		if tag == "commit:aaaa111" {
			found = true
		}
	}
	if !found {
		t.Errorf("tags = %v, want commit:aaaa111", got.Tags)
	}

	project, err := database.GetProject(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if project.LastActivityAt == nil {
		t.Error("last_activity_at not advanced")
	}
}

func TestApplyCommitsRollsBackOnDuplicate(t *testing.T) {
	database := testDB(t)
	p := testProject(t, database, "api")

	now := time.Now().UTC()
	first := []models.Commit{{SHA: "dupe111", Author: "dev", CommittedAt: now}}
	if _, _, err := database.ApplyCommits(p.ID, first, nil); err != nil {
		t.Fatal(err)
	}

	batch := []models.Commit{
		{SHA: "fresh222", Author: "dev", CommittedAt: now},
		{SHA: "dupe111", Author: "dev", CommittedAt: now},
	}
	if _, _, err := database.ApplyCommits(p.ID, batch, nil); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	shas, err := database.ExistingSHAs(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if shas["fresh222"] {
		t.Error("partial batch survived rollback")
	}
}

func TestMetricsUniquePerDay(t *testing.T) {
	database := testDB(t)
	p := testProject(t, database, "api")
	day := models.DateOnly(time.Now().UTC())

	m := models.Metric{ProjectID: p.ID, Type: "velocity", Value: 1.5, RecordedAt: day}
	if err := database.InsertMetric(&m); err != nil {
		t.Fatal(err)
	}
	if err := database.InsertMetric(&m); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	has, err := database.HasMetricsForDay(p.ID, day)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("HasMetricsForDay = false after insert")
	}

	history, err := database.MetricHistory(p.ID, "velocity", 7, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Value != 1.5 {
		t.Errorf("history = %+v, want one velocity row", history)
	}
}
