package metrics

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"pm/internal/db"
	"pm/internal/models"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func testCalculator(t *testing.T) (*Calculator, *db.DB) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "pm.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	calc := New(database)
	calc.now = func() time.Time { return testNow }
	return calc, database
}

func testProject(t *testing.T, database *db.DB, name string) *models.Project {
	t.Helper()
	p, err := database.CreateProject(&models.Project{Name: name, Path: "/tmp/" + name})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// completeTodoAt creates a completed todo with a fixed completion time
func completeTodoAt(t *testing.T, database *db.DB, projectID int64, title string, at time.Time) {
	t.Helper()
	todo, err := database.CreateTodo(&models.Todo{ProjectID: projectID, Title: title})
	if err != nil {
		t.Fatal(err)
	}
	_, err = database.Exec(`UPDATE todos SET status = 'completed', completed_at = ? WHERE id = ?`, at, todo.ID)
	if err != nil {
		t.Fatal(err)
	}
}

func TestVelocity(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	for i := 0; i < 3; i++ {
		completeTodoAt(t, database, p.ID, "recent", testNow.AddDate(0, 0, -i-1))
	}
	completeTodoAt(t, database, p.ID, "ancient", testNow.AddDate(0, 0, -20))

	v, err := calc.Velocity(p.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	want := 3.0 / 7.0
	if math.Abs(v-want) > 0.001 {
		t.Errorf("velocity = %f, want %f", v, want)
	}

	v, err = calc.Velocity(p.ID, 0)
	if err != nil || v != 0 {
		t.Errorf("velocity with zero window = %f, %v, want 0", v, err)
	}
}

func TestCompletionRate(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "empty")

	rate, err := calc.CompletionRate(p.ID)
	if err != nil || rate != 0 {
		t.Errorf("rate for empty project = %f, %v, want 0", rate, err)
	}

	busy := testProject(t, database, "busy")
	for i := 0; i < 3; i++ {
		completeTodoAt(t, database, busy.ID, "done", testNow.AddDate(0, 0, -1))
	}
	for _, title := range []string{"a", "b"} {
		if _, err := database.CreateTodo(&models.Todo{ProjectID: busy.ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	rate, err = calc.CompletionRate(busy.ID)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rate-60.0) > 0.001 {
		t.Errorf("rate = %f, want 60.0", rate)
	}
}

func TestHealthScoreBounds(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	score, label, err := calc.HealthScore(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0 || score > 100 {
		t.Errorf("score = %f, out of range", score)
	}
	if label == "" {
		t.Error("empty label")
	}

	// Empty project: no overdue (20) + no blocked (15) = 35
	if score != 35 {
		t.Errorf("score for empty project = %f, want 35", score)
	}
}

func TestHealthScorePenalties(t *testing.T) {
	calc, database := testCalculator(t)

	healthy := testProject(t, database, "healthy")
	for i := 0; i < 3; i++ {
		completeTodoAt(t, database, healthy.ID, "done", testNow.AddDate(0, 0, -1))
	}
	healthyScore, _, err := calc.HealthScore(healthy.ID)
	if err != nil {
		t.Fatal(err)
	}

	troubled := testProject(t, database, "troubled")
	for i := 0; i < 3; i++ {
		completeTodoAt(t, database, troubled.ID, "done", testNow.AddDate(0, 0, -1))
	}
	past := testNow.AddDate(0, 0, -5)
	for _, title := range []string{"late1", "late2", "late3"} {
		if _, err := database.CreateTodo(&models.Todo{ProjectID: troubled.ID, Title: title, DueDate: &past}); err != nil {
			t.Fatal(err)
		}
	}
	stuck, err := database.CreateTodo(&models.Todo{ProjectID: troubled.ID, Title: "stuck"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := database.CreateTodo(&models.Todo{ProjectID: troubled.ID, Title: "other"})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.BlockTodo(stuck.ID, other.ID); err != nil {
		t.Fatal(err)
	}

	troubledScore, _, err := calc.HealthScore(troubled.ID)
	if err != nil {
		t.Fatal(err)
	}
	if troubledScore >= healthyScore {
		t.Errorf("troubled = %f, healthy = %f, want troubled lower", troubledScore, healthyScore)
	}
}

func TestHealthLabels(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "Excellent"},
		{80, "Excellent"},
		{60, "Good"},
		{40, "Fair"},
		{20, "Needs Attention"},
		{5, "Critical"},
	}
	for _, tt := range tests {
		if got := healthLabel(tt.score); got != tt.want {
			t.Errorf("healthLabel(%f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestBreakdownsZeroFilled(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")
	if _, err := database.CreateTodo(&models.Todo{ProjectID: p.ID, Title: "one"}); err != nil {
		t.Fatal(err)
	}

	todos, err := calc.TodoBreakdown(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != len(models.TodoStatuses) {
		t.Errorf("breakdown has %d statuses, want %d", len(todos), len(models.TodoStatuses))
	}
	if todos["open"] != 1 || todos["blocked"] != 0 {
		t.Errorf("breakdown = %v", todos)
	}

	goals, err := calc.GoalBreakdown(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range models.GoalStatuses {
		if _, ok := goals[s]; !ok {
			t.Errorf("goal breakdown missing %q", s)
		}
	}
}

func TestVelocityTrend(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	// Two completions in each of the four trailing weeks
	for week := 0; week < 4; week++ {
		for i := 0; i < 2; i++ {
			at := testNow.AddDate(0, 0, -week*7-2)
			completeTodoAt(t, database, p.ID, "w", at)
		}
	}

	trend, err := calc.VelocityTrend(p.ID, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(trend) != 4 {
		t.Fatalf("trend has %d weeks, want 4", len(trend))
	}
	for i, w := range trend {
		if w.TodosCompleted != 2 {
			t.Errorf("week %d completed = %d, want 2", i, w.TodosCompleted)
		}
		if math.Abs(w.Velocity-2.0/7.0) > 0.001 {
			t.Errorf("week %d velocity = %f, want %f", i, w.Velocity, 2.0/7.0)
		}
		if !w.WeekEnd.Equal(w.WeekStart.AddDate(0, 0, 7)) {
			t.Errorf("week %d is not seven days", i)
		}
	}
	if !trend[0].WeekStart.Before(trend[3].WeekStart) {
		t.Error("trend not oldest-first")
	}
}

func TestGoalBurnDown(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	target := testNow.AddDate(0, 0, 30)
	goal, err := database.CreateGoal(&models.Goal{ProjectID: p.ID, Title: "v1", TargetDate: &target})
	if err != nil {
		t.Fatal(err)
	}
	// Pin the goal's age so the schedule math is deterministic
	if _, err := database.Exec(`UPDATE goals SET created_at = ? WHERE id = ?`,
		testNow.AddDate(0, 0, -10), goal.ID); err != nil {
		t.Fatal(err)
	}
	goal, err = database.GetGoal(goal.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		todo, err := database.CreateTodo(&models.Todo{ProjectID: p.ID, GoalID: &goal.ID, Title: "done"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := database.Exec(`UPDATE todos SET status = 'completed', completed_at = ? WHERE id = ?`,
			testNow.AddDate(0, 0, -1), todo.ID); err != nil {
			t.Fatal(err)
		}
	}
	for _, title := range []string{"a", "b"} {
		if _, err := database.CreateTodo(&models.Todo{ProjectID: p.ID, GoalID: &goal.ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	bd, err := calc.GoalBurnDown(goal)
	if err != nil {
		t.Fatal(err)
	}
	if bd.TotalTodos != 5 || bd.CompletedTodos != 3 || bd.RemainingTodos != 2 {
		t.Errorf("burn-down = %d/%d/%d, want 5/3/2", bd.TotalTodos, bd.CompletedTodos, bd.RemainingTodos)
	}
	if math.Abs(bd.Progress-60.0) > 0.001 {
		t.Errorf("progress = %f, want 60.0", bd.Progress)
	}
	if bd.DaysRemaining == nil || *bd.DaysRemaining != 30 {
		t.Errorf("days remaining = %v, want 30", bd.DaysRemaining)
	}
	if bd.EstimatedCompletion == nil {
		t.Error("expected completion estimate with nonzero velocity")
	}
	if bd.OnTrack == nil || !*bd.OnTrack {
		t.Errorf("on track = %v, want true", bd.OnTrack)
	}
}

func TestGoalBurnDownNoTarget(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")
	goal, err := database.CreateGoal(&models.Goal{ProjectID: p.ID, Title: "open-ended"})
	if err != nil {
		t.Fatal(err)
	}

	bd, err := calc.GoalBurnDown(goal)
	if err != nil {
		t.Fatal(err)
	}
	if bd.OnTrack != nil {
		t.Errorf("on track = %v, want nil without target date", *bd.OnTrack)
	}
	if bd.DaysRemaining != nil {
		t.Error("days remaining should be nil without target date")
	}
}

func TestDailySnapshotIdempotent(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	recorded, err := calc.DailySnapshot(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Fatal("first snapshot not recorded")
	}

	recorded, err = calc.DailySnapshot(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if recorded {
		t.Error("second snapshot on the same day should be a no-op")
	}

	history, err := calc.MetricHistory(p.ID, MetricHealthScore, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("history has %d health rows, want 1", len(history))
	}
}

func TestMetricHistoryWindow(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	rows := []models.Metric{
		{ProjectID: p.ID, Type: MetricVelocity, Value: 1.0, RecordedAt: testNow.AddDate(0, 0, -10)},
		{ProjectID: p.ID, Type: MetricVelocity, Value: 2.0, RecordedAt: testNow.AddDate(0, 0, -2)},
	}
	for i := range rows {
		if err := database.InsertMetric(&rows[i]); err != nil {
			t.Fatal(err)
		}
	}

	history, err := calc.MetricHistory(p.ID, MetricVelocity, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Value != 2.0 {
		t.Errorf("history = %+v, want only the row inside the window", history)
	}
}

func TestStatsAndTimeline(t *testing.T) {
	calc, database := testCalculator(t)
	p := testProject(t, database, "api")

	commits := []models.Commit{
		{ProjectID: p.ID, SHA: "c1", Author: "ann <ann@x>", CommittedAt: testNow.AddDate(0, 0, -1), FilesChanged: 2, Insertions: 10, Deletions: 4},
		{ProjectID: p.ID, SHA: "c2", Author: "ann <ann@x>", CommittedAt: testNow.AddDate(0, 0, -1), FilesChanged: 1, Insertions: 6, Deletions: 0},
		{ProjectID: p.ID, SHA: "c3", Author: "bob <bob@x>", CommittedAt: testNow.AddDate(0, 0, -3), FilesChanged: 3, Insertions: 20, Deletions: 8},
	}
	for i := range commits {
		if _, err := database.InsertCommit(&commits[i]); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := calc.Stats(p.ID, testNow.AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCommits != 3 || stats.UniqueAuthors != 2 {
		t.Errorf("stats = %d commits, %d authors, want 3, 2", stats.TotalCommits, stats.UniqueAuthors)
	}
	if stats.TotalInsertions != 36 || stats.TotalDeletions != 12 {
		t.Errorf("stats churn = +%d -%d, want +36 -12", stats.TotalInsertions, stats.TotalDeletions)
	}

	timeline, err := calc.ActivityTimeline(p.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(timeline) != 2 {
		t.Fatalf("timeline has %d days, want 2 (empty days omitted)", len(timeline))
	}
	if timeline[0].Date.After(timeline[1].Date) {
		t.Error("timeline not in chronological order")
	}
}
