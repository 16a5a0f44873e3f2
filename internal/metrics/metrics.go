// Package metrics computes aggregate analytics over a project's todos,
// goals and commits. All reads return zero values for missing data; the
// only persistence is the daily snapshot.
package metrics

import (
	"math"
	"time"

	"pm/internal/db"
	"pm/internal/models"
)

// Health status labels by score threshold.
const (
	healthExcellent = 80
	healthGood      = 60
	healthFair      = 40
	healthWarning   = 20
)

// WeekVelocity is one entry of a velocity trend series.
type WeekVelocity struct {
	WeekStart      time.Time
	WeekEnd        time.Time
	Velocity       float64
	TodosCompleted int
}

// BurnDown summarizes progress toward a goal's todo set.
type BurnDown struct {
	TotalTodos          int
	CompletedTodos      int
	RemainingTodos      int
	Progress            float64
	DaysRemaining       *int
	EstimatedCompletion *time.Time
	OnTrack             *bool // nil when no target date or no todos
}

// CommitStats aggregates commit counters for a project.
type CommitStats struct {
	TotalCommits      int
	TotalInsertions   int
	TotalDeletions    int
	TotalFilesChanged int
	UniqueAuthors     int
	AvgInsertions     float64
	AvgDeletions      float64
	AvgFiles          float64
}

// DayActivity is one day of commit activity.
type DayActivity struct {
	Date       time.Time
	Commits    int
	Insertions int
	Deletions  int
}

// Calculator computes project metrics from the store.
type Calculator struct {
	db  *db.DB
	now func() time.Time
}

// New creates a metrics calculator.
func New(database *db.DB) *Calculator {
	return &Calculator{db: database, now: func() time.Time { return time.Now().UTC() }}
}

// Velocity returns todos completed per day over the trailing window.
func (c *Calculator) Velocity(projectID int64, windowDays int) (float64, error) {
	if windowDays <= 0 {
		return 0, nil
	}
	cutoff := c.now().AddDate(0, 0, -windowDays)
	completed, err := c.db.CountCompletedSince(projectID, cutoff)
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(windowDays), nil
}

// CompletionRate returns the percentage of todos completed, 0 for an
// empty project.
func (c *Calculator) CompletionRate(projectID int64) (float64, error) {
	total, err := c.db.CountTodos(projectID)
	if err != nil || total == 0 {
		return 0, err
	}
	counts, err := c.db.CountTodosByStatus(projectID)
	if err != nil {
		return 0, err
	}
	return float64(counts["completed"]) / float64(total) * 100, nil
}

// HealthScore returns a composite 0-100 health score and its status label.
//
// Five weighted checks: recent activity (30), completion rate (25), no
// overdue todos (20), no blocked todos (15), goal progress (10).
func (c *Calculator) HealthScore(projectID int64) (float64, string, error) {
	score := 0.0
	now := c.now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	// 1. Recent activity (30 points)
	recentCommits, err := c.db.CountCommitsSince(projectID, weekAgo)
	if err != nil {
		return 0, "", err
	}
	recentTodos, err := c.db.CountCompletedSince(projectID, weekAgo)
	if err != nil {
		return 0, "", err
	}
	project, err := c.db.GetProject(projectID)
	if err != nil {
		return 0, "", err
	}

	switch {
	case recentCommits >= 5 || recentTodos >= 3:
		score += 30
	case recentCommits > 0 || recentTodos > 0:
		score += 20
	case project.LastActivityAt != nil && !project.LastActivityAt.Before(monthAgo):
		score += 10
	}

	// 2. Completion rate (25 points)
	rate, err := c.CompletionRate(projectID)
	if err != nil {
		return 0, "", err
	}
	score += rate / 100 * 25

	// 3. No overdue todos (20 points)
	overdue, err := c.db.OverdueTodos(projectID, now)
	if err != nil {
		return 0, "", err
	}
	switch {
	case len(overdue) == 0:
		score += 20
	case len(overdue) <= 2:
		score += 10
	}

	// 4. No blocked todos (15 points)
	counts, err := c.db.CountTodosByStatus(projectID)
	if err != nil {
		return 0, "", err
	}
	switch {
	case counts["blocked"] == 0:
		score += 15
	case counts["blocked"] <= 1:
		score += 8
	}

	// 5. Goal progress (10 points): at least one active goal with a
	// completed todo of its own
	goals, err := c.db.ListGoals(&projectID, "active", 0)
	if err != nil {
		return 0, "", err
	}
	for i := range goals {
		todos, err := c.db.ListTodos(db.TodoFilter{GoalID: &goals[i].ID})
		if err != nil {
			return 0, "", err
		}
		done := 0
		for j := range todos {
			if todos[j].Status == "completed" {
				done++
			}
		}
		if len(todos) > 0 && done > 0 {
			score += 10
			break
		}
	}

	score = math.Round(score*10) / 10
	return score, healthLabel(score), nil
}

func healthLabel(score float64) string {
	switch {
	case score >= healthExcellent:
		return "Excellent"
	case score >= healthGood:
		return "Good"
	case score >= healthFair:
		return "Fair"
	case score >= healthWarning:
		return "Needs Attention"
	default:
		return "Critical"
	}
}

// TodoBreakdown returns todo counts for every todo status, zero-filled.
func (c *Calculator) TodoBreakdown(projectID int64) (map[string]int, error) {
	counts, err := c.db.CountTodosByStatus(projectID)
	if err != nil {
		return nil, err
	}
	breakdown := make(map[string]int, len(models.TodoStatuses))
	for _, s := range models.TodoStatuses {
		breakdown[s] = counts[s]
	}
	return breakdown, nil
}

// GoalBreakdown returns goal counts for every goal status, zero-filled.
func (c *Calculator) GoalBreakdown(projectID int64) (map[string]int, error) {
	counts, err := c.db.CountGoalsByStatus(projectID)
	if err != nil {
		return nil, err
	}
	breakdown := make(map[string]int, len(models.GoalStatuses))
	for _, s := range models.GoalStatuses {
		breakdown[s] = counts[s]
	}
	return breakdown, nil
}

// OverdueTodos returns open/in-progress todos past their due date.
func (c *Calculator) OverdueTodos(projectID int64) ([]models.Todo, error) {
	return c.db.OverdueTodos(projectID, c.now())
}

// UpcomingDeadlines returns open/in-progress todos due within the window.
func (c *Calculator) UpcomingDeadlines(projectID int64, windowDays int) ([]models.Todo, error) {
	return c.db.UpcomingTodos(projectID, c.now(), windowDays)
}

// VelocityTrend returns per-week completion counts for the trailing
// weeks, oldest week first.
func (c *Calculator) VelocityTrend(projectID int64, weeks int) ([]WeekVelocity, error) {
	today := models.DateOnly(c.now())

	trend := make([]WeekVelocity, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		weekEnd := today.AddDate(0, 0, -i*7)
		weekStart := weekEnd.AddDate(0, 0, -7)

		count, err := c.db.CountCompletedBetween(projectID, weekStart, weekEnd)
		if err != nil {
			return nil, err
		}
		trend = append(trend, WeekVelocity{
			WeekStart:      weekStart,
			WeekEnd:        weekEnd,
			Velocity:       float64(count) / 7,
			TodosCompleted: count,
		})
	}
	return trend, nil
}

// GoalBurnDown computes burn-down figures for one goal.
func (c *Calculator) GoalBurnDown(goal *models.Goal) (*BurnDown, error) {
	todos, err := c.db.ListTodos(db.TodoFilter{GoalID: &goal.ID})
	if err != nil {
		return nil, err
	}

	bd := &BurnDown{TotalTodos: len(todos)}
	for i := range todos {
		if todos[i].Status == "completed" {
			bd.CompletedTodos++
		}
	}
	bd.RemainingTodos = bd.TotalTodos - bd.CompletedTodos
	if bd.TotalTodos > 0 {
		bd.Progress = math.Round(float64(bd.CompletedTodos)/float64(bd.TotalTodos)*1000) / 10
	}

	today := models.DateOnly(c.now())
	if goal.TargetDate != nil {
		days := int(models.DateOnly(*goal.TargetDate).Sub(today).Hours() / 24)
		bd.DaysRemaining = &days
	}

	// Projection from the project's trailing 14-day velocity
	if bd.RemainingTodos > 0 {
		velocity, err := c.Velocity(goal.ProjectID, 14)
		if err != nil {
			return nil, err
		}
		if velocity > 0 {
			daysNeeded := float64(bd.RemainingTodos) / velocity
			est := today.AddDate(0, 0, int(math.Ceil(daysNeeded)))
			bd.EstimatedCompletion = &est
		}
	}

	bd.OnTrack = c.onTrack(goal, bd.CompletedTodos, bd.TotalTodos)
	return bd, nil
}

// onTrack compares actual completion fraction against the elapsed share of
// the goal's schedule; nil when there is no target date or no todos
func (c *Calculator) onTrack(goal *models.Goal, completed, total int) *bool {
	if goal.TargetDate == nil || total == 0 {
		return nil
	}

	today := models.DateOnly(c.now())
	target := models.DateOnly(*goal.TargetDate)
	if target.Before(today) {
		f := false
		return &f
	}

	created := models.DateOnly(goal.CreatedAt)
	totalDays := target.Sub(created).Hours() / 24
	if totalDays <= 0 {
		return nil
	}
	elapsedDays := today.Sub(created).Hours() / 24

	expected := elapsedDays / totalDays
	actual := float64(completed) / float64(total)
	ok := actual >= expected*0.9
	return &ok
}

// Snapshot metric type names.
const (
	MetricVelocity       = "velocity"
	MetricCompletionRate = "completion_rate"
	MetricHealthScore    = "health_score"
	MetricTodosOpen      = "todos_open"
	MetricTodosCompleted = "todos_completed"
)

// DailySnapshot persists today's metric rows for a project. It is
// idempotent per calendar day: once rows exist for today, it reports
// false and writes nothing.
func (c *Calculator) DailySnapshot(projectID int64) (bool, error) {
	today := models.DateOnly(c.now())

	exists, err := c.db.HasMetricsForDay(projectID, today)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	velocity, err := c.Velocity(projectID, 7)
	if err != nil {
		return false, err
	}
	rate, err := c.CompletionRate(projectID)
	if err != nil {
		return false, err
	}
	health, _, err := c.HealthScore(projectID)
	if err != nil {
		return false, err
	}
	breakdown, err := c.TodoBreakdown(projectID)
	if err != nil {
		return false, err
	}

	snapshots := []models.Metric{
		{ProjectID: projectID, Type: MetricVelocity, Value: velocity, RecordedAt: today},
		{ProjectID: projectID, Type: MetricCompletionRate, Value: rate, RecordedAt: today},
		{ProjectID: projectID, Type: MetricHealthScore, Value: health, RecordedAt: today},
		{ProjectID: projectID, Type: MetricTodosOpen, Value: float64(breakdown["open"]), RecordedAt: today},
		{ProjectID: projectID, Type: MetricTodosCompleted, Value: float64(breakdown["completed"]), RecordedAt: today},
	}
	for i := range snapshots {
		if err := c.db.InsertMetric(&snapshots[i]); err != nil {
			return false, err
		}
	}
	return true, nil
}

// MetricHistory returns stored snapshot values for trend charting.
func (c *Calculator) MetricHistory(projectID int64, metricType string, windowDays int) ([]models.Metric, error) {
	return c.db.MetricHistory(projectID, metricType, windowDays, c.now())
}

// Stats aggregates commit counters, optionally since a cutoff.
func (c *Calculator) Stats(projectID int64, since time.Time) (*CommitStats, error) {
	commits, err := c.db.CommitsSince(projectID, since)
	if err != nil {
		return nil, err
	}

	stats := &CommitStats{TotalCommits: len(commits)}
	if len(commits) == 0 {
		return stats, nil
	}

	authors := make(map[string]bool)
	for i := range commits {
		stats.TotalInsertions += commits[i].Insertions
		stats.TotalDeletions += commits[i].Deletions
		stats.TotalFilesChanged += commits[i].FilesChanged
		authors[commits[i].Author] = true
	}
	stats.UniqueAuthors = len(authors)
	n := float64(len(commits))
	stats.AvgInsertions = float64(stats.TotalInsertions) / n
	stats.AvgDeletions = float64(stats.TotalDeletions) / n
	stats.AvgFiles = float64(stats.TotalFilesChanged) / n
	return stats, nil
}

// ActivityTimeline returns daily commit activity over the trailing days,
// oldest day first. Days without commits are omitted.
func (c *Calculator) ActivityTimeline(projectID int64, days int) ([]DayActivity, error) {
	cutoff := c.now().AddDate(0, 0, -days)
	commits, err := c.db.CommitsSince(projectID, cutoff)
	if err != nil {
		return nil, err
	}

	var timeline []DayActivity
	byDate := make(map[time.Time]int)
	for i := range commits {
		day := models.DateOnly(commits[i].CommittedAt)
		idx, ok := byDate[day]
		if !ok {
			timeline = append(timeline, DayActivity{Date: day})
			idx = len(timeline) - 1
			byDate[day] = idx
		}
		timeline[idx].Commits++
		timeline[idx].Insertions += commits[i].Insertions
		timeline[idx].Deletions += commits[i].Deletions
	}
	return timeline, nil
}
