// Package priority computes derived priority scores for todos.
//
// A score is a weighted sum of seven factors, each normalized to 0-100,
// followed by a status modifier and a clamp. Every factor has a neutral
// default for missing data, so scoring never fails for a valid todo.
package priority

import (
	"math"
	"time"

	"pm/internal/config"
	"pm/internal/db"
	"pm/internal/models"
)

// Status modifiers applied after the weighted sum.
const (
	blockedPenalty   = 0.5
	inProgressBoost  = 1.2
	changedThreshold = 0.1
)

// Calculator scores todos against their relational context.
type Calculator struct {
	db  *db.DB
	cfg *config.Config
	now func() time.Time
}

// New creates a calculator using the given store and configuration.
func New(database *db.DB, cfg *config.Config) *Calculator {
	return &Calculator{db: database, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Score computes the priority score for a todo, in [0, 100].
func (c *Calculator) Score(todo *models.Todo) float64 {
	score := 0.0
	score += c.goalPriority(todo) * c.cfg.Weight("goal_priority")
	score += c.projectPriority(todo) * c.cfg.Weight("project_priority")
	score += c.ageUrgency(todo) * c.cfg.Weight("age_urgency")
	score += c.deadlinePressure(todo) * c.cfg.Weight("deadline_pressure")
	score += c.effortValue(todo) * c.cfg.Weight("effort_value")
	score += c.gitActivity(todo) * c.cfg.Weight("git_activity_boost")
	score += c.blockingImpact(todo) * c.cfg.Weight("blocking_impact")

	switch todo.Status {
	case "blocked":
		score *= blockedPenalty
	case "in_progress":
		score *= inProgressBoost
	}

	return math.Max(0, math.Min(100, score))
}

// RecalculateAll recomputes scores for all open, in-progress and blocked
// todos, optionally scoped to one project. Scores are written back only
// when they moved by more than 0.1, in a single transaction. Returns the
// number of todos actually updated.
func (c *Calculator) RecalculateAll(projectID *int64) (int, error) {
	todos, err := c.db.ListTodos(db.TodoFilter{ProjectID: projectID, Statuses: db.RecalcStatuses})
	if err != nil {
		return 0, err
	}

	changes := make(map[int64]float64)
	for i := range todos {
		newScore := c.Score(&todos[i])
		if math.Abs(todos[i].PriorityScore-newScore) > changedThreshold {
			changes[todos[i].ID] = newScore
		}
	}

	if err := c.db.UpdateTodoScores(changes); err != nil {
		return 0, err
	}
	return len(changes), nil
}

// goalPriority scores from the linked goal's priority, 50 if none
func (c *Calculator) goalPriority(todo *models.Todo) float64 {
	if todo.GoalID == nil {
		return 50
	}
	goal, err := c.db.GetGoal(*todo.GoalID)
	if err != nil || goal.Priority == 0 {
		return 50
	}
	return float64(goal.Priority)
}

// projectPriority scores from the owning project's priority, 50 if unset
func (c *Calculator) projectPriority(todo *models.Todo) float64 {
	project, err := c.db.GetProject(todo.ProjectID)
	if err != nil || project.Priority == 0 {
		return 50
	}
	return float64(project.Priority)
}

// ageUrgency scores by days since creation; older open items accrue
// urgency even without a deadline
func (c *Calculator) ageUrgency(todo *models.Todo) float64 {
	if todo.CreatedAt.IsZero() {
		return 30
	}
	ageDays := int(c.now().Sub(todo.CreatedAt).Hours() / 24)

	switch {
	case ageDays < 1:
		return 20
	case ageDays < 3:
		return 30
	case ageDays < 7:
		return 50
	case ageDays < 14:
		return 70
	case ageDays < 30:
		return 80
	default:
		return 90
	}
}

// deadlinePressure scores by days until the due date, 30 with no deadline
func (c *Calculator) deadlinePressure(todo *models.Todo) float64 {
	if todo.DueDate == nil {
		return 30
	}
	today := models.DateOnly(c.now())
	due := models.DateOnly(*todo.DueDate)
	daysUntil := int(due.Sub(today).Hours() / 24)

	switch {
	case daysUntil <= 0:
		return 100 // overdue or due today
	case daysUntil == 1:
		return 95
	case daysUntil <= 3:
		return 85
	case daysUntil <= 7:
		return 70
	case daysUntil <= 14:
		return 50
	case daysUntil <= 30:
		return 35
	default:
		return 20
	}
}

// effortValue favors quick wins: small estimates score high
func (c *Calculator) effortValue(todo *models.Todo) float64 {
	if todo.EffortEstimate == "" {
		return 50
	}
	return c.cfg.EffortScore(todo.EffortEstimate)
}

// gitActivity scores by commit count over the trailing week; projects
// without version control score a neutral 50
func (c *Calculator) gitActivity(todo *models.Todo) float64 {
	project, err := c.db.GetProject(todo.ProjectID)
	if err != nil || !project.HasGit {
		return 50
	}

	cutoff := c.now().AddDate(0, 0, -7)
	recent, err := c.db.CountCommitsSince(todo.ProjectID, cutoff)
	if err != nil {
		return 50
	}

	switch {
	case recent == 0:
		return 30
	case recent < 5:
		return 60
	case recent < 10:
		return 80
	default:
		return 90
	}
}

// blockingImpact scores by how many other non-completed todos in the same
// project list this todo as a blocker. A todo that is itself blocked
// scores a flat 50: its own blocking impact is not the relevant signal
// when it cannot be worked.
func (c *Calculator) blockingImpact(todo *models.Todo) float64 {
	if len(todo.BlockedBy) > 0 {
		return 50
	}

	siblings, err := c.db.ListTodos(db.TodoFilter{
		ProjectID: &todo.ProjectID,
		Statuses:  []string{"open", "in_progress", "blocked", "cancelled"},
	})
	if err != nil {
		return 50
	}

	blocking := 0
	for i := range siblings {
		for _, id := range siblings[i].BlockedBy {
			if id == todo.ID {
				blocking++
				break
			}
		}
	}

	return math.Min(100, 50+float64(blocking)*10)
}
