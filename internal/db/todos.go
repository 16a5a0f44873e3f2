package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pm/internal/models"
)

const todoCols = `id, project_id, goal_id, title, description, status,
	priority_score, effort_estimate, tags, blocked_by, due_date,
	started_at, completed_at, created_at, updated_at`

// RecalcStatuses are the todo statuses whose scores the priority engine
// keeps current. Completed and cancelled todos keep their last score.
var RecalcStatuses = []string{"open", "in_progress", "blocked"}

// CreateTodo creates a new todo
func (db *DB) CreateTodo(t *models.Todo) (*models.Todo, error) {
	if t.Status == "" {
		t.Status = "open"
	}
	if err := models.ValidateStatus(t.Status, models.TodoStatuses); err != nil {
		return nil, err
	}
	if err := models.ValidateEffort(t.EffortEstimate); err != nil {
		return nil, err
	}
	if t.GoalID != nil {
		if _, err := db.GetGoal(*t.GoalID); err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
	}

	result, err := db.Exec(`
		INSERT INTO todos (project_id, goal_id, title, description, status,
			priority_score, effort_estimate, tags, blocked_by, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ProjectID, t.GoalID, t.Title, t.Description, t.Status, t.PriorityScore,
		t.EffortEstimate, encodeStrings(t.Tags), encodeIDs(t.BlockedBy), nullTime(t.DueDate))
	if err != nil {
		return nil, mapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetTodo(id)
}

// GetTodo retrieves a todo by ID
func (db *DB) GetTodo(id int64) (*models.Todo, error) {
	row := db.QueryRow(`SELECT `+todoCols+` FROM todos WHERE id = ?`, id)
	return scanTodo(row)
}

// TodoFilter narrows ListTodos results
type TodoFilter struct {
	ProjectID   *int64
	GoalID      *int64
	Status      string
	Statuses    []string
	BlockedOnly bool
	Limit       int
}

// ListTodos returns todos matching the filter, ordered by priority score
// descending then creation time.
func (db *DB) ListTodos(f TodoFilter) ([]models.Todo, error) {
	query := `SELECT ` + todoCols + ` FROM todos WHERE 1=1`
	var args []interface{}

	if f.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, *f.ProjectID)
	}
	if f.GoalID != nil {
		query += " AND goal_id = ?"
		args = append(args, *f.GoalID)
	}
	if f.Status != "" {
		if err := models.ValidateStatus(f.Status, models.TodoStatuses); err != nil {
			return nil, err
		}
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if len(f.Statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(",?", len(f.Statuses)-1) + ")"
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.BlockedOnly {
		query += " AND status = 'blocked'"
	}
	query += " ORDER BY priority_score DESC, created_at ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return db.queryTodos(query, args...)
}

// OverdueTodos returns open or in-progress todos due strictly before today,
// soonest due first.
func (db *DB) OverdueTodos(projectID int64, today time.Time) ([]models.Todo, error) {
	return db.queryTodos(`SELECT `+todoCols+` FROM todos
		WHERE project_id = ? AND status IN ('open', 'in_progress')
		AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC`, projectID, models.DateOnly(today))
}

// UpcomingTodos returns open or in-progress todos due within
// [today, today+windowDays], soonest due first.
func (db *DB) UpcomingTodos(projectID int64, today time.Time, windowDays int) ([]models.Todo, error) {
	start := models.DateOnly(today)
	end := start.AddDate(0, 0, windowDays)
	return db.queryTodos(`SELECT `+todoCols+` FROM todos
		WHERE project_id = ? AND status IN ('open', 'in_progress')
		AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC`, projectID, start, end)
}

// StartTodo transitions a todo to in_progress and stamps started_at
func (db *DB) StartTodo(id int64) error {
	return db.setTodoStatus(id, "in_progress")
}

// CompleteTodo transitions a todo to completed and stamps completed_at
func (db *DB) CompleteTodo(id int64) error {
	return db.setTodoStatus(id, "completed")
}

// SetTodoStatus transitions a todo to the given status, keeping
// started_at/completed_at consistent with the transition.
func (db *DB) SetTodoStatus(id int64, status string) error {
	return db.setTodoStatus(id, status)
}

func (db *DB) setTodoStatus(id int64, status string) error {
	if err := models.ValidateStatus(status, models.TodoStatuses); err != nil {
		return err
	}
	if _, err := db.GetTodo(id); err != nil {
		return err
	}

	switch status {
	case "in_progress":
		_, err := db.Exec(`UPDATE todos SET status = ?, started_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
		return mapErr(err)
	case "completed":
		_, err := db.Exec(`UPDATE todos SET status = ?, completed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
		return mapErr(err)
	default:
		_, err := db.Exec(`UPDATE todos SET status = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, status, id)
		return mapErr(err)
	}
}

// BlockTodo records blockerID as blocking id and marks id blocked
func (db *DB) BlockTodo(id, blockerID int64) error {
	todo, err := db.GetTodo(id)
	if err != nil {
		return err
	}
	if _, err := db.GetTodo(blockerID); err != nil {
		return fmt.Errorf("blocker: %w", err)
	}
	if id == blockerID {
		return fmt.Errorf("todo %d cannot block itself", id)
	}

	for _, b := range todo.BlockedBy {
		if b == blockerID {
			return db.setTodoStatus(id, "blocked")
		}
	}
	blockedBy := append(todo.BlockedBy, blockerID)

	_, err = db.Exec(`UPDATE todos SET blocked_by = ?, status = 'blocked',
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`, encodeIDs(blockedBy), id)
	return mapErr(err)
}

// UpdateTodoScore writes a recomputed priority score
func (db *DB) UpdateTodoScore(id int64, score float64) error {
	_, err := db.Exec(`UPDATE todos SET priority_score = ? WHERE id = ?`, score, id)
	return mapErr(err)
}

// UpdateTodoScores writes a batch of recomputed scores in one transaction
func (db *DB) UpdateTodoScores(changes map[int64]float64) error {
	if len(changes) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`UPDATE todos SET priority_score = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for id, score := range changes {
			if _, err := stmt.Exec(score, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddTodoTag appends a tag to a todo if not already present
func (db *DB) AddTodoTag(id int64, tag string) error {
	todo, err := db.GetTodo(id)
	if err != nil {
		return err
	}
	for _, t := range todo.Tags {
		if t == tag {
			return nil
		}
	}
	tags := append(todo.Tags, tag)
	_, err = db.Exec(`UPDATE todos SET tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, encodeStrings(tags), id)
	return mapErr(err)
}

// CountTodos returns the number of todos in a project
func (db *DB) CountTodos(projectID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM todos WHERE project_id = ?`, projectID).Scan(&count)
	return count, err
}

// CountTodosByStatus returns per-status counts for a project
func (db *DB) CountTodosByStatus(projectID int64) (map[string]int, error) {
	return db.countByStatus("todos", projectID)
}

// CountGoalsByStatus returns per-status counts of a project's goals
func (db *DB) CountGoalsByStatus(projectID int64) (map[string]int, error) {
	return db.countByStatus("goals", projectID)
}

func (db *DB) countByStatus(table string, projectID int64) (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM `+table+`
		WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountCompletedBetween counts todos completed within [start, end)
func (db *DB) CountCompletedBetween(projectID int64, start, end time.Time) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM todos
		WHERE project_id = ? AND status = 'completed'
		AND completed_at >= ? AND completed_at < ?`, projectID, start, end).Scan(&count)
	return count, err
}

// CountCompletedSince counts todos completed at or after the cutoff
func (db *DB) CountCompletedSince(projectID int64, cutoff time.Time) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM todos
		WHERE project_id = ? AND status = 'completed'
		AND completed_at >= ?`, projectID, cutoff).Scan(&count)
	return count, err
}

func (db *DB) queryTodos(query string, args ...interface{}) ([]models.Todo, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	t := &models.Todo{}
	var goalID sql.NullInt64
	var tags, blockedBy sql.NullString
	var due, started, completed sql.NullTime
	err := row.Scan(&t.ID, &t.ProjectID, &goalID, &t.Title, &t.Description,
		&t.Status, &t.PriorityScore, &t.EffortEstimate, &tags, &blockedBy,
		&due, &started, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if goalID.Valid {
		v := goalID.Int64
		t.GoalID = &v
	}
	t.Tags = decodeStrings(tags)
	t.BlockedBy = decodeIDs(blockedBy)
	t.DueDate = timePtr(due)
	t.StartedAt = timePtr(started)
	t.CompletedAt = timePtr(completed)
	return t, nil
}
