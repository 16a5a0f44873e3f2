package db

import (
	"database/sql"
	"fmt"
	"time"

	"pm/internal/models"
)

const goalCols = `id, project_id, title, description, category, priority,
	status, target_date, parent_goal_id, created_at, updated_at`

// CreateGoal creates a new goal
func (db *DB) CreateGoal(g *models.Goal) (*models.Goal, error) {
	if g.Status == "" {
		g.Status = "active"
	}
	if g.Category == "" {
		g.Category = "feature"
	}
	if err := models.ValidateStatus(g.Status, models.GoalStatuses); err != nil {
		return nil, err
	}
	if err := models.ValidateCategory(g.Category); err != nil {
		return nil, err
	}
	g.Priority = models.ClampPriority(g.Priority)

	if g.ParentGoalID != nil {
		if _, err := db.GetGoal(*g.ParentGoalID); err != nil {
			return nil, fmt.Errorf("parent goal: %w", err)
		}
	}

	result, err := db.Exec(`
		INSERT INTO goals (project_id, title, description, category, priority, status, target_date, parent_goal_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ProjectID, g.Title, g.Description, g.Category, g.Priority, g.Status,
		nullTime(g.TargetDate), g.ParentGoalID)
	if err != nil {
		return nil, mapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetGoal(id)
}

// GetGoal retrieves a goal by ID
func (db *DB) GetGoal(id int64) (*models.Goal, error) {
	row := db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	return scanGoal(row)
}

// ListGoals returns goals, scoped to a project when projectID is non-nil
// and filtered by status and minimum priority when given.
func (db *DB) ListGoals(projectID *int64, status string, priorityMin int) ([]models.Goal, error) {
	query := `SELECT ` + goalCols + ` FROM goals WHERE 1=1`
	var args []interface{}

	if projectID != nil {
		query += " AND project_id = ?"
		args = append(args, *projectID)
	}
	if status != "" {
		if err := models.ValidateStatus(status, models.GoalStatuses); err != nil {
			return nil, err
		}
		query += " AND status = ?"
		args = append(args, status)
	}
	if priorityMin > 0 {
		query += " AND priority >= ?"
		args = append(args, priorityMin)
	}
	query += " ORDER BY priority DESC, created_at ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoal updates a goal's mutable fields
func (db *DB) UpdateGoal(id int64, status *string, priority *int, targetDate *time.Time) error {
	if _, err := db.GetGoal(id); err != nil {
		return err
	}
	if status != nil {
		if err := models.ValidateStatus(*status, models.GoalStatuses); err != nil {
			return err
		}
		if _, err := db.Exec(`UPDATE goals SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *status, id); err != nil {
			return mapErr(err)
		}
	}
	if priority != nil {
		clamped := models.ClampPriority(*priority)
		if _, err := db.Exec(`UPDATE goals SET priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, clamped, id); err != nil {
			return mapErr(err)
		}
	}
	if targetDate != nil {
		if _, err := db.Exec(`UPDATE goals SET target_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *targetDate, id); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

// SetGoalParent links a goal under a parent goal. A goal may not cite itself
// or any of its descendants as parent.
func (db *DB) SetGoalParent(id int64, parentID *int64) error {
	if _, err := db.GetGoal(id); err != nil {
		return err
	}
	if parentID != nil {
		// Walk the ancestor chain from the proposed parent; hitting id
		// means the parent is a descendant and the link would form a cycle.
		cursor := parentID
		for cursor != nil {
			if *cursor == id {
				return fmt.Errorf("goal %d cannot have goal %d as parent: cycle", id, *parentID)
			}
			g, err := db.GetGoal(*cursor)
			if err != nil {
				return fmt.Errorf("parent goal: %w", err)
			}
			cursor = g.ParentGoalID
		}
	}
	_, err := db.Exec(`UPDATE goals SET parent_goal_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, parentID, id)
	return mapErr(err)
}

// DeleteGoal removes a goal. Its todos survive with goal_id cleared.
func (db *DB) DeleteGoal(id int64) error {
	if _, err := db.GetGoal(id); err != nil {
		return err
	}
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE todos SET goal_id = NULL WHERE goal_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE goals SET parent_goal_id = NULL WHERE parent_goal_id = ?", id); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM goals WHERE id = ?", id)
		return err
	})
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	g := &models.Goal{}
	var target sql.NullTime
	var parent sql.NullInt64
	err := row.Scan(&g.ID, &g.ProjectID, &g.Title, &g.Description, &g.Category,
		&g.Priority, &g.Status, &target, &parent, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	g.TargetDate = timePtr(target)
	if parent.Valid {
		v := parent.Int64
		g.ParentGoalID = &v
	}
	return g, nil
}
