package db

import (
	"database/sql"
	"fmt"

	"pm/internal/models"
)

const projectCols = `id, name, path, description, tech_stack, status, priority,
	has_git, last_activity_at, created_at, updated_at`

// CreateProject creates a new project. Priority is clamped to 0-100 and
// status is validated before the insert.
func (db *DB) CreateProject(p *models.Project) (*models.Project, error) {
	if p.Status == "" {
		p.Status = "active"
	}
	if err := models.ValidateStatus(p.Status, models.ProjectStatuses); err != nil {
		return nil, err
	}
	p.Priority = models.ClampPriority(p.Priority)

	result, err := db.Exec(`
		INSERT INTO projects (name, path, description, tech_stack, status, priority, has_git)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Path, p.Description, encodeStrings(p.TechStack), p.Status, p.Priority, p.HasGit)
	if err != nil {
		return nil, mapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetProject(id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(id int64) (*models.Project, error) {
	row := db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// GetProjectByName retrieves a project by its unique name
func (db *DB) GetProjectByName(name string) (*models.Project, error) {
	row := db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

// ListProjects returns projects, optionally filtered by status.
// Sort is one of "priority", "activity" or "name".
func (db *DB) ListProjects(status, sort string) ([]models.Project, error) {
	query := `SELECT ` + projectCols + ` FROM projects`
	var args []interface{}

	if status != "" {
		if err := models.ValidateStatus(status, models.ProjectStatuses); err != nil {
			return nil, err
		}
		query += " WHERE status = ?"
		args = append(args, status)
	}

	switch sort {
	case "activity":
		query += " ORDER BY last_activity_at DESC NULLS LAST"
	case "name":
		query += " ORDER BY name ASC"
	default:
		query += " ORDER BY priority DESC, name ASC"
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's mutable fields
func (db *DB) UpdateProject(id int64, status *string, priority *int, description *string) error {
	if status != nil {
		if err := models.ValidateStatus(*status, models.ProjectStatuses); err != nil {
			return err
		}
		if _, err := db.Exec(`UPDATE projects SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *status, id); err != nil {
			return mapErr(err)
		}
	}
	if priority != nil {
		clamped := models.ClampPriority(*priority)
		if _, err := db.Exec(`UPDATE projects SET priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, clamped, id); err != nil {
			return mapErr(err)
		}
	}
	if description != nil {
		if _, err := db.Exec(`UPDATE projects SET description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, *description, id); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

// DeleteProject removes a project and all its goals, todos, commits and
// metrics in one transaction. The dependent rows are deleted explicitly so
// no orphans survive even without foreign-key enforcement.
func (db *DB) DeleteProject(id int64) error {
	if _, err := db.GetProject(id); err != nil {
		return err
	}
	return db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM todos WHERE project_id = ?",
			"DELETE FROM goals WHERE project_id = ?",
			"DELETE FROM commits WHERE project_id = ?",
			"DELETE FROM metrics WHERE project_id = ?",
			"DELETE FROM projects WHERE id = ?",
		} {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("delete project %d: %w", id, err)
			}
		}
		return nil
	})
}

// ProjectCount returns the number of projects
func (db *DB) ProjectCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var tech, lastActivity = sql.NullString{}, sql.NullTime{}
	err := row.Scan(&p.ID, &p.Name, &p.Path, &p.Description, &tech, &p.Status,
		&p.Priority, &p.HasGit, &lastActivity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	p.TechStack = decodeStrings(tech)
	p.LastActivityAt = timePtr(lastActivity)
	return p, nil
}
