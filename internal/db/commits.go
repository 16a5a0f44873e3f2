package db

import (
	"database/sql"
	"time"

	"pm/internal/models"
)

const commitCols = `id, project_id, sha, message, author, committed_at,
	files_changed, insertions, deletions, todo_ids, created_at`

// InsertCommit stores a commit record. A duplicate (project, sha) pair
// surfaces as ErrDuplicate.
func (db *DB) InsertCommit(c *models.Commit) (*models.Commit, error) {
	result, err := db.Exec(`
		INSERT INTO commits (project_id, sha, message, author, committed_at,
			files_changed, insertions, deletions, todo_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ProjectID, c.SHA, c.Message, c.Author, c.CommittedAt,
		c.FilesChanged, c.Insertions, c.Deletions, encodeIDs(c.TodoIDs))
	if err != nil {
		return nil, mapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(`SELECT `+commitCols+` FROM commits WHERE id = ?`, id)
	return scanCommit(row)
}

// ExistingSHAs returns the set of commit SHAs already stored for a project
func (db *DB) ExistingSHAs(projectID int64) (map[string]bool, error) {
	rows, err := db.Query(`SELECT sha FROM commits WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shas := make(map[string]bool)
	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			return nil, err
		}
		shas[sha] = true
	}
	return shas, rows.Err()
}

// RecentCommits returns the newest commits for a project, newest first
func (db *DB) RecentCommits(projectID int64, limit int) ([]models.Commit, error) {
	return db.queryCommits(`SELECT `+commitCols+` FROM commits
		WHERE project_id = ? ORDER BY committed_at DESC LIMIT ?`, projectID, limit)
}

// CommitsSince returns commits at or after the cutoff, oldest first
func (db *DB) CommitsSince(projectID int64, cutoff time.Time) ([]models.Commit, error) {
	return db.queryCommits(`SELECT `+commitCols+` FROM commits
		WHERE project_id = ? AND committed_at >= ?
		ORDER BY committed_at ASC`, projectID, cutoff)
}

// CountCommitsSince counts commits at or after the cutoff
func (db *DB) CountCommitsSince(projectID int64, cutoff time.Time) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM commits
		WHERE project_id = ? AND committed_at >= ?`, projectID, cutoff).Scan(&count)
	return count, err
}

func (db *DB) queryCommits(query string, args ...interface{}) ([]models.Commit, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []models.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *c)
	}
	return commits, rows.Err()
}

func scanCommit(row rowScanner) (*models.Commit, error) {
	c := &models.Commit{}
	var todoIDs sql.NullString
	err := row.Scan(&c.ID, &c.ProjectID, &c.SHA, &c.Message, &c.Author,
		&c.CommittedAt, &c.FilesChanged, &c.Insertions, &c.Deletions,
		&todoIDs, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	c.TodoIDs = decodeIDs(todoIDs)
	return c, nil
}
