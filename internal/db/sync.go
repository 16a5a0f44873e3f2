package db

import (
	"database/sql"
	"time"

	"pm/internal/models"
)

// ApplyCommits stores scanned commits for a project and applies their todo
// side effects in one transaction: referenced todos get a commit tag, and
// todos named by a completing commit are marked completed. Returns the
// number of commits added and todos completed.
func (db *DB) ApplyCommits(projectID int64, commits []models.Commit, completions map[int64]time.Time) (int, int, error) {
	added, completed := 0, 0

	err := db.WithTx(func(tx *sql.Tx) error {
		var latest time.Time

		for i := range commits {
			c := &commits[i]
			_, err := tx.Exec(`
				INSERT INTO commits (project_id, sha, message, author, committed_at,
					files_changed, insertions, deletions, todo_ids)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, projectID, c.SHA, c.Message, c.Author, c.CommittedAt,
				c.FilesChanged, c.Insertions, c.Deletions, encodeIDs(c.TodoIDs))
			if err != nil {
				return mapErr(err)
			}
			added++
			if c.CommittedAt.After(latest) {
				latest = c.CommittedAt
			}

			// Tag referenced todos with the commit SHA
			for _, todoID := range c.TodoIDs {
				if err := tagTodoTx(tx, projectID, todoID, "commit:"+shortSHA(c.SHA)); err != nil {
					return err
				}
			}
		}

		for todoID, at := range completions {
			n, err := completeTodoTx(tx, projectID, todoID, at)
			if err != nil {
				return err
			}
			completed += n
		}

		if !latest.IsZero() {
			if _, err := tx.Exec(`
				UPDATE projects SET last_activity_at = ?
				WHERE id = ? AND (last_activity_at IS NULL OR last_activity_at < ?)
			`, latest, projectID, latest); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, completed, nil
}

// tagTodoTx appends a tag to a todo if it exists in the project. Stale
// todo references in commit messages are skipped silently.
func tagTodoTx(tx *sql.Tx, projectID, todoID int64, tag string) error {
	var raw sql.NullString
	err := tx.QueryRow(`SELECT tags FROM todos WHERE id = ? AND project_id = ?`,
		todoID, projectID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	tags := decodeStrings(raw)
	for _, t := range tags {
		if t == tag {
			return nil
		}
	}
	tags = append(tags, tag)

	_, err = tx.Exec(`UPDATE todos SET tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, encodeStrings(tags), todoID)
	return err
}

// completeTodoTx marks a todo completed unless it already is. Returns 1
// when a transition happened.
func completeTodoTx(tx *sql.Tx, projectID, todoID int64, at time.Time) (int, error) {
	res, err := tx.Exec(`
		UPDATE todos SET status = 'completed', completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND project_id = ? AND status != 'completed'
	`, at, todoID, projectID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
