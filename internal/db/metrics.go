package db

import (
	"time"

	"pm/internal/models"
)

// InsertMetric stores one metric snapshot row. A second row for the same
// (project, type, day) surfaces as ErrDuplicate.
func (db *DB) InsertMetric(m *models.Metric) error {
	_, err := db.Exec(`
		INSERT INTO metrics (project_id, metric_type, value, recorded_at)
		VALUES (?, ?, ?, ?)
	`, m.ProjectID, m.Type, m.Value, models.DateOnly(m.RecordedAt))
	return mapErr(err)
}

// HasMetricsForDay reports whether any metric rows exist for the given day
func (db *DB) HasMetricsForDay(projectID int64, day time.Time) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM metrics
		WHERE project_id = ? AND recorded_at = ?`, projectID, models.DateOnly(day)).Scan(&count)
	return count > 0, err
}

// MetricHistory returns (date, value) points for one metric type over the
// window trailing the reference day, oldest first.
func (db *DB) MetricHistory(projectID int64, metricType string, windowDays int, ref time.Time) ([]models.Metric, error) {
	cutoff := models.DateOnly(ref).AddDate(0, 0, -windowDays)
	rows, err := db.Query(`
		SELECT id, project_id, metric_type, value, recorded_at, created_at
		FROM metrics
		WHERE project_id = ? AND metric_type = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
	`, projectID, metricType, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []models.Metric
	for rows.Next() {
		var m models.Metric
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Type, &m.Value, &m.RecordedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
