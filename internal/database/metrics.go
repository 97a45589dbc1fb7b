package database

import (
	"database/sql"

	log "github.com/sirupsen/logrus"
)

// SaveMetric persists a counter value so it survives restarts.
func (s *Store) SaveMetric(metricName string, value float64) error {
	query := `
	INSERT OR REPLACE INTO metrics (metric_name, metric_value)
	VALUES (?, ?);`
	if _, err := s.db.Exec(query, metricName, value); err != nil {
		return unavailable(err, "failed to save metric")
	}
	log.Debugf("Metric saved: %s = %f", metricName, value)
	return nil
}

// GetMetric loads a persisted counter value, defaulting to 0 when absent.
func (s *Store) GetMetric(metricName string) (float64, error) {
	var value float64
	query := `SELECT metric_value FROM metrics WHERE metric_name = ?;`
	err := s.db.QueryRow(query, metricName).Scan(&value)
	if err == sql.ErrNoRows {
		log.Debugf("Metric %s not found in the database, defaulting to 0", metricName)
		return 0, nil
	} else if err != nil {
		return 0, unavailable(err, "failed to get metric")
	}
	return value, nil
}
