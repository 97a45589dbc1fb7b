package database

import (
	"database/sql"

	"stock-alert-bot/internal/types"

	log "github.com/sirupsen/logrus"
)

// UpsertAlert replaces any existing alert for the ticker or inserts a new
// one. The notified flag is always reset and created_at refreshed. Returns
// whether a prior alert for the ticker existed, so the caller can announce
// "condition updated" instead of "condition set".
func (s *Store) UpsertAlert(a types.Alert) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, unavailable(err, "failed to begin upsert")
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	UPDATE alerts
	SET operator = ?, target_price = ?, current_price = ?, notified = 0, created_at = CURRENT_TIMESTAMP
	WHERE ticker = ?;`,
		string(a.Operator), a.TargetPrice, nullPrice(a.CurrentPrice), a.Ticker)
	if err != nil {
		return false, unavailable(err, "failed to update alert")
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return false, unavailable(err, "failed to read rows affected")
	}

	if updated == 0 {
		// Insert path still handles a concurrent insert on the same ticker.
		_, err = tx.Exec(`
		INSERT INTO alerts (ticker, operator, target_price, current_price, notified)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(ticker) DO UPDATE SET
			operator = excluded.operator,
			target_price = excluded.target_price,
			current_price = excluded.current_price,
			notified = 0,
			created_at = CURRENT_TIMESTAMP;`,
			a.Ticker, string(a.Operator), a.TargetPrice, nullPrice(a.CurrentPrice))
		if err != nil {
			return false, unavailable(err, "failed to insert alert")
		}
	}

	if err := tx.Commit(); err != nil {
		return false, unavailable(err, "failed to commit upsert")
	}

	log.Debugf("alert upserted: ticker=%s operator=%s target=%.2f updated=%v",
		a.Ticker, a.Operator, a.TargetPrice, updated > 0)
	return updated > 0, nil
}

// ListAlerts fetches all alerts in storage order.
func (s *Store) ListAlerts() ([]types.Alert, error) {
	rows, err := s.db.Query(`
	SELECT id, ticker, operator, target_price, current_price, notified, created_at
	FROM alerts ORDER BY id;`)
	if err != nil {
		return nil, unavailable(err, "failed to query alerts")
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		var operator string
		var current sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.Ticker, &operator, &a.TargetPrice, &current, &a.Notified, &a.CreatedAt); err != nil {
			return nil, unavailable(err, "failed to scan row")
		}
		a.Operator = types.Operator(operator)
		if current.Valid {
			v := current.Float64
			a.CurrentPrice = &v
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "failed to iterate alerts")
	}

	return alerts, nil
}

// MarkNotified sets the notified flag for one alert. Idempotent.
func (s *Store) MarkNotified(id int64) error {
	if _, err := s.db.Exec(`UPDATE alerts SET notified = 1 WHERE id = ?;`, id); err != nil {
		return unavailable(err, "failed to mark alert notified")
	}
	return nil
}

// UpdateCurrentPrice stores the latest resolved price for a ticker; nil
// clears it, so the list view shows N/A instead of a stale quote.
// Idempotent; a missing ticker is not an error (the alert may have been
// deleted by a concurrent command).
func (s *Store) UpdateCurrentPrice(ticker string, price *float64) error {
	if _, err := s.db.Exec(`UPDATE alerts SET current_price = ? WHERE ticker = ?;`, nullPrice(price), ticker); err != nil {
		return unavailable(err, "failed to update current price")
	}
	return nil
}

// DeleteByTicker removes every alert for the ticker and reports the true
// count removed. The unique index keeps this at 0 or 1 in practice.
func (s *Store) DeleteByTicker(ticker string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM alerts WHERE ticker = ?;`, ticker)
	if err != nil {
		return 0, unavailable(err, "failed to delete alerts")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable(err, "failed to read rows affected")
	}
	return count, nil
}

func nullPrice(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
