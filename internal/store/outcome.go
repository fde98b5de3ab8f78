package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

const outcomeColumns = `id, code, name, description, created_at, updated_at`

func scanOutcome(row interface{ Scan(...any) error }) (model.LearningOutcome, error) {
	var o model.LearningOutcome
	err := row.Scan(&o.ID, &o.Code, &o.Name, &o.Description, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateLearningOutcome stores a CPL. A duplicate code yields ErrConflict.
func (s *Store) CreateLearningOutcome(o model.LearningOutcome) (int64, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO learning_outcomes (code, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		o.Code, o.Name, o.Description, now, now,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("cpl %q: %w", o.Code, ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateLearningOutcome overwrites code, name and description of a CPL.
func (s *Store) UpdateLearningOutcome(o model.LearningOutcome) error {
	res, err := s.db.Exec(
		`UPDATE learning_outcomes SET code = ?, name = ?, description = ?, updated_at = ? WHERE id = ?`,
		o.Code, o.Name, o.Description, time.Now(), o.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("cpl %q: %w", o.Code, ErrConflict)
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpsertLearningOutcome inserts a CPL or updates the one with the same code.
// It reports whether a row was inserted.
func (s *Store) UpsertLearningOutcome(o model.LearningOutcome) (bool, error) {
	return upsertOutcome(s.db, o, time.Now())
}

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func upsertOutcome(q querier, o model.LearningOutcome, now time.Time) (bool, error) {
	var existing int64
	err := q.QueryRow(`SELECT id FROM learning_outcomes WHERE code = ?`, o.Code).Scan(&existing)
	if err == sql.ErrNoRows {
		_, err := q.Exec(
			`INSERT INTO learning_outcomes (code, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			o.Code, o.Name, o.Description, now, now,
		)
		return err == nil, err
	}
	if err != nil {
		return false, err
	}
	_, err = q.Exec(
		`UPDATE learning_outcomes SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		o.Name, o.Description, now, existing,
	)
	return false, err
}

// DeleteLearningOutcome removes a CPL. References from RPS documents are
// dropped by the schema.
func (s *Store) DeleteLearningOutcome(id int64) error {
	res, err := s.db.Exec(`DELETE FROM learning_outcomes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetLearningOutcome returns a CPL by ID, or ErrNotFound.
func (s *Store) GetLearningOutcome(id int64) (model.LearningOutcome, error) {
	o, err := scanOutcome(s.db.QueryRow(`SELECT `+outcomeColumns+` FROM learning_outcomes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// ListLearningOutcomes returns every CPL ordered by code.
func (s *Store) ListLearningOutcomes() ([]model.LearningOutcome, error) {
	rows, err := s.db.Query(`SELECT ` + outcomeColumns + ` FROM learning_outcomes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.LearningOutcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// LearningOutcomeCount returns the number of CPL records.
func (s *Store) LearningOutcomeCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM learning_outcomes`).Scan(&count)
	return count, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
