package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// CatalogImport counts the rows an import changed.
type CatalogImport struct {
	Inserted int
	Updated  int
	Courses  int
}

// ImportCatalog upserts CPL records by code, adds the courses whose code is
// new and records hash as the catalog hash. Either everything is written or
// nothing is.
func (s *Store) ImportCatalog(outcomes []model.LearningOutcome, courses []model.Course, hash string) (CatalogImport, error) {
	var res CatalogImport
	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, o := range outcomes {
		inserted, err := upsertOutcome(tx, o, now)
		if err != nil {
			return CatalogImport{}, fmt.Errorf("upsert cpl %s: %w", o.Code, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	for _, c := range courses {
		var coord sql.NullInt64
		if c.CoordinatorID != nil {
			coord = nullID(*c.CoordinatorID)
		}
		r, err := tx.Exec(
			`INSERT INTO courses (code, name, credits, semester, coordinator_id, created_at) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(code) DO NOTHING`,
			c.Code, c.Name, c.Credits, c.Semester, coord, now,
		)
		if err != nil {
			return CatalogImport{}, fmt.Errorf("create course %s: %w", c.Code, err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.Courses++
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		SettingCatalogHash, hash,
	); err != nil {
		return CatalogImport{}, fmt.Errorf("record catalog hash: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CatalogImport{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}
