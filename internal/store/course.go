package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

const courseColumns = `id, code, name, credits, semester, coordinator_id, created_at`

func scanCourse(row interface{ Scan(...any) error }) (model.Course, error) {
	var c model.Course
	var coord sql.NullInt64
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.Semester, &coord, &c.CreatedAt)
	if coord.Valid {
		c.CoordinatorID = &coord.Int64
	}
	return c, err
}

// CreateCourse stores a course. A duplicate code yields ErrConflict.
func (s *Store) CreateCourse(c model.Course) (int64, error) {
	var coord sql.NullInt64
	if c.CoordinatorID != nil {
		coord = nullID(*c.CoordinatorID)
	}
	res, err := s.db.Exec(
		`INSERT INTO courses (code, name, credits, semester, coordinator_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Code, c.Name, c.Credits, c.Semester, coord, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("course %q: %w", c.Code, ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCourse returns a course by ID, or ErrNotFound.
func (s *Store) GetCourse(id int64) (model.Course, error) {
	c, err := scanCourse(s.db.QueryRow(`SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// ListCourses returns all courses ordered by semester and code.
func (s *Store) ListCourses() ([]model.Course, error) {
	rows, err := s.db.Query(`SELECT ` + courseColumns + ` FROM courses ORDER BY semester, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CourseCount returns the number of courses.
func (s *Store) CourseCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM courses`).Scan(&count)
	return count, err
}
