package store

import (
	"errors"
	"fmt"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// RPSExport bundles a document with the records its export needs.
type RPSExport struct {
	RPS     model.RPS
	Course  *model.Course // nil when the document has no course yet
	Owner   *model.User
	Catalog []model.LearningOutcome
}

// ExportRPS loads one document and its surroundings for export.
func (s *Store) ExportRPS(id int64) (RPSExport, error) {
	catalog, err := s.ListLearningOutcomes()
	if err != nil {
		return RPSExport{}, fmt.Errorf("list cpl: %w", err)
	}
	return s.exportRPS(id, catalog)
}

// ExportAllRPS loads every document matching filter for export.
func (s *Store) ExportAllRPS(filter RPSFilter) ([]RPSExport, error) {
	list, err := s.ListRPS(filter)
	if err != nil {
		return nil, fmt.Errorf("list rps: %w", err)
	}
	catalog, err := s.ListLearningOutcomes()
	if err != nil {
		return nil, fmt.Errorf("list cpl: %w", err)
	}

	var out []RPSExport
	for _, sum := range list {
		e, err := s.exportRPS(sum.ID, catalog)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) exportRPS(id int64, catalog []model.LearningOutcome) (RPSExport, error) {
	r, err := s.GetRPS(id)
	if err != nil {
		return RPSExport{}, fmt.Errorf("get rps %d: %w", id, err)
	}
	e := RPSExport{RPS: r, Catalog: catalog}

	if r.Form.CourseID != 0 {
		c, err := s.GetCourse(r.Form.CourseID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return e, fmt.Errorf("get course %d: %w", r.Form.CourseID, err)
		default:
			e.Course = &c
		}
	}
	if e.Owner, err = s.GetUserByID(r.OwnerID); err != nil {
		return e, fmt.Errorf("get user %d: %w", r.OwnerID, err)
	}
	return e, nil
}
