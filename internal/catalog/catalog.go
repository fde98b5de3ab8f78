// Package catalog imports the program's CPL catalog and course list from YAML.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/rpsplanner/internal/model"
	"github.com/pavelanni/rpsplanner/internal/store"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

// File is the YAML layout of a catalog.
type File struct {
	LearningOutcomes []validation.LearningOutcomeInput `yaml:"cpl"`
	Courses          []validation.CourseInput          `yaml:"mata_kuliah"`
}

// Store is the persistence an import needs.
type Store interface {
	GetSetting(key string) (string, error)
	ImportCatalog(outcomes []model.LearningOutcome, courses []model.Course, hash string) (store.CatalogImport, error)
}

// Result summarizes an import.
type Result struct {
	Skipped  bool `json:"skipped"` // the file was imported before unchanged
	Inserted int  `json:"inserted"`
	Updated  int  `json:"updated"`
	Courses  int  `json:"courses"`
}

// ErrMalformed reports catalog data that is not valid YAML.
var ErrMalformed = errors.New("malformed catalog")

// InvalidError lists the catalog entries that failed validation.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return "invalid catalog: " + strings.Join(e.Problems, "; ")
}

// Parse decodes a catalog file.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return f, nil
}

// ImportFile reads path and imports it.
func ImportFile(s Store, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read catalog: %w", err)
	}
	res, err := Import(s, data)
	if err != nil {
		return res, err
	}
	slog.Info("imported catalog", "path", path, "skipped", res.Skipped,
		"inserted", res.Inserted, "updated", res.Updated, "courses", res.Courses)
	return res, nil
}

// Import validates every entry, then upserts CPL records by code and adds
// courses that do not exist yet in one transaction. Nothing is written when
// an entry is invalid or the database fails. Data identical to the last
// import is skipped.
func Import(s Store, data []byte) (Result, error) {
	var res Result
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	prev, err := s.GetSetting(store.SettingCatalogHash)
	if err != nil {
		return res, fmt.Errorf("check catalog hash: %w", err)
	}
	if prev == hash {
		res.Skipped = true
		return res, nil
	}

	f, err := Parse(data)
	if err != nil {
		return res, err
	}
	var problems []string
	for i := range f.LearningOutcomes {
		in := &f.LearningOutcomes[i]
		if errs := in.Check("en"); len(errs) > 0 {
			problems = append(problems, fmt.Sprintf("cpl[%d] %s: %s", i, in.Code, errs))
		}
	}
	for i := range f.Courses {
		in := &f.Courses[i]
		if errs := in.Check("en"); len(errs) > 0 {
			problems = append(problems, fmt.Sprintf("mata_kuliah[%d] %s: %s", i, in.Code, errs))
		}
	}
	if len(problems) > 0 {
		return res, &InvalidError{Problems: problems}
	}

	outcomes := make([]model.LearningOutcome, 0, len(f.LearningOutcomes))
	for _, in := range f.LearningOutcomes {
		outcomes = append(outcomes, in.Model())
	}
	courses := make([]model.Course, 0, len(f.Courses))
	for _, in := range f.Courses {
		courses = append(courses, in.Model())
	}
	counts, err := s.ImportCatalog(outcomes, courses, hash)
	if err != nil {
		return res, fmt.Errorf("import catalog: %w", err)
	}
	res.Inserted, res.Updated, res.Courses = counts.Inserted, counts.Updated, counts.Courses
	return res, nil
}
