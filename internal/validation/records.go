package validation

import (
	"encoding/json"
	"strings"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// LearningOutcomeInput is the create/edit form of a CPL.
type LearningOutcomeInput struct {
	Code        string `json:"kode" yaml:"kode" validate:"required,min=2,meaningful,outcode"`
	Name        string `json:"nama" yaml:"nama" validate:"required,min=3,meaningful"`
	Description string `json:"deskripsi" yaml:"deskripsi" validate:"required,min=10,meaningful"`
}

func (in *LearningOutcomeInput) Normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// Check trims the input and validates it.
func (in *LearningOutcomeInput) Check(lang string) Errors {
	in.Normalize()
	return Struct(in, lang)
}

// Model returns the record the input describes.
func (in LearningOutcomeInput) Model() model.LearningOutcome {
	return model.LearningOutcome{Code: in.Code, Name: in.Name, Description: in.Description}
}

// PatchField distinguishes an absent JSON member from one that is present.
// A present null leaves Value nil.
type PatchField[T any] struct {
	Present bool
	Value   *T
}

func (p *PatchField[T]) UnmarshalJSON(b []byte) error {
	p.Present = true
	if string(b) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func (p PatchField[T]) Get() (*T, bool) { return p.Value, p.Present }

// LearningOutcomePatch is a partial update of a CPL.
type LearningOutcomePatch struct {
	Code        PatchField[string] `json:"kode"`
	Name        PatchField[string] `json:"nama"`
	Description PatchField[string] `json:"deskripsi"`
}

// Merge returns the input that results from applying p to cur. A present
// null clears the field, which then fails the required rule.
func (p LearningOutcomePatch) Merge(cur model.LearningOutcome) LearningOutcomeInput {
	in := LearningOutcomeInput{Code: cur.Code, Name: cur.Name, Description: cur.Description}
	set := func(dst *string, f PatchField[string]) {
		if v, ok := f.Get(); ok {
			if v == nil {
				*dst = ""
			} else {
				*dst = *v
			}
		}
	}
	set(&in.Code, p.Code)
	set(&in.Name, p.Name)
	set(&in.Description, p.Description)
	return in
}

// CourseInput is the create form of a course (mata kuliah).
type CourseInput struct {
	Code          string `json:"kode" yaml:"kode" validate:"required,min=2,meaningful,outcode"`
	Name          string `json:"nama" yaml:"nama" validate:"required,min=3,meaningful"`
	Credits       int    `json:"sks" yaml:"sks" validate:"min=1,max=24"`
	Semester      int    `json:"semester" yaml:"semester" validate:"min=1,max=14"`
	CoordinatorID *int64 `json:"koordinator_id" yaml:"-"`
}

func (in *CourseInput) Normalize() {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
}

func (in *CourseInput) Check(lang string) Errors {
	in.Normalize()
	return Struct(in, lang)
}

func (in CourseInput) Model() model.Course {
	return model.Course{
		Code:          in.Code,
		Name:          in.Name,
		Credits:       in.Credits,
		Semester:      in.Semester,
		CoordinatorID: in.CoordinatorID,
	}
}

// UserInput is the admin form for a new account.
type UserInput struct {
	Username    string `json:"username" validate:"required,min=3,max=64,alphanum"`
	DisplayName string `json:"display_name" validate:"required,meaningful"`
	NIP         string `json:"nip" validate:"omitempty,numeric"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=kaprodi dosen admin"`
}

func (in *UserInput) Normalize() {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.NIP = strings.TrimSpace(in.NIP)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
}

func (in *UserInput) Check(lang string) Errors {
	in.Normalize()
	return Struct(in, lang)
}
