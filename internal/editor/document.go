// Package editor is the in-memory editing model of one RPS (semester lesson
// plan) document: the form fields plus the CPMK, Sub-CPMK, weekly plan, task,
// achievement analysis and bibliography collections, which reference each
// other and an external, read-only list of learning outcomes (CPL).
//
// Every mutation computes a new value for the whole collection and installs
// it; slices handed out earlier are never modified. A read-only Document
// ignores all mutations.
package editor

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Document is the aggregate state container for one RPS.
type Document struct {
	id         model.EntryID
	ownerID    int64
	status     model.RPSStatus
	reviewNote string
	updatedAt  time.Time

	form         model.RPSForm
	cpl          []model.LearningOutcome
	cpmk         []model.CourseOutcome
	weeklyPlan   []model.WeeklyPlanEntry
	tasks        []model.TaskAssignment
	analysis     []model.AnalysisEntry
	bibliography []model.BibliographyEntry

	readOnly bool
	newKey   func() string
}

// New returns an empty document for a new RPS. It starts with one blank CPMK
// since the CPMK collection is never empty.
func New(cpl []model.LearningOutcome) *Document {
	d := &Document{
		status: model.RPSDraft,
		cpl:    slices.Clone(cpl),
		newKey: uuid.NewString,
	}
	d.form.Semester = model.SemesterGanjil
	d.cpmk = []model.CourseOutcome{d.blankCourseOutcome(0)}
	return d
}

// FromRPS wraps a stored or decoded RPS. The value is deep-copied.
func FromRPS(r model.RPS, cpl []model.LearningOutcome) *Document {
	c := cloneRPS(r)
	d := &Document{
		id:           c.ID,
		ownerID:      c.OwnerID,
		status:       c.Status,
		reviewNote:   c.ReviewNote,
		updatedAt:    c.UpdatedAt,
		form:         c.Form,
		cpl:          slices.Clone(cpl),
		cpmk:         c.CourseOutcomes,
		weeklyPlan:   c.WeeklyPlan,
		tasks:        c.Tasks,
		analysis:     c.Analysis,
		bibliography: c.Bibliography,
		newKey:       uuid.NewString,
	}
	if d.status == "" {
		d.status = model.RPSDraft
	}
	if len(d.cpmk) == 0 {
		d.cpmk = []model.CourseOutcome{d.blankCourseOutcome(0)}
	}
	return d
}

// RPS returns a deep copy of the aggregate.
func (d *Document) RPS() model.RPS {
	return cloneRPS(model.RPS{
		ID:             d.id,
		OwnerID:        d.ownerID,
		Status:         d.status,
		ReviewNote:     d.reviewNote,
		Form:           d.form,
		CourseOutcomes: d.cpmk,
		WeeklyPlan:     d.weeklyPlan,
		Tasks:          d.tasks,
		Analysis:       d.analysis,
		Bibliography:   d.bibliography,
		UpdatedAt:      d.updatedAt,
	})
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	c := FromRPS(d.RPS(), d.cpl)
	c.readOnly = d.readOnly
	c.newKey = d.newKey
	return c
}

// SetKeyFunc replaces the generator used for keys of new CPMK and Sub-CPMK entries.
func (d *Document) SetKeyFunc(fn func() string) { d.newKey = fn }

// SetReadOnly switches the document between edit and view mode.
func (d *Document) SetReadOnly(ro bool) { d.readOnly = ro }

// ReadOnly reports whether mutations are ignored.
func (d *Document) ReadOnly() bool { return d.readOnly }

func (d *Document) ID() model.EntryID { return d.id }
func (d *Document) OwnerID() int64 { return d.ownerID }
func (d *Document) Status() model.RPSStatus { return d.status }
func (d *Document) ReviewNote() string { return d.reviewNote }
func (d *Document) Form() model.RPSForm { return d.form }
func (d *Document) LearningOutcomes() []model.LearningOutcome { return d.cpl }

// The collection getters return the current values. Callers must not modify them.

func (d *Document) CourseOutcomes() []model.CourseOutcome { return d.cpmk }
func (d *Document) WeeklyPlan() []model.WeeklyPlanEntry { return d.weeklyPlan }
func (d *Document) Tasks() []model.TaskAssignment { return d.tasks }
func (d *Document) Analysis() []model.AnalysisEntry { return d.analysis }
func (d *Document) Bibliography() []model.BibliographyEntry { return d.bibliography }

// SetForm replaces the form record.
func (d *Document) SetForm(f model.RPSForm) {
	if d.readOnly {
		return
	}
	d.form = f
}

// SetCourseOutcomes replaces the CPMK collection, Sub-CPMK included.
// An empty value is ignored: the collection always holds at least one CPMK.
func (d *Document) SetCourseOutcomes(v []model.CourseOutcome) {
	if d.readOnly || len(v) == 0 {
		return
	}
	d.cpmk = v
}

// SetWeeklyPlan replaces the weekly plan collection.
func (d *Document) SetWeeklyPlan(v []model.WeeklyPlanEntry) {
	if d.readOnly {
		return
	}
	d.weeklyPlan = v
}

// SetTasks replaces the task collection.
func (d *Document) SetTasks(v []model.TaskAssignment) {
	if d.readOnly {
		return
	}
	d.tasks = v
}

// SetAnalysis replaces the achievement analysis collection.
func (d *Document) SetAnalysis(v []model.AnalysisEntry) {
	if d.readOnly {
		return
	}
	d.analysis = v
}

// SetBibliography replaces the bibliography collection.
func (d *Document) SetBibliography(v []model.BibliographyEntry) {
	if d.readOnly {
		return
	}
	d.bibliography = v
}

func cloneRPS(r model.RPS) model.RPS {
	out := r
	out.Form.TeachingMethods = slices.Clone(r.Form.TeachingMethods)
	out.Form.Media = slices.Clone(r.Form.Media)

	out.CourseOutcomes = nil
	if r.CourseOutcomes != nil {
		out.CourseOutcomes = make([]model.CourseOutcome, len(r.CourseOutcomes))
		for i, c := range r.CourseOutcomes {
			c.CPLIDs = slices.Clone(c.CPLIDs)
			c.Subs = slices.Clone(c.Subs)
			out.CourseOutcomes[i] = c
		}
	}

	out.WeeklyPlan = nil
	if r.WeeklyPlan != nil {
		out.WeeklyPlan = make([]model.WeeklyPlanEntry, len(r.WeeklyPlan))
		for i, w := range r.WeeklyPlan {
			w.SubTopics = slices.Clone(w.SubTopics)
			out.WeeklyPlan[i] = w
		}
	}

	out.Tasks = slices.Clone(r.Tasks)

	out.Analysis = nil
	if r.Analysis != nil {
		out.Analysis = make([]model.AnalysisEntry, len(r.Analysis))
		for i, a := range r.Analysis {
			if a.EndWeek != nil {
				end := *a.EndWeek
				a.EndWeek = &end
			}
			a.CPMKRefs = slices.Clone(a.CPMKRefs)
			a.SubRefs = slices.Clone(a.SubRefs)
			out.Analysis[i] = a
		}
	}

	out.Bibliography = slices.Clone(r.Bibliography)
	return out
}
