package payload

import (
	"cmp"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/rpsplanner/internal/editor"
	"github.com/pavelanni/rpsplanner/internal/model"
)

// Hydrate builds an editor document from its wire shape. Missing values get
// defaults, Sub-CPMK rows are grouped under their CPMK ordered by urutan, and
// rows whose parent does not exist are dropped.
func Hydrate(w Document, cpl []model.LearningOutcome) *editor.Document {
	return editor.FromRPS(ToRPS(w), cpl)
}

// ToRPS is Hydrate without the editor wrapper.
func ToRPS(w Document) model.RPS {
	r := model.RPS{
		ID:         w.ID,
		Status:     w.Status,
		ReviewNote: w.ReviewNote,
		Form:       toForm(w.Info),
		UpdatedAt:  w.UpdatedAt,
	}

	r.CourseOutcomes = make([]model.CourseOutcome, 0, len(w.CPMK))
	parents := make(map[string]int, len(w.CPMK))
	for _, c := range w.CPMK {
		key := entryKey(c.Key, c.ID)
		parents[key] = len(r.CourseOutcomes)
		r.CourseOutcomes = append(r.CourseOutcomes, model.CourseOutcome{
			ID:          c.ID,
			Key:         key,
			Code:        c.Code,
			Description: c.Description,
			CPLIDs:      nonNil(c.CPLIDs),
			Subs:        []model.SubOutcome{},
		})
	}
	for _, s := range w.SubCPMK {
		pi, ok := parents[s.CPMKRef]
		if !ok {
			slog.Warn("dropping sub-cpmk without parent", "kode", s.Code, "cpmk_ref", s.CPMKRef)
			continue
		}
		parent := &r.CourseOutcomes[pi]
		order := s.Order
		if order < 1 {
			order = len(parent.Subs) + 1
		}
		parent.Subs = append(parent.Subs, model.SubOutcome{
			ID:          s.ID,
			Key:         entryKey(s.Key, s.ID),
			Code:        s.Code,
			Description: s.Description,
			Order:       order,
		})
	}
	for i := range r.CourseOutcomes {
		slices.SortStableFunc(r.CourseOutcomes[i].Subs, func(a, b model.SubOutcome) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}

	r.WeeklyPlan = make([]model.WeeklyPlanEntry, 0, len(w.WeeklyPlan))
	for _, e := range w.WeeklyPlan {
		r.WeeklyPlan = append(r.WeeklyPlan, model.WeeklyPlanEntry{
			ID:        e.ID,
			Week:      week(e.Week),
			SubRef:    e.SubRef,
			Topic:     e.Topic,
			SubTopics: nonNil(e.SubTopics),
			Method:    e.Method,
			Duration:  max(e.Duration, 0),
			Technique: e.Technique,
			Criteria:  e.Criteria,
			WeightPct: pct(e.WeightPct),
		})
	}

	r.Tasks = make([]model.TaskAssignment, 0, len(w.Tasks))
	for i, t := range w.Tasks {
		number := t.Number
		if number < 1 {
			number = i + 1
		}
		typ := model.TaskType(strings.ToLower(t.Type))
		if !typ.Valid() {
			typ = model.TaskIndividual
		}
		r.Tasks = append(r.Tasks, model.TaskAssignment{
			ID:           t.ID,
			Number:       number,
			Title:        t.Title,
			SubRef:       t.SubRef,
			Indicator:    t.Indicator,
			DeadlineWeek: week(t.DeadlineWeek),
			Instructions: t.Instructions,
			Type:         typ,
			Output:       t.Output,
			Criteria:     t.Criteria,
			Technique:    t.Technique,
			WeightPct:    pct(t.WeightPct),
			References:   t.References,
		})
	}

	r.Analysis = make([]model.AnalysisEntry, 0, len(w.Analysis))
	for _, a := range w.Analysis {
		e := model.AnalysisEntry{
			ID:             a.ID,
			StartWeek:      week(a.StartWeek),
			CPMKRefs:       nonNil(a.CPMKRefs),
			SubRefs:        nonNil(a.SubRefs),
			Material:       a.Material,
			AssessmentType: a.AssessmentType,
			WeightPct:      pct(a.WeightPct),
		}
		if a.CPLID != nil {
			e.CPLID = *a.CPLID
		}
		if a.EndWeek != nil {
			end := max(week(*a.EndWeek), e.StartWeek)
			e.EndWeek = &end
		}
		r.Analysis = append(r.Analysis, e)
	}

	r.Bibliography = make([]model.BibliographyEntry, 0, len(w.Bibliography))
	for i, b := range w.Bibliography {
		kind := model.BibliographyKind(strings.ToLower(b.Kind))
		if !kind.Valid() {
			kind = model.KindBook
		}
		order := b.Order
		if order < 1 {
			order = i + 1
		}
		r.Bibliography = append(r.Bibliography, model.BibliographyEntry{
			ID:        b.ID,
			Title:     b.Title,
			Author:    b.Author,
			Year:      max(b.Year, 0),
			Publisher: b.Publisher,
			Kind:      kind,
			ISBN:      b.ISBN,
			Pages:     b.Pages,
			URL:       b.URL,
			Mandatory: b.Mandatory,
			Order:     order,
		})
	}
	return r
}

// Serialize turns an editor document into its wire shape. Identifiers of
// persisted entries are kept; new entries carry no id.
func Serialize(d *editor.Document) Document {
	return FromRPS(d.RPS())
}

// FromRPS is Serialize for a plain aggregate.
func FromRPS(r model.RPS) Document {
	w := Document{
		ID:           r.ID,
		Status:       r.Status,
		ReviewNote:   r.ReviewNote,
		Info:         fromForm(r.Form),
		CPMK:         make([]CPMK, 0, len(r.CourseOutcomes)),
		SubCPMK:      []SubCPMK{},
		WeeklyPlan:   make([]WeeklyPlan, 0, len(r.WeeklyPlan)),
		Tasks:        make([]Task, 0, len(r.Tasks)),
		Analysis:     make([]Analysis, 0, len(r.Analysis)),
		Bibliography: make([]Bibliography, 0, len(r.Bibliography)),
		UpdatedAt:    r.UpdatedAt,
	}
	for _, c := range r.CourseOutcomes {
		w.CPMK = append(w.CPMK, CPMK{
			ID:          c.ID,
			Key:         c.Key,
			Code:        c.Code,
			Description: c.Description,
			CPLIDs:      nonNil(c.CPLIDs),
		})
		for _, s := range c.Subs {
			w.SubCPMK = append(w.SubCPMK, SubCPMK{
				ID:          s.ID,
				Key:         s.Key,
				CPMKRef:     c.Key,
				Code:        s.Code,
				Description: s.Description,
				Order:       s.Order,
			})
		}
	}
	for _, e := range r.WeeklyPlan {
		w.WeeklyPlan = append(w.WeeklyPlan, WeeklyPlan{
			ID:        e.ID,
			Week:      e.Week,
			SubRef:    e.SubRef,
			Topic:     e.Topic,
			SubTopics: nonNil(e.SubTopics),
			Method:    e.Method,
			Duration:  e.Duration,
			Technique: e.Technique,
			Criteria:  e.Criteria,
			WeightPct: e.WeightPct,
		})
	}
	for _, t := range r.Tasks {
		w.Tasks = append(w.Tasks, Task{
			ID:           t.ID,
			Number:       t.Number,
			Title:        t.Title,
			SubRef:       t.SubRef,
			Indicator:    t.Indicator,
			DeadlineWeek: t.DeadlineWeek,
			Instructions: t.Instructions,
			Type:         string(t.Type),
			Output:       t.Output,
			Criteria:     t.Criteria,
			Technique:    t.Technique,
			WeightPct:    t.WeightPct,
			References:   t.References,
		})
	}
	for _, a := range r.Analysis {
		e := Analysis{
			ID:             a.ID,
			StartWeek:      a.StartWeek,
			CPMKRefs:       nonNil(a.CPMKRefs),
			SubRefs:        nonNil(a.SubRefs),
			Material:       a.Material,
			AssessmentType: a.AssessmentType,
			WeightPct:      a.WeightPct,
		}
		if a.CPLID != 0 {
			id := a.CPLID
			e.CPLID = &id
		}
		if a.EndWeek != nil {
			end := *a.EndWeek
			e.EndWeek = &end
		}
		w.Analysis = append(w.Analysis, e)
	}
	for _, b := range r.Bibliography {
		w.Bibliography = append(w.Bibliography, Bibliography{
			ID:        b.ID,
			Title:     b.Title,
			Author:    b.Author,
			Year:      b.Year,
			Publisher: b.Publisher,
			Kind:      string(b.Kind),
			ISBN:      b.ISBN,
			Pages:     b.Pages,
			URL:       b.URL,
			Mandatory: b.Mandatory,
			Order:     b.Order,
		})
	}
	return w
}

func toForm(in Info) model.RPSForm {
	sem := model.SemesterParity(strings.ToLower(in.Semester))
	if !sem.Valid() {
		sem = model.SemesterGanjil
	}
	return model.RPSForm{
		CourseID:        max(in.CourseID, 0),
		AcademicYear:    in.AcademicYear,
		Semester:        sem,
		ComposedOn:      in.ComposedOn,
		Preparer:        model.Signatory{Name: in.PreparerName, NIP: in.PreparerNIP},
		Coordinator:     model.Signatory{Name: in.CoordinatorName, NIP: in.CoordinatorNIP},
		Chair:           model.Signatory{Name: in.ChairName, NIP: in.ChairNIP},
		Faculty:         in.Faculty,
		Program:         in.Program,
		Description:     in.Description,
		OutcomeText:     in.OutcomeText,
		TeachingMethods: nonNil(in.TeachingMethods),
		Media:           nonNil(in.Media),
	}
}

func fromForm(f model.RPSForm) Info {
	return Info{
		CourseID:        f.CourseID,
		AcademicYear:    f.AcademicYear,
		Semester:        string(f.Semester),
		ComposedOn:      f.ComposedOn,
		PreparerName:    f.Preparer.Name,
		PreparerNIP:     f.Preparer.NIP,
		CoordinatorName: f.Coordinator.Name,
		CoordinatorNIP:  f.Coordinator.NIP,
		ChairName:       f.Chair.Name,
		ChairNIP:        f.Chair.NIP,
		Faculty:         f.Faculty,
		Program:         f.Program,
		Description:     f.Description,
		OutcomeText:     f.OutcomeText,
		TeachingMethods: nonNil(f.TeachingMethods),
		Media:           nonNil(f.Media),
	}
}

// entryKey is the document-local key of a CPMK or Sub-CPMK: the given key,
// else the decimal id of a persisted entry, else a fresh UUID.
func entryKey(key string, id model.EntryID) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	if v, ok := id.Value(); ok {
		return strconv.FormatInt(v, 10)
	}
	return uuid.NewString()
}

func week(n int) int {
	return min(max(n, editor.MinWeek), editor.MaxWeek)
}

func pct(f float64) float64 {
	return min(max(f, 0), 100)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
