package editor

import (
	"cmp"
	"slices"

	"github.com/pavelanni/rpsplanner/internal/model"
)

const (
	// MinWeek and MaxWeek bound every week number of a semester.
	MinWeek = 1
	MaxWeek = 16

	defaultDuration = 150
)

// Weekly plan fields.
var (
	WeekNumber = newField("minggu_ke", func(e *model.WeeklyPlanEntry, v Value) {
		e.Week = clamp(v.intOr(MinWeek), MinWeek, MaxWeek)
	})
	WeekSubRef = newField("sub_cpmk_ref", func(e *model.WeeklyPlanEntry, v Value) {
		e.SubRef = v.String()
	})
	WeekTopic = newField("materi", func(e *model.WeeklyPlanEntry, v Value) {
		e.Topic = v.String()
	})
	WeekSubTopics = newField("sub_materi", func(e *model.WeeklyPlanEntry, v Value) {
		e.SubTopics = v.lines()
	})
	WeekMethod = newField("metode", func(e *model.WeeklyPlanEntry, v Value) {
		e.Method = v.String()
	})
	WeekDuration = newField("durasi_menit", func(e *model.WeeklyPlanEntry, v Value) {
		e.Duration = max(v.intOr(0), 0)
	})
	WeekTechnique = newField("teknik_penilaian", func(e *model.WeeklyPlanEntry, v Value) {
		e.Technique = v.String()
	})
	WeekCriteria = newField("kriteria_penilaian", func(e *model.WeeklyPlanEntry, v Value) {
		e.Criteria = v.String()
	})
	WeekWeight = newField("bobot", func(e *model.WeeklyPlanEntry, v Value) {
		e.WeightPct = clampPct(v.floatOr(0))
	})
)

var weeklyPlanFields = fieldsOf(WeekNumber, WeekSubRef, WeekTopic, WeekSubTopics,
	WeekMethod, WeekDuration, WeekTechnique, WeekCriteria, WeekWeight)

// WeeklyPlanField looks up a weekly plan field by wire name.
func WeeklyPlanField(name string) (Field[model.WeeklyPlanEntry], bool) {
	return weeklyPlanFields.lookup(name)
}

// AddWeeklyPlan appends an entry for the week after the last one.
func (d *Document) AddWeeklyPlan() {
	if d.readOnly {
		return
	}
	d.SetWeeklyPlan(appended(d.weeklyPlan, model.WeeklyPlanEntry{
		Week:      clamp(len(d.weeklyPlan)+1, MinWeek, MaxWeek),
		SubTopics: []string{},
		Duration:  defaultDuration,
	}))
}

// UpdateWeeklyPlan sets one field of the entry at index i.
func (d *Document) UpdateWeeklyPlan(i int, f Field[model.WeeklyPlanEntry], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next, ok := replaced(d.weeklyPlan, i, func(e *model.WeeklyPlanEntry) { f.apply(e, v) })
	if ok {
		d.SetWeeklyPlan(next)
	}
	return ok
}

// RemoveWeeklyPlan drops the entry at index i.
func (d *Document) RemoveWeeklyPlan(i int) bool {
	if d.readOnly {
		return false
	}
	next, ok := without(d.weeklyPlan, i)
	if ok {
		d.SetWeeklyPlan(next)
	}
	return ok
}

// WeeklyPlanTotal is the sum of every entry's weight percent.
func (d *Document) WeeklyPlanTotal() float64 {
	return sumWeights(d.weeklyPlan, func(e model.WeeklyPlanEntry) float64 { return e.WeightPct })
}

// WeeklyPlanByWeek returns the entries ordered by week, ties kept in insertion order.
func (d *Document) WeeklyPlanByWeek() []model.WeeklyPlanEntry {
	out := slices.Clone(d.weeklyPlan)
	slices.SortStableFunc(out, func(a, b model.WeeklyPlanEntry) int { return cmp.Compare(a.Week, b.Week) })
	return out
}
