package editor

import (
	"fmt"
	"strconv"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// CPMK fields.
var (
	CPMKCode = newField("kode", func(c *model.CourseOutcome, v Value) {
		c.Code = v.String()
	})
	CPMKDescription = newField("deskripsi", func(c *model.CourseOutcome, v Value) {
		c.Description = v.String()
	})
	CPMKLearningOutcomes = newField("cpl_ids", func(c *model.CourseOutcome, v Value) {
		c.CPLIDs = parseIDs(v.lines())
	})
)

var cpmkFields = fieldsOf(CPMKCode, CPMKDescription, CPMKLearningOutcomes)

// CPMKField looks up a CPMK field by wire name.
func CPMKField(name string) (Field[model.CourseOutcome], bool) { return cpmkFields.lookup(name) }

func (d *Document) blankCourseOutcome(n int) model.CourseOutcome {
	return model.CourseOutcome{
		Key:  d.newKey(),
		Code: fmt.Sprintf("CPMK-%02d", n+1),
		Subs: []model.SubOutcome{},
	}
}

// AddCourseOutcome appends a CPMK with the next sequential code and an empty
// Sub-CPMK list.
func (d *Document) AddCourseOutcome() {
	if d.readOnly {
		return
	}
	d.SetCourseOutcomes(appended(d.cpmk, d.blankCourseOutcome(len(d.cpmk))))
}

// UpdateCourseOutcome sets one field of the CPMK at index i.
func (d *Document) UpdateCourseOutcome(i int, f Field[model.CourseOutcome], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next, ok := replaced(d.cpmk, i, func(c *model.CourseOutcome) { f.apply(c, v) })
	if ok {
		d.SetCourseOutcomes(next)
	}
	return ok
}

// RemoveCourseOutcome drops the CPMK at index i together with its Sub-CPMK.
// The last remaining CPMK is never removed.
func (d *Document) RemoveCourseOutcome(i int) bool {
	if d.readOnly || len(d.cpmk) <= 1 {
		return false
	}
	next, ok := without(d.cpmk, i)
	if ok {
		d.SetCourseOutcomes(next)
	}
	return ok
}

// ToggleCourseOutcomeCPL adds or removes a CPL reference on the CPMK at index i.
func (d *Document) ToggleCourseOutcomeCPL(i int, cplID int64) bool {
	if d.readOnly {
		return false
	}
	next, ok := replaced(d.cpmk, i, func(c *model.CourseOutcome) {
		c.CPLIDs = toggled(c.CPLIDs, cplID)
	})
	if ok {
		d.SetCourseOutcomes(next)
	}
	return ok
}

func parseIDs(items []string) []int64 {
	ids := make([]int64, 0, len(items))
	for _, s := range items {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
