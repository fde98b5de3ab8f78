package editor

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Sub-CPMK fields.
var (
	SubCode = newField("kode", func(s *model.SubOutcome, v Value) {
		s.Code = v.String()
	})
	SubDescription = newField("deskripsi", func(s *model.SubOutcome, v Value) {
		s.Description = v.String()
	})
	SubOrder = newField("urutan", func(s *model.SubOutcome, v Value) {
		s.Order = max(v.intOr(1), 1)
	})
)

var subFields = fieldsOf(SubCode, SubDescription, SubOrder)

// SubField looks up a Sub-CPMK field by wire name.
func SubField(name string) (Field[model.SubOutcome], bool) { return subFields.lookup(name) }

// SubOutcomeGroups returns the Sub-CPMK lists of every CPMK, position i holding
// the entries of CPMK i. Its length always equals len(CourseOutcomes()).
func (d *Document) SubOutcomeGroups() [][]model.SubOutcome {
	groups := make([][]model.SubOutcome, len(d.cpmk))
	for i, c := range d.cpmk {
		groups[i] = c.Subs
	}
	return groups
}

// SubOutcomes returns every Sub-CPMK in CPMK order, each list sorted by its
// ordering index.
func (d *Document) SubOutcomes() []model.SubOutcome {
	var all []model.SubOutcome
	for _, c := range d.cpmk {
		all = append(all, sortedSubs(c.Subs)...)
	}
	return all
}

// AddSubOutcome appends a Sub-CPMK to the CPMK at index ci.
func (d *Document) AddSubOutcome(ci int) bool {
	if d.readOnly {
		return false
	}
	next, ok := replaced(d.cpmk, ci, func(c *model.CourseOutcome) {
		n := len(c.Subs) + 1
		c.Subs = appended(c.Subs, model.SubOutcome{
			Key:   d.newKey(),
			Code:  fmt.Sprintf("Sub-CPMK-%d.%d", ci+1, n),
			Order: n,
		})
	})
	if ok {
		d.SetCourseOutcomes(next)
	}
	return ok
}

// UpdateSubOutcome sets one field of Sub-CPMK si of CPMK ci.
func (d *Document) UpdateSubOutcome(ci, si int, f Field[model.SubOutcome], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	applied := false
	next, ok := replaced(d.cpmk, ci, func(c *model.CourseOutcome) {
		c.Subs, applied = replaced(c.Subs, si, func(s *model.SubOutcome) { f.apply(s, v) })
	})
	if ok && applied {
		d.SetCourseOutcomes(next)
	}
	return ok && applied
}

// RemoveSubOutcome drops Sub-CPMK si of CPMK ci.
func (d *Document) RemoveSubOutcome(ci, si int) bool {
	if d.readOnly {
		return false
	}
	removed := false
	next, ok := replaced(d.cpmk, ci, func(c *model.CourseOutcome) {
		c.Subs, removed = without(c.Subs, si)
	})
	if ok && removed {
		d.SetCourseOutcomes(next)
	}
	return ok && removed
}

func sortedSubs(subs []model.SubOutcome) []model.SubOutcome {
	out := slices.Clone(subs)
	slices.SortStableFunc(out, func(a, b model.SubOutcome) int { return cmp.Compare(a.Order, b.Order) })
	return out
}
