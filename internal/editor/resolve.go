package editor

import "strconv"

// Placeholder is shown for a reference that does not resolve.
const Placeholder = "-"

// CPLCode returns the code of the learning outcome with the given id.
func (d *Document) CPLCode(id int64) string {
	for _, c := range d.cpl {
		if c.ID == id {
			return c.Code
		}
	}
	return Placeholder
}

// CPMKCode returns the code of the CPMK with the given key.
func (d *Document) CPMKCode(key string) string {
	if key == "" {
		return Placeholder
	}
	for _, c := range d.cpmk {
		if c.Key == key {
			return c.Code
		}
	}
	return Placeholder
}

// SubCode returns the code of the Sub-CPMK with the given key.
func (d *Document) SubCode(key string) string {
	if key == "" {
		return Placeholder
	}
	for _, c := range d.cpmk {
		for _, s := range c.Subs {
			if s.Key == key {
				return s.Code
			}
		}
	}
	return Placeholder
}

// DanglingRef locates a reference that no longer points at an entry.
type DanglingRef struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	Field      string `json:"field"`
	Ref        string `json:"ref"`
}

// Dangling lists every cross-reference that does not resolve. Empty
// single-valued references are unset rather than dangling.
func (d *Document) Dangling() []DanglingRef {
	var out []DanglingRef
	add := func(coll string, i int, field, ref string) {
		out = append(out, DanglingRef{Collection: coll, Index: i, Field: field, Ref: ref})
	}
	for i, c := range d.cpmk {
		for _, id := range c.CPLIDs {
			if d.CPLCode(id) == Placeholder {
				add(CollectionCPMK, i, CPMKLearningOutcomes.Name(), strconv.FormatInt(id, 10))
			}
		}
	}
	for i, w := range d.weeklyPlan {
		if w.SubRef != "" && d.SubCode(w.SubRef) == Placeholder {
			add(CollectionWeeklyPlan, i, WeekSubRef.Name(), w.SubRef)
		}
	}
	for i, t := range d.tasks {
		if t.SubRef != "" && d.SubCode(t.SubRef) == Placeholder {
			add(CollectionTasks, i, TaskSubRef.Name(), t.SubRef)
		}
	}
	for i, a := range d.analysis {
		if a.CPLID != 0 && d.CPLCode(a.CPLID) == Placeholder {
			add(CollectionAnalysis, i, AnalysisCPL.Name(), strconv.FormatInt(a.CPLID, 10))
		}
		for _, k := range a.CPMKRefs {
			if d.CPMKCode(k) == Placeholder {
				add(CollectionAnalysis, i, AnalysisCPMKRefs.Name(), k)
			}
		}
		for _, k := range a.SubRefs {
			if d.SubCode(k) == Placeholder {
				add(CollectionAnalysis, i, AnalysisSubRefs.Name(), k)
			}
		}
	}
	return out
}

func (d *Document) cplCodes(ids []int64) []string {
	codes := make([]string, len(ids))
	for i, id := range ids {
		codes[i] = d.CPLCode(id)
	}
	return codes
}

func codesOf(keys []string, resolve func(string) string) []string {
	codes := make([]string, len(keys))
	for i, k := range keys {
		codes[i] = resolve(k)
	}
	return codes
}
