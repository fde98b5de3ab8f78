package editor

import (
	"strconv"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Achievement analysis fields. The week span stays ordered: a start week past
// the end week drags the end along, and an end week before the start is
// raised to it.
var (
	AnalysisStartWeek = newField("minggu_mulai", func(a *model.AnalysisEntry, v Value) {
		a.StartWeek = clamp(v.intOr(MinWeek), MinWeek, MaxWeek)
		if a.EndWeek != nil && *a.EndWeek < a.StartWeek {
			end := a.StartWeek
			a.EndWeek = &end
		}
	})
	AnalysisEndWeek = newField("minggu_selesai", func(a *model.AnalysisEntry, v Value) {
		if v.Kind() == KindNull || v.String() == "" {
			a.EndWeek = nil
			return
		}
		end := max(clamp(v.intOr(a.StartWeek), MinWeek, MaxWeek), a.StartWeek)
		a.EndWeek = &end
	})
	AnalysisCPL = newField("cpl_id", func(a *model.AnalysisEntry, v Value) {
		id, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			id = 0
		}
		a.CPLID = id
	})
	AnalysisCPMKRefs = newField("cpmk_refs", func(a *model.AnalysisEntry, v Value) {
		a.CPMKRefs = v.lines()
	})
	AnalysisSubRefs = newField("sub_cpmk_refs", func(a *model.AnalysisEntry, v Value) {
		a.SubRefs = v.lines()
	})
	AnalysisMaterial = newField("materi", func(a *model.AnalysisEntry, v Value) {
		a.Material = v.String()
	})
	AnalysisAssessment = newField("jenis_penilaian", func(a *model.AnalysisEntry, v Value) {
		a.AssessmentType = v.String()
	})
	AnalysisWeight = newField("bobot", func(a *model.AnalysisEntry, v Value) {
		a.WeightPct = clampPct(v.floatOr(0))
	})
)

var analysisFields = fieldsOf(AnalysisStartWeek, AnalysisEndWeek, AnalysisCPL, AnalysisCPMKRefs,
	AnalysisSubRefs, AnalysisMaterial, AnalysisAssessment, AnalysisWeight)

// AnalysisField looks up an analysis field by wire name.
func AnalysisField(name string) (Field[model.AnalysisEntry], bool) { return analysisFields.lookup(name) }

// AddAnalysis appends an entry starting at week 1 with an open end.
func (d *Document) AddAnalysis() {
	if d.readOnly {
		return
	}
	d.SetAnalysis(appended(d.analysis, model.AnalysisEntry{
		StartWeek: MinWeek,
		CPMKRefs:  []string{},
		SubRefs:   []string{},
	}))
}

// UpdateAnalysis sets one field of the entry at index i.
func (d *Document) UpdateAnalysis(i int, f Field[model.AnalysisEntry], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next, ok := replaced(d.analysis, i, func(a *model.AnalysisEntry) { f.apply(a, v) })
	if ok {
		d.SetAnalysis(next)
	}
	return ok
}

// RemoveAnalysis drops the entry at index i.
func (d *Document) RemoveAnalysis(i int) bool {
	if d.readOnly {
		return false
	}
	next, ok := without(d.analysis, i)
	if ok {
		d.SetAnalysis(next)
	}
	return ok
}

// ToggleAnalysisCPMK adds or removes a CPMK reference on the entry at index i.
func (d *Document) ToggleAnalysisCPMK(i int, key string) bool {
	if d.readOnly {
		return false
	}
	next, ok := replaced(d.analysis, i, func(a *model.AnalysisEntry) {
		a.CPMKRefs = toggled(a.CPMKRefs, key)
	})
	if ok {
		d.SetAnalysis(next)
	}
	return ok
}

// ToggleAnalysisSub adds or removes a Sub-CPMK reference on the entry at index i.
func (d *Document) ToggleAnalysisSub(i int, key string) bool {
	if d.readOnly {
		return false
	}
	next, ok := replaced(d.analysis, i, func(a *model.AnalysisEntry) {
		a.SubRefs = toggled(a.SubRefs, key)
	})
	if ok {
		d.SetAnalysis(next)
	}
	return ok
}

// AnalysisTotal is the sum of every entry's contribution weight.
func (d *Document) AnalysisTotal() float64 {
	return sumWeights(d.analysis, func(a model.AnalysisEntry) float64 { return a.WeightPct })
}
