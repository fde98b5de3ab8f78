package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Collection names used by Op.
const (
	CollectionForm         = "form"
	CollectionCPMK         = "cpmk"
	CollectionSubCPMK      = "sub_cpmk"
	CollectionWeeklyPlan   = "rencana_mingguan"
	CollectionTasks        = "tugas"
	CollectionAnalysis     = "analisis"
	CollectionBibliography = "pustaka"
)

// Op actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
	ActionToggle = "toggle"
)

var (
	ErrReadOnly          = errors.New("document is read-only")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnknownField      = errors.New("unknown field")
	ErrBadReference      = errors.New("bad reference")
)

// Op is one edit operation as sent by a client. For sub_cpmk operations
// Parent is the index of the owning CPMK and Index the position inside it.
// Toggle uses Ref; on analisis entries Field selects cpmk_refs or sub_cpmk_refs.
type Op struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	Index      int    `json:"index"`
	Parent     int    `json:"parent,omitempty"`
	Field      string `json:"field,omitempty"`
	Value      Value  `json:"value,omitzero"`
	Ref        string `json:"ref,omitempty"`
}

// Apply runs ops in order against a copy of d and installs the result only
// when every op is well formed. Out-of-range indexes are not errors; those
// ops leave the document as it was, like the per-collection methods do.
func Apply(d *Document, ops []Op) error {
	if d.readOnly {
		return ErrReadOnly
	}
	work := d.Clone()
	for i, op := range ops {
		if err := work.apply(op); err != nil {
			return fmt.Errorf("op %d (%s %s): %w", i, op.Action, op.Collection, err)
		}
	}
	*d = *work
	return nil
}

func (d *Document) apply(op Op) error {
	switch op.Collection {
	case CollectionForm:
		if op.Action != ActionUpdate {
			return ErrUnknownAction
		}
		f, ok := FormField(op.Field)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownField, op.Field)
		}
		d.UpdateForm(f, op.Value)
		return nil

	case CollectionCPMK:
		switch op.Action {
		case ActionToggle:
			id, err := strconv.ParseInt(strings.TrimSpace(op.Ref), 10, 64)
			if err != nil {
				return fmt.Errorf("%w %q", ErrBadReference, op.Ref)
			}
			d.ToggleCourseOutcomeCPL(op.Index, id)
			return nil
		}
		return applyCollection(op, cpmkFields, d.AddCourseOutcome, d.UpdateCourseOutcome, d.RemoveCourseOutcome)

	case CollectionSubCPMK:
		switch op.Action {
		case ActionAdd:
			d.AddSubOutcome(op.Parent)
		case ActionUpdate:
			f, ok := SubField(op.Field)
			if !ok {
				return fmt.Errorf("%w %q", ErrUnknownField, op.Field)
			}
			d.UpdateSubOutcome(op.Parent, op.Index, f, op.Value)
		case ActionRemove:
			d.RemoveSubOutcome(op.Parent, op.Index)
		default:
			return ErrUnknownAction
		}
		return nil

	case CollectionWeeklyPlan:
		return applyCollection(op, weeklyPlanFields, d.AddWeeklyPlan, d.UpdateWeeklyPlan, d.RemoveWeeklyPlan)

	case CollectionTasks:
		return applyCollection(op, taskFields, d.AddTask, d.UpdateTask, d.RemoveTask)

	case CollectionAnalysis:
		if op.Action == ActionToggle {
			switch op.Field {
			case AnalysisCPMKRefs.Name():
				d.ToggleAnalysisCPMK(op.Index, op.Ref)
			case AnalysisSubRefs.Name():
				d.ToggleAnalysisSub(op.Index, op.Ref)
			default:
				return fmt.Errorf("%w %q", ErrUnknownField, op.Field)
			}
			return nil
		}
		return applyCollection(op, analysisFields, d.AddAnalysis, d.UpdateAnalysis, d.RemoveAnalysis)

	case CollectionBibliography:
		return applyCollection(op, bibliographyFields, d.AddBibliography, d.UpdateBibliography, d.RemoveBibliography)
	}
	return fmt.Errorf("%w %q", ErrUnknownCollection, op.Collection)
}

// applyCollection dispatches the add, update and remove actions shared by
// every flat collection.
func applyCollection[T any](op Op, fields fieldSet[T], add func(),
	update func(int, Field[T], Value) bool, remove func(int) bool) error {
	switch op.Action {
	case ActionAdd:
		add()
	case ActionUpdate:
		f, ok := fields.lookup(op.Field)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownField, op.Field)
		}
		update(op.Index, f, op.Value)
	case ActionRemove:
		remove(op.Index)
	default:
		return ErrUnknownAction
	}
	return nil
}
