package editor

import (
	"strings"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Task fields.
var (
	TaskNumber = newField("nomor", func(t *model.TaskAssignment, v Value) {
		t.Number = max(v.intOr(1), 1)
	})
	TaskTitle = newField("judul", func(t *model.TaskAssignment, v Value) {
		t.Title = v.String()
	})
	TaskSubRef = newField("sub_cpmk_ref", func(t *model.TaskAssignment, v Value) {
		t.SubRef = v.String()
	})
	TaskIndicator = newField("indikator", func(t *model.TaskAssignment, v Value) {
		t.Indicator = v.String()
	})
	TaskDeadline = newField("batas_minggu", func(t *model.TaskAssignment, v Value) {
		t.DeadlineWeek = clamp(v.intOr(MinWeek), MinWeek, MaxWeek)
	})
	TaskInstructions = newField("petunjuk", func(t *model.TaskAssignment, v Value) {
		t.Instructions = v.String()
	})
	// TaskKind ignores values other than individu and kelompok.
	TaskKind = newField("jenis", func(t *model.TaskAssignment, v Value) {
		if tt := model.TaskType(strings.ToLower(strings.TrimSpace(v.String()))); tt.Valid() {
			t.Type = tt
		}
	})
	TaskOutput = newField("luaran", func(t *model.TaskAssignment, v Value) {
		t.Output = v.String()
	})
	TaskCriteria = newField("kriteria_penilaian", func(t *model.TaskAssignment, v Value) {
		t.Criteria = v.String()
	})
	TaskTechnique = newField("teknik_penilaian", func(t *model.TaskAssignment, v Value) {
		t.Technique = v.String()
	})
	TaskWeight = newField("bobot", func(t *model.TaskAssignment, v Value) {
		t.WeightPct = clampPct(v.floatOr(0))
	})
	TaskReferences = newField("referensi", func(t *model.TaskAssignment, v Value) {
		t.References = v.String()
	})
)

var taskFields = fieldsOf(TaskNumber, TaskTitle, TaskSubRef, TaskIndicator, TaskDeadline,
	TaskInstructions, TaskKind, TaskOutput, TaskCriteria, TaskTechnique, TaskWeight, TaskReferences)

// TaskField looks up a task field by wire name.
func TaskField(name string) (Field[model.TaskAssignment], bool) { return taskFields.lookup(name) }

// AddTask appends an individual task with the next task number.
func (d *Document) AddTask() {
	if d.readOnly {
		return
	}
	d.SetTasks(appended(d.tasks, model.TaskAssignment{
		Number:       len(d.tasks) + 1,
		DeadlineWeek: MinWeek,
		Type:         model.TaskIndividual,
	}))
}

// UpdateTask sets one field of the task at index i.
func (d *Document) UpdateTask(i int, f Field[model.TaskAssignment], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next, ok := replaced(d.tasks, i, func(t *model.TaskAssignment) { f.apply(t, v) })
	if ok {
		d.SetTasks(next)
	}
	return ok
}

// RemoveTask drops the task at index i.
func (d *Document) RemoveTask(i int) bool {
	if d.readOnly {
		return false
	}
	next, ok := without(d.tasks, i)
	if ok {
		d.SetTasks(next)
	}
	return ok
}

// TaskTotal is the sum of every task's weight percent.
func (d *Document) TaskTotal() float64 {
	return sumWeights(d.tasks, func(t model.TaskAssignment) float64 { return t.WeightPct })
}
