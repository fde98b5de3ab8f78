package editor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pavelanni/rpsplanner/internal/model"
)

func TestApplyBatch(t *testing.T) {
	d := newTestDocument(t)
	raw := `[
		{"collection": "form", "action": "update", "field": "fakultas", "value": "Teknik"},
		{"collection": "cpmk", "action": "add"},
		{"collection": "cpmk", "action": "toggle", "index": 1, "ref": "2"},
		{"collection": "sub_cpmk", "action": "add", "parent": 1},
		{"collection": "sub_cpmk", "action": "update", "parent": 1, "index": 0, "field": "deskripsi", "value": "Memahami graf"},
		{"collection": "rencana_mingguan", "action": "add"},
		{"collection": "rencana_mingguan", "action": "update", "index": 0, "field": "sub_cpmk_ref", "value": "k3"},
		{"collection": "rencana_mingguan", "action": "update", "index": 0, "field": "bobot", "value": 25},
		{"collection": "rencana_mingguan", "action": "update", "index": 0, "field": "sub_materi", "value": ["BFS", "DFS"]},
		{"collection": "tugas", "action": "add"},
		{"collection": "tugas", "action": "update", "index": 0, "field": "jenis", "value": "kelompok"},
		{"collection": "analisis", "action": "add"},
		{"collection": "analisis", "action": "toggle", "index": 0, "field": "cpmk_refs", "ref": "k2"},
		{"collection": "analisis", "action": "update", "index": 0, "field": "minggu_selesai", "value": null},
		{"collection": "pustaka", "action": "add"},
		{"collection": "pustaka", "action": "update", "index": 0, "field": "is_wajib", "value": false},
		{"collection": "pustaka", "action": "remove", "index": 7}
	]`
	var ops []Op
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		t.Fatalf("decode ops: %v", err)
	}
	if err := Apply(d, ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := d.Form().Faculty; got != "Teknik" {
		t.Errorf("faculty: got %q", got)
	}
	c := d.CourseOutcomes()[1]
	if diff := cmp.Diff([]int64{2}, c.CPLIDs); diff != "" {
		t.Errorf("CPL ids (-want +got):\n%s", diff)
	}
	if len(c.Subs) != 1 || c.Subs[0].Key != "k3" || c.Subs[0].Description != "Memahami graf" {
		t.Errorf("sub-cpmk: got %+v", c.Subs)
	}
	w := d.WeeklyPlan()[0]
	if w.SubRef != "k3" || w.WeightPct != 25 {
		t.Errorf("weekly plan: got %+v", w)
	}
	if diff := cmp.Diff([]string{"BFS", "DFS"}, w.SubTopics); diff != "" {
		t.Errorf("sub-topics (-want +got):\n%s", diff)
	}
	if d.Tasks()[0].Type != model.TaskGroup {
		t.Errorf("task type: got %q", d.Tasks()[0].Type)
	}
	if diff := cmp.Diff([]string{"k2"}, d.Analysis()[0].CPMKRefs); diff != "" {
		t.Errorf("analysis refs (-want +got):\n%s", diff)
	}
	if d.Bibliography()[0].Mandatory {
		t.Error("expected supplementary reference")
	}
}

func TestApplyRejectsMalformedOps(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		want error
	}{
		{"collection", Op{Collection: "jadwal", Action: ActionAdd}, ErrUnknownCollection},
		{"action", Op{Collection: CollectionTasks, Action: "move"}, ErrUnknownAction},
		{"form action", Op{Collection: CollectionForm, Action: ActionAdd}, ErrUnknownAction},
		{"form field", Op{Collection: CollectionForm, Action: ActionUpdate, Field: "dekan"}, ErrUnknownField},
		{"field of another collection", Op{Collection: CollectionTasks, Action: ActionUpdate, Field: "minggu_ke"}, ErrUnknownField},
		{"sub field", Op{Collection: CollectionSubCPMK, Action: ActionUpdate, Field: "bobot"}, ErrUnknownField},
		{"cpl ref", Op{Collection: CollectionCPMK, Action: ActionToggle, Ref: "CPL-01"}, ErrBadReference},
		{"analysis toggle field", Op{Collection: CollectionAnalysis, Action: ActionToggle, Field: "materi"}, ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDocument(t)
			d.AddTask()
			before := d.RPS()
			err := Apply(d, []Op{{Collection: CollectionTasks, Action: ActionAdd}, tt.op})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if diff := cmp.Diff(before, d.RPS()); diff != "" {
				t.Errorf("failed batch changed the document (-before +after):\n%s", diff)
			}
		})
	}
}

func TestApplyReadOnly(t *testing.T) {
	d := newTestDocument(t)
	d.SetReadOnly(true)
	if err := Apply(d, []Op{{Collection: CollectionTasks, Action: ActionAdd}}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestApplyLastCourseOutcome(t *testing.T) {
	d := newTestDocument(t)
	if err := Apply(d, []Op{{Collection: CollectionCPMK, Action: ActionRemove}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(d.CourseOutcomes()) != 1 {
		t.Fatalf("expected 1 CPMK, got %d", len(d.CourseOutcomes()))
	}
}
