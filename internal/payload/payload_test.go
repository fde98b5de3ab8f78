package payload

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pavelanni/rpsplanner/internal/editor"
	"github.com/pavelanni/rpsplanner/internal/model"
)

const storedDoc = `{
	"id": 3,
	"status": "draft",
	"info": {
		"mata_kuliah_id": 5,
		"tahun_akademik": "2025/2026",
		"semester": "genap",
		"tanggal_penyusunan": "2026-01-12",
		"penyusun_nama": "Rina",
		"penyusun_nip": "1987",
		"fakultas": "Teknik",
		"program_studi": "Informatika",
		"deskripsi": "Struktur data lanjut",
		"metode_pembelajaran": ["Ceramah", "Diskusi"],
		"media_pembelajaran": ["LMS"]
	},
	"cpmk": [
		{"id": 10, "key": "10", "kode": "CPMK-01", "deskripsi": "Graf", "cpl_ids": [1, 2]},
		{"id": 11, "key": "11", "kode": "CPMK-02", "deskripsi": "Pohon", "cpl_ids": []}
	],
	"sub_cpmk": [
		{"id": 20, "key": "20", "cpmk_ref": "10", "kode": "Sub-CPMK-1.1", "deskripsi": "BFS", "urutan": 1},
		{"id": 21, "key": "21", "cpmk_ref": "10", "kode": "Sub-CPMK-1.2", "deskripsi": "DFS", "urutan": 2},
		{"id": 22, "key": "22", "cpmk_ref": "11", "kode": "Sub-CPMK-2.1", "deskripsi": "AVL", "urutan": 1}
	],
	"rencana_mingguan": [
		{"id": 30, "minggu_ke": 1, "sub_cpmk_ref": "20", "materi": "BFS", "sub_materi": ["antrian"], "metode": "Ceramah", "durasi_menit": 150, "teknik_penilaian": "Kuis", "kriteria_penilaian": "Ketepatan", "bobot": 10}
	],
	"tugas": [
		{"id": 40, "nomor": 1, "judul": "Implementasi BFS", "sub_cpmk_ref": "20", "indikator": "Benar", "batas_minggu": 3, "petunjuk": "Kerjakan", "jenis": "kelompok", "luaran": "Kode", "kriteria_penilaian": "Rubrik", "teknik_penilaian": "Proyek", "bobot": 20, "referensi": "Cormen"}
	],
	"analisis": [
		{"id": 50, "minggu_mulai": 1, "minggu_selesai": 4, "cpl_id": 1, "cpmk_refs": ["10"], "sub_cpmk_refs": ["20", "21"], "materi": "Graf", "jenis_penilaian": "Tes", "bobot": 25},
		{"id": 51, "minggu_mulai": 5, "minggu_selesai": null, "cpl_id": null, "cpmk_refs": [], "sub_cpmk_refs": [], "materi": "", "jenis_penilaian": "", "bobot": 0}
	],
	"pustaka": [
		{"id": 60, "judul": "Introduction to Algorithms", "penulis": "Cormen", "tahun": 2009, "penerbit": "MIT", "jenis": "buku", "isbn": "978", "halaman": "1312", "url": "", "is_wajib": true, "urutan": 1},
		{"id": 61, "judul": "Graph Survey", "penulis": "Lee", "tahun": 2020, "penerbit": "ACM", "jenis": "jurnal", "isbn": "", "halaman": "", "url": "https://example.org", "is_wajib": false, "urutan": 2}
	]
}`

func decodeDoc(t *testing.T, raw string) Document {
	t.Helper()
	w, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return w
}

func TestRoundTrip(t *testing.T) {
	in := decodeDoc(t, storedDoc)
	out := Serialize(Hydrate(in, nil))
	if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip changed the document (-in +out):\n%s", diff)
	}

	// Byte-level: encoding the result again decodes to the same value.
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again := decodeDoc(t, string(b))
	if diff := cmp.Diff(out, again, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("re-encoded document differs (-want +got):\n%s", diff)
	}
}

func TestHydrateGroupsSubCPMK(t *testing.T) {
	w := decodeDoc(t, storedDoc)
	// Shuffle the rows so grouping and ordering have work to do.
	w.SubCPMK = []SubCPMK{w.SubCPMK[2], w.SubCPMK[1], w.SubCPMK[0]}
	w.SubCPMK = append(w.SubCPMK, SubCPMK{CPMKRef: "99", Code: "orphan"})

	d := Hydrate(w, nil)
	groups := d.SubOutcomeGroups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	var codes []string
	for _, s := range groups[0] {
		codes = append(codes, s.Code)
	}
	if diff := cmp.Diff([]string{"Sub-CPMK-1.1", "Sub-CPMK-1.2"}, codes); diff != "" {
		t.Errorf("group 0 (-want +got):\n%s", diff)
	}
	if len(groups[1]) != 1 || groups[1][0].Code != "Sub-CPMK-2.1" {
		t.Errorf("group 1: %+v", groups[1])
	}
}

func TestHydrateDefaultSubOrder(t *testing.T) {
	w := decodeDoc(t, storedDoc)
	for i := range w.SubCPMK {
		w.SubCPMK[i].Order = 0
	}

	groups := Hydrate(w, nil).SubOutcomeGroups()
	var got [][]int
	for _, g := range groups {
		var orders []int
		for _, s := range g {
			orders = append(orders, s.Order)
		}
		got = append(got, orders)
	}
	if diff := cmp.Diff([][]int{{1, 2}, {1}}, got); diff != "" {
		t.Errorf("orders (-want +got):\n%s", diff)
	}
}

func TestHydrateDefaults(t *testing.T) {
	// Values outside the schema enums are decoded directly, as a client
	// skipping the schema check would send them.
	var w Document
	err := json.Unmarshal([]byte(`{
		"info": {"semester": "pendek"},
		"sub_cpmk": [{"cpmk_ref": "x"}],
		"rencana_mingguan": [{"minggu_ke": 0, "bobot": 0}],
		"tugas": [{}, {"jenis": "solo"}],
		"analisis": [{"minggu_mulai": 6, "minggu_selesai": 2}],
		"pustaka": [{"jenis": "podcast"}]
	}`), &w)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	d := Hydrate(w, nil)

	if got := d.Form().Semester; got != model.SemesterGanjil {
		t.Errorf("semester: got %q", got)
	}
	if got := len(d.CourseOutcomes()); got != 1 {
		t.Fatalf("expected one blank CPMK, got %d", got)
	}
	if got := len(d.SubOutcomes()); got != 0 {
		t.Errorf("orphan sub-cpmk kept: %d", got)
	}
	if got := d.WeeklyPlan()[0].Week; got != 1 {
		t.Errorf("week: got %d", got)
	}
	if d.WeeklyPlan()[0].SubTopics == nil {
		t.Error("expected empty sub-topics, got nil")
	}
	tasks := d.Tasks()
	if tasks[0].Number != 1 || tasks[1].Number != 2 || tasks[1].Type != model.TaskIndividual {
		t.Errorf("tasks: %+v", tasks)
	}
	if e := d.Analysis()[0].EndWeek; e == nil || *e != 6 {
		t.Errorf("end week: got %v", e)
	}
	if b := d.Bibliography()[0]; b.Kind != model.KindBook || b.Order != 1 {
		t.Errorf("bibliography: %+v", b)
	}
}

func TestKeysForUnsavedEntries(t *testing.T) {
	w := decodeDoc(t, `{
		"info": {},
		"cpmk": [{"id": 7, "kode": "CPMK-01"}, {"kode": "CPMK-02"}]
	}`)
	d := Hydrate(w, nil)
	cs := d.CourseOutcomes()
	if cs[0].Key != "7" {
		t.Errorf("persisted key: got %q", cs[0].Key)
	}
	if cs[1].Key == "" || cs[1].Key == cs[0].Key {
		t.Errorf("new entry key: got %q", cs[1].Key)
	}
	if !cs[1].ID.IsNew() {
		t.Error("expected a new entry")
	}

	out := Serialize(d)
	b, err := json.Marshal(out.CPMK[1])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := m["id"]; ok {
		t.Errorf("new entry should omit id: %s", b)
	}
}

func TestSerializeAfterEdits(t *testing.T) {
	d := Hydrate(decodeDoc(t, storedDoc), nil)
	d.AddSubOutcome(1)
	d.RemoveCourseOutcome(0)

	out := Serialize(d)
	if len(out.CPMK) != 1 || out.CPMK[0].Code != "CPMK-02" {
		t.Fatalf("cpmk: %+v", out.CPMK)
	}
	if len(out.SubCPMK) != 2 {
		t.Fatalf("expected 2 sub-cpmk rows, got %d", len(out.SubCPMK))
	}
	for _, s := range out.SubCPMK {
		if s.CPMKRef != "11" {
			t.Errorf("sub-cpmk %q points at %q", s.Code, s.CPMKRef)
		}
	}
	if !out.SubCPMK[1].ID.IsNew() {
		t.Error("added sub-cpmk should be new")
	}
	// Weekly plan still references a removed Sub-CPMK; serialization keeps it.
	if out.WeeklyPlan[0].SubRef != "20" {
		t.Errorf("weekly ref: %q", out.WeeklyPlan[0].SubRef)
	}
	if v := editor.Render(d); v.WeeklyPlan[0].SubCode != editor.Placeholder {
		t.Errorf("expected placeholder, got %q", v.WeeklyPlan[0].SubCode)
	}
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"stored document", storedDoc, false},
		{"minimal", `{"info": {}}`, false},
		{"missing info", `{"cpmk": []}`, true},
		{"week out of range", `{"info": {}, "rencana_mingguan": [{"minggu_ke": 17}]}`, true},
		{"weight out of range", `{"info": {}, "tugas": [{"bobot": 101}]}`, true},
		{"bad status", `{"info": {}, "status": "archived"}`, true},
		{"sub-cpmk without parent ref", `{"info": {}, "sub_cpmk": [{"kode": "x"}]}`, true},
		{"string id", `{"info": {}, "cpmk": [{"id": "10"}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchema([]byte(tt.raw))
			if tt.wantErr {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Fatalf("expected SchemaError, got %v", err)
				}
				if len(se.Problems) == 0 {
					t.Error("expected at least one problem")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckSchemaMalformedJSON(t *testing.T) {
	err := CheckSchema([]byte(`{"info":`))
	if err == nil {
		t.Fatal("expected error")
	}
	var se *SchemaError
	if errors.As(err, &se) {
		t.Error("malformed JSON is not a schema violation")
	}
}
