// Package payload maps RPS documents between their JSON wire shape and the
// editor aggregate.
package payload

import (
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// Document is the wire shape of a whole RPS. Sub-CPMK rows are flat and
// point at their CPMK through cpmk_ref.
type Document struct {
	ID           model.EntryID   `json:"id,omitzero"`
	Status       model.RPSStatus `json:"status,omitempty"`
	ReviewNote   string          `json:"catatan_review,omitempty"`
	Info         Info            `json:"info"`
	CPMK         []CPMK          `json:"cpmk"`
	SubCPMK      []SubCPMK       `json:"sub_cpmk"`
	WeeklyPlan   []WeeklyPlan    `json:"rencana_mingguan"`
	Tasks        []Task          `json:"tugas"`
	Analysis     []Analysis      `json:"analisis"`
	Bibliography []Bibliography  `json:"pustaka"`
	UpdatedAt    time.Time       `json:"updated_at,omitzero"`
}

type Info struct {
	CourseID        int64    `json:"mata_kuliah_id"`
	AcademicYear    string   `json:"tahun_akademik"`
	Semester        string   `json:"semester"`
	ComposedOn      string   `json:"tanggal_penyusunan"`
	PreparerName    string   `json:"penyusun_nama"`
	PreparerNIP     string   `json:"penyusun_nip"`
	CoordinatorName string   `json:"koordinator_nama"`
	CoordinatorNIP  string   `json:"koordinator_nip"`
	ChairName       string   `json:"kaprodi_nama"`
	ChairNIP        string   `json:"kaprodi_nip"`
	Faculty         string   `json:"fakultas"`
	Program         string   `json:"program_studi"`
	Description     string   `json:"deskripsi"`
	OutcomeText     string   `json:"capaian_pembelajaran"`
	TeachingMethods []string `json:"metode_pembelajaran"`
	Media           []string `json:"media_pembelajaran"`
}

type CPMK struct {
	ID          model.EntryID `json:"id,omitzero"`
	Key         string        `json:"key,omitempty"`
	Code        string        `json:"kode"`
	Description string        `json:"deskripsi"`
	CPLIDs      []int64       `json:"cpl_ids"`
}

type SubCPMK struct {
	ID          model.EntryID `json:"id,omitzero"`
	Key         string        `json:"key,omitempty"`
	CPMKRef     string        `json:"cpmk_ref"`
	Code        string        `json:"kode"`
	Description string        `json:"deskripsi"`
	Order       int           `json:"urutan"`
}

type WeeklyPlan struct {
	ID        model.EntryID `json:"id,omitzero"`
	Week      int           `json:"minggu_ke"`
	SubRef    string        `json:"sub_cpmk_ref"`
	Topic     string        `json:"materi"`
	SubTopics []string      `json:"sub_materi"`
	Method    string        `json:"metode"`
	Duration  int           `json:"durasi_menit"`
	Technique string        `json:"teknik_penilaian"`
	Criteria  string        `json:"kriteria_penilaian"`
	WeightPct float64       `json:"bobot"`
}

type Task struct {
	ID           model.EntryID `json:"id,omitzero"`
	Number       int           `json:"nomor"`
	Title        string        `json:"judul"`
	SubRef       string        `json:"sub_cpmk_ref"`
	Indicator    string        `json:"indikator"`
	DeadlineWeek int           `json:"batas_minggu"`
	Instructions string        `json:"petunjuk"`
	Type         string        `json:"jenis"`
	Output       string        `json:"luaran"`
	Criteria     string        `json:"kriteria_penilaian"`
	Technique    string        `json:"teknik_penilaian"`
	WeightPct    float64       `json:"bobot"`
	References   string        `json:"referensi"`
}

type Analysis struct {
	ID             model.EntryID `json:"id,omitzero"`
	StartWeek      int           `json:"minggu_mulai"`
	EndWeek        *int          `json:"minggu_selesai"`
	CPLID          *int64        `json:"cpl_id"`
	CPMKRefs       []string      `json:"cpmk_refs"`
	SubRefs        []string      `json:"sub_cpmk_refs"`
	Material       string        `json:"materi"`
	AssessmentType string        `json:"jenis_penilaian"`
	WeightPct      float64       `json:"bobot"`
}

type Bibliography struct {
	ID        model.EntryID `json:"id,omitzero"`
	Title     string        `json:"judul"`
	Author    string        `json:"penulis"`
	Year      int           `json:"tahun"`
	Publisher string        `json:"penerbit"`
	Kind      string        `json:"jenis"`
	ISBN      string        `json:"isbn"`
	Pages     string        `json:"halaman"`
	URL       string        `json:"url"`
	Mandatory bool          `json:"is_wajib"`
	Order     int           `json:"urutan"`
}
