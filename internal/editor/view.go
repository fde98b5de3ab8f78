package editor

import "github.com/pavelanni/rpsplanner/internal/model"

// View is the read-only rendering of a Document with every cross-reference
// resolved to a display code.
type View struct {
	Status         model.RPSStatus     `json:"status"`
	ReviewNote     string              `json:"review_note,omitempty"`
	Form           FormCard            `json:"info"`
	CourseOutcomes []CourseOutcomeCard `json:"cpmk"`
	WeeklyPlan     []WeeklyPlanCard    `json:"rencana_mingguan"`
	Tasks          []TaskCard          `json:"tugas"`
	Analysis       []AnalysisCard      `json:"analisis"`
	Mandatory      []BibliographyCard  `json:"pustaka_utama"`
	Supplementary  []BibliographyCard  `json:"pustaka_pendukung"`
	Totals         Totals              `json:"total_bobot"`
	Dangling       []DanglingRef       `json:"dangling,omitempty"`
}

// FormCard is the cover page of the document.
type FormCard struct {
	CourseID        int64                `json:"mata_kuliah_id"`
	AcademicYear    string               `json:"tahun_akademik"`
	Semester        model.SemesterParity `json:"semester"`
	ComposedOn      string               `json:"tanggal_penyusunan"`
	Preparer        SignatoryCard        `json:"penyusun"`
	Coordinator     SignatoryCard        `json:"koordinator"`
	Chair           SignatoryCard        `json:"kaprodi"`
	Faculty         string               `json:"fakultas"`
	Program         string               `json:"program_studi"`
	Description     string               `json:"deskripsi"`
	OutcomeText     string               `json:"capaian_pembelajaran"`
	TeachingMethods []string             `json:"metode_pembelajaran"`
	Media           []string             `json:"media_pembelajaran"`
}

type SignatoryCard struct {
	Name string `json:"nama"`
	NIP  string `json:"nip"`
}

// Totals are the weight sums of the weighted collections.
type Totals struct {
	WeeklyPlan float64 `json:"rencana_mingguan"`
	Tasks      float64 `json:"tugas"`
	Analysis   float64 `json:"analisis"`
}

type CourseOutcomeCard struct {
	Code        string    `json:"kode"`
	Description string    `json:"deskripsi"`
	CPLCodes    []string  `json:"cpl"`
	Subs        []SubCard `json:"sub_cpmk"`
}

type SubCard struct {
	Code        string `json:"kode"`
	Description string `json:"deskripsi"`
	Order       int    `json:"urutan"`
}

type WeeklyPlanCard struct {
	Week      int      `json:"minggu_ke"`
	SubCode   string   `json:"sub_cpmk"`
	Topic     string   `json:"materi"`
	SubTopics []string `json:"sub_materi"`
	Method    string   `json:"metode"`
	Duration  int      `json:"durasi_menit"`
	Technique string   `json:"teknik_penilaian"`
	Criteria  string   `json:"kriteria_penilaian"`
	WeightPct float64  `json:"bobot"`
}

type TaskCard struct {
	Number       int            `json:"nomor"`
	Title        string         `json:"judul"`
	SubCode      string         `json:"sub_cpmk"`
	Indicator    string         `json:"indikator"`
	DeadlineWeek int            `json:"batas_minggu"`
	Instructions string         `json:"petunjuk"`
	Type         model.TaskType `json:"jenis"`
	Output       string         `json:"luaran"`
	Criteria     string         `json:"kriteria_penilaian"`
	Technique    string         `json:"teknik_penilaian"`
	WeightPct    float64        `json:"bobot"`
	References   string         `json:"referensi"`
}

type AnalysisCard struct {
	StartWeek      int      `json:"minggu_mulai"`
	EndWeek        *int     `json:"minggu_selesai"`
	CPLCode        string   `json:"cpl"`
	CPMKCodes      []string `json:"cpmk"`
	SubCodes       []string `json:"sub_cpmk"`
	Material       string   `json:"materi"`
	AssessmentType string   `json:"jenis_penilaian"`
	WeightPct      float64  `json:"bobot"`
}

type BibliographyCard struct {
	Title     string                 `json:"judul"`
	Author    string                 `json:"penulis"`
	Year      int                    `json:"tahun"`
	Publisher string                 `json:"penerbit"`
	Kind      model.BibliographyKind `json:"jenis"`
	ISBN      string                 `json:"isbn,omitempty"`
	Pages     string                 `json:"halaman,omitempty"`
	URL       string                 `json:"url,omitempty"`
}

// Render builds the view-mode cards of d. Weekly plan cards are sorted by
// week, Sub-CPMK cards by their ordering index, and the bibliography is split
// on the mandatory flag. Rendering never fails on dangling references.
func Render(d *Document) View {
	v := View{
		Status:         d.status,
		ReviewNote:     d.reviewNote,
		Form:           formCard(d.form),
		CourseOutcomes: make([]CourseOutcomeCard, 0, len(d.cpmk)),
		WeeklyPlan:     make([]WeeklyPlanCard, 0, len(d.weeklyPlan)),
		Tasks:          make([]TaskCard, 0, len(d.tasks)),
		Analysis:       make([]AnalysisCard, 0, len(d.analysis)),
		Totals: Totals{
			WeeklyPlan: d.WeeklyPlanTotal(),
			Tasks:      d.TaskTotal(),
			Analysis:   d.AnalysisTotal(),
		},
		Dangling: d.Dangling(),
	}

	for _, c := range d.cpmk {
		card := CourseOutcomeCard{
			Code:        c.Code,
			Description: c.Description,
			CPLCodes:    d.cplCodes(c.CPLIDs),
			Subs:        []SubCard{},
		}
		for _, s := range sortedSubs(c.Subs) {
			card.Subs = append(card.Subs, SubCard{Code: s.Code, Description: s.Description, Order: s.Order})
		}
		v.CourseOutcomes = append(v.CourseOutcomes, card)
	}

	for _, w := range d.WeeklyPlanByWeek() {
		v.WeeklyPlan = append(v.WeeklyPlan, WeeklyPlanCard{
			Week:      w.Week,
			SubCode:   d.SubCode(w.SubRef),
			Topic:     w.Topic,
			SubTopics: append([]string{}, w.SubTopics...),
			Method:    w.Method,
			Duration:  w.Duration,
			Technique: w.Technique,
			Criteria:  w.Criteria,
			WeightPct: w.WeightPct,
		})
	}

	for _, t := range d.tasks {
		v.Tasks = append(v.Tasks, TaskCard{
			Number:       t.Number,
			Title:        t.Title,
			SubCode:      d.SubCode(t.SubRef),
			Indicator:    t.Indicator,
			DeadlineWeek: t.DeadlineWeek,
			Instructions: t.Instructions,
			Type:         t.Type,
			Output:       t.Output,
			Criteria:     t.Criteria,
			Technique:    t.Technique,
			WeightPct:    t.WeightPct,
			References:   t.References,
		})
	}

	for _, a := range d.analysis {
		card := AnalysisCard{
			StartWeek:      a.StartWeek,
			CPLCode:        d.CPLCode(a.CPLID),
			CPMKCodes:      codesOf(a.CPMKRefs, d.CPMKCode),
			SubCodes:       codesOf(a.SubRefs, d.SubCode),
			Material:       a.Material,
			AssessmentType: a.AssessmentType,
			WeightPct:      a.WeightPct,
		}
		if a.EndWeek != nil {
			end := *a.EndWeek
			card.EndWeek = &end
		}
		v.Analysis = append(v.Analysis, card)
	}

	v.Mandatory = bibliographyCards(d.MandatoryReferences())
	v.Supplementary = bibliographyCards(d.SupplementaryReferences())
	return v
}

func bibliographyCards(entries []model.BibliographyEntry) []BibliographyCard {
	cards := make([]BibliographyCard, 0, len(entries))
	for _, b := range entries {
		cards = append(cards, BibliographyCard{
			Title:     b.Title,
			Author:    b.Author,
			Year:      b.Year,
			Publisher: b.Publisher,
			Kind:      b.Kind,
			ISBN:      b.ISBN,
			Pages:     b.Pages,
			URL:       b.URL,
		})
	}
	return cards
}

func formCard(f model.RPSForm) FormCard {
	return FormCard{
		CourseID:        f.CourseID,
		AcademicYear:    f.AcademicYear,
		Semester:        f.Semester,
		ComposedOn:      f.ComposedOn,
		Preparer:        SignatoryCard(f.Preparer),
		Coordinator:     SignatoryCard(f.Coordinator),
		Chair:           SignatoryCard(f.Chair),
		Faculty:         f.Faculty,
		Program:         f.Program,
		Description:     f.Description,
		OutcomeText:     f.OutcomeText,
		TeachingMethods: append([]string{}, f.TeachingMethods...),
		Media:           append([]string{}, f.Media...),
	}
}
