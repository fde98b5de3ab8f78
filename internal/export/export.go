// Package export writes RPS documents as Excel workbooks or wire JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/rpsplanner/internal/editor"
	"github.com/pavelanni/rpsplanner/internal/payload"
	"github.com/pavelanni/rpsplanner/internal/store"
)

// Sheet names, in workbook order.
const (
	SheetInfo         = "Info"
	SheetCPMK         = "CPMK"
	SheetSubCPMK      = "Sub-CPMK"
	SheetWeeklyPlan   = "Rencana Mingguan"
	SheetTasks        = "Tugas"
	SheetAnalysis     = "Analisis"
	SheetBibliography = "Pustaka"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// Workbook builds a workbook with one sheet per collection. References are
// shown as display codes.
func Workbook(e store.RPSExport) (*excelize.File, error) {
	v := editor.Render(editor.FromRPS(e.RPS, e.Catalog))

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	for i, s := range sheets(e, v) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, s, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	rows := s.rows
	if s.header != nil {
		rows = append([][]any{s.header}, rows...)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	if s.header != nil {
		if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(max(len(s.header), 2))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", last, 18)
}

func sheets(e store.RPSExport, v editor.View) []sheet {
	info := v.Form
	course, credits := "-", 0
	if e.Course != nil {
		course = e.Course.Code + " " + e.Course.Name
		credits = e.Course.Credits
	}
	owner := "-"
	if e.Owner != nil {
		owner = e.Owner.DisplayName
	}
	out := []sheet{{
		name: SheetInfo,
		rows: [][]any{
			{"Mata Kuliah", course},
			{"SKS", credits},
			{"Tahun Akademik", info.AcademicYear},
			{"Semester", string(info.Semester)},
			{"Status", string(v.Status)},
			{"Pemilik", owner},
			{"Tanggal Penyusunan", info.ComposedOn},
			{"Penyusun", signatory(info.Preparer)},
			{"Koordinator", signatory(info.Coordinator)},
			{"Kaprodi", signatory(info.Chair)},
			{"Fakultas", info.Faculty},
			{"Program Studi", info.Program},
			{"Deskripsi", info.Description},
			{"Capaian Pembelajaran", info.OutcomeText},
			{"Metode Pembelajaran", strings.Join(info.TeachingMethods, ", ")},
			{"Media Pembelajaran", strings.Join(info.Media, ", ")},
			{"Total Bobot Rencana Mingguan", v.Totals.WeeklyPlan},
			{"Total Bobot Tugas", v.Totals.Tasks},
			{"Total Bobot Analisis", v.Totals.Analysis},
		},
	}}

	cpmk := sheet{name: SheetCPMK, header: []any{"Kode", "Deskripsi", "CPL"}}
	subs := sheet{name: SheetSubCPMK, header: []any{"CPMK", "Urutan", "Kode", "Deskripsi"}}
	for _, c := range v.CourseOutcomes {
		cpmk.rows = append(cpmk.rows, []any{c.Code, c.Description, strings.Join(c.CPLCodes, ", ")})
		for _, s := range c.Subs {
			subs.rows = append(subs.rows, []any{c.Code, s.Order, s.Code, s.Description})
		}
	}

	weekly := sheet{name: SheetWeeklyPlan, header: []any{
		"Minggu", "Sub-CPMK", "Materi", "Sub Materi", "Metode", "Durasi (menit)", "Teknik Penilaian", "Kriteria", "Bobot (%)",
	}}
	for _, w := range v.WeeklyPlan {
		weekly.rows = append(weekly.rows, []any{
			w.Week, w.SubCode, w.Topic, strings.Join(w.SubTopics, "; "), w.Method, w.Duration, w.Technique, w.Criteria, w.WeightPct,
		})
	}

	tasks := sheet{name: SheetTasks, header: []any{
		"No", "Judul", "Sub-CPMK", "Indikator", "Batas Minggu", "Petunjuk", "Jenis", "Luaran", "Kriteria", "Teknik", "Bobot (%)", "Referensi",
	}}
	for _, t := range v.Tasks {
		tasks.rows = append(tasks.rows, []any{
			t.Number, t.Title, t.SubCode, t.Indicator, t.DeadlineWeek, t.Instructions, string(t.Type), t.Output, t.Criteria, t.Technique, t.WeightPct, t.References,
		})
	}

	analysis := sheet{name: SheetAnalysis, header: []any{
		"Minggu Mulai", "Minggu Selesai", "CPL", "CPMK", "Sub-CPMK", "Materi", "Jenis Penilaian", "Bobot (%)",
	}}
	for _, a := range v.Analysis {
		end := any("")
		if a.EndWeek != nil {
			end = *a.EndWeek
		}
		analysis.rows = append(analysis.rows, []any{
			a.StartWeek, end, a.CPLCode, strings.Join(a.CPMKCodes, ", "), strings.Join(a.SubCodes, ", "), a.Material, a.AssessmentType, a.WeightPct,
		})
	}

	bib := sheet{name: SheetBibliography, header: []any{
		"Kategori", "Judul", "Penulis", "Tahun", "Penerbit", "Jenis", "ISBN", "Halaman", "URL",
	}}
	for _, group := range []struct {
		label string
		cards []editor.BibliographyCard
	}{{"Utama", v.Mandatory}, {"Pendukung", v.Supplementary}} {
		for _, b := range group.cards {
			bib.rows = append(bib.rows, []any{group.label, b.Title, b.Author, b.Year, b.Publisher, string(b.Kind), b.ISBN, b.Pages, b.URL})
		}
	}

	return append(out, cpmk, subs, weekly, tasks, analysis, bib)
}

func signatory(s editor.SignatoryCard) string {
	if s.NIP == "" {
		return s.Name
	}
	return s.Name + " (NIP " + s.NIP + ")"
}

// WriteXLSX writes the workbook of e to w.
func WriteXLSX(w io.Writer, e store.RPSExport) error {
	f, err := Workbook(e)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteJSON writes e as an indented wire document.
func WriteJSON(w io.Writer, e store.RPSExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload.FromRPS(e.RPS))
}
