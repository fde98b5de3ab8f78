package editor

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/rpsplanner/internal/model"
)

func textField(name string, target func(*model.RPSForm) *string) Field[model.RPSForm] {
	return newField(name, func(f *model.RPSForm, v Value) { *target(f) = v.String() })
}

// Form fields.
var (
	FormCourse = newField("mata_kuliah_id", func(f *model.RPSForm, v Value) {
		id, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		if err != nil || id < 0 {
			id = 0
		}
		f.CourseID = id
	})
	FormAcademicYear = textField("tahun_akademik", func(f *model.RPSForm) *string { return &f.AcademicYear })
	// FormSemester ignores anything but ganjil and genap.
	FormSemester = newField("semester", func(f *model.RPSForm, v Value) {
		if p := model.SemesterParity(strings.ToLower(strings.TrimSpace(v.String()))); p.Valid() {
			f.Semester = p
		}
	})
	FormComposedOn      = textField("tanggal_penyusunan", func(f *model.RPSForm) *string { return &f.ComposedOn })
	FormPreparerName    = textField("penyusun_nama", func(f *model.RPSForm) *string { return &f.Preparer.Name })
	FormPreparerNIP     = textField("penyusun_nip", func(f *model.RPSForm) *string { return &f.Preparer.NIP })
	FormCoordinatorName = textField("koordinator_nama", func(f *model.RPSForm) *string { return &f.Coordinator.Name })
	FormCoordinatorNIP  = textField("koordinator_nip", func(f *model.RPSForm) *string { return &f.Coordinator.NIP })
	FormChairName       = textField("kaprodi_nama", func(f *model.RPSForm) *string { return &f.Chair.Name })
	FormChairNIP        = textField("kaprodi_nip", func(f *model.RPSForm) *string { return &f.Chair.NIP })
	FormFaculty         = textField("fakultas", func(f *model.RPSForm) *string { return &f.Faculty })
	FormProgram         = textField("program_studi", func(f *model.RPSForm) *string { return &f.Program })
	FormDescription     = textField("deskripsi", func(f *model.RPSForm) *string { return &f.Description })
	FormOutcomeText     = textField("capaian_pembelajaran", func(f *model.RPSForm) *string { return &f.OutcomeText })
	FormTeachingMethods = newField("metode_pembelajaran", func(f *model.RPSForm, v Value) {
		f.TeachingMethods = v.lines()
	})
	FormMedia = newField("media_pembelajaran", func(f *model.RPSForm, v Value) {
		f.Media = v.lines()
	})
)

var formFields = fieldsOf(FormCourse, FormAcademicYear, FormSemester, FormComposedOn,
	FormPreparerName, FormPreparerNIP, FormCoordinatorName, FormCoordinatorNIP,
	FormChairName, FormChairNIP, FormFaculty, FormProgram, FormDescription,
	FormOutcomeText, FormTeachingMethods, FormMedia)

// FormField looks up a form field by wire name.
func FormField(name string) (Field[model.RPSForm], bool) { return formFields.lookup(name) }

// UpdateForm sets one top-level field of the document.
func (d *Document) UpdateForm(f Field[model.RPSForm], v Value) bool {
	if d.readOnly || !f.valid() {
		return false
	}
	next := d.form
	next.TeachingMethods = slices.Clone(d.form.TeachingMethods)
	next.Media = slices.Clone(d.form.Media)
	f.apply(&next, v)
	d.SetForm(next)
	return true
}
