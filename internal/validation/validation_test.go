package validation

import (
	"encoding/json"
	"testing"

	"github.com/pavelanni/rpsplanner/internal/model"
)

func validLearningOutcome() LearningOutcomeInput {
	return LearningOutcomeInput{
		Code:        "CPL-01",
		Name:        "Analisis",
		Description: "Mampu menganalisis masalah komputasi",
	}
}

func TestLearningOutcomeRules(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(*LearningOutcomeInput)
		wantField string // empty means valid
		wantTag   string
	}{
		{"valid", func(*LearningOutcomeInput) {}, "", ""},
		{"code too short", func(in *LearningOutcomeInput) { in.Code = "A" }, "kode", "min"},
		{"code trimmed", func(in *LearningOutcomeInput) { in.Code = "  CPL-01  " }, "", ""},
		{"code missing", func(in *LearningOutcomeInput) { in.Code = "   " }, "kode", "required"},
		{"code pattern", func(in *LearningOutcomeInput) { in.Code = "CPL 01" }, "kode", "outcode"},
		{"code underscore", func(in *LearningOutcomeInput) { in.Code = "CPL_01" }, "kode", "outcode"},
		{"code two hyphens", func(in *LearningOutcomeInput) { in.Code = "--" }, "kode", "meaningful"},
		{"code four hyphens", func(in *LearningOutcomeInput) { in.Code = "----" }, "kode", "meaningful"},
		{"name too short", func(in *LearningOutcomeInput) { in.Name = "ab" }, "nama", "min"},
		{"name hyphens", func(in *LearningOutcomeInput) { in.Name = "- - -" }, "nama", "meaningful"},
		{"description short hyphens", func(in *LearningOutcomeInput) { in.Description = "---" }, "deskripsi", "min"},
		{"description ten hyphens", func(in *LearningOutcomeInput) { in.Description = "----------" }, "deskripsi", "meaningful"},
		{"description ten letters", func(in *LearningOutcomeInput) { in.Description = "abcdefghij" }, "", ""},
		{"description nine letters", func(in *LearningOutcomeInput) { in.Description = " abcdefghi " }, "deskripsi", "min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validLearningOutcome()
			tt.edit(&in)
			errs := in.Check("en")
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("expected one error on %s, got %v", tt.wantField, errs)
			}
			msg, ok := errs[tt.wantField]
			if !ok || msg == "" {
				t.Fatalf("expected an error on %s, got %v", tt.wantField, errs)
			}
			// Compare against the message of the expected rule.
			want := ruleMessage(t, tt.wantTag, tt.wantField)
			if want != "" && msg != want {
				t.Errorf("message: got %q, want %q", msg, want)
			}
		})
	}
}

// ruleMessage returns the English message for the custom tags, or "" for
// built-in ones, whose wording belongs to the validator package.
func ruleMessage(t *testing.T, tag, field string) string {
	t.Helper()
	switch tag {
	case codeTag:
		return field + " may only contain letters, digits and hyphens"
	case meaningfulTag:
		return field + " must contain text, not only spaces or hyphens"
	}
	return ""
}

func TestAllFieldsReported(t *testing.T) {
	in := LearningOutcomeInput{}
	errs := in.Check("en")
	for _, f := range []string{"kode", "nama", "deskripsi"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("missing error for %s in %v", f, errs)
		}
	}
}

func TestIndonesianMessages(t *testing.T) {
	in := validLearningOutcome()
	in.Code = "CPL 01"
	errs := in.Check("id")
	if got, want := errs["kode"], "kode hanya boleh berisi huruf, angka, dan tanda hubung"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Unknown languages fall back to English.
	errs = in.Check("fr")
	if got, want := errs["kode"], "kode may only contain letters, digits and hyphens"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMeaningful(t *testing.T) {
	tests := map[string]bool{
		"":           false,
		"   ":        false,
		"-":          false,
		" - -\t- ":   false,
		"a":          true,
		"--a--":      true,
		"Analisis":   true,
		"\n-\n":      false,
		"CPL-01 ok.": true,
	}
	for in, want := range tests {
		if got := Meaningful(in); got != want {
			t.Errorf("Meaningful(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCourseRules(t *testing.T) {
	tests := []struct {
		name      string
		in        CourseInput
		wantField string
	}{
		{"valid", CourseInput{Code: "if-201", Name: "Struktur Data", Credits: 3, Semester: 3}, ""},
		{"no credits", CourseInput{Code: "IF201", Name: "Struktur Data", Semester: 3}, "sks"},
		{"too many credits", CourseInput{Code: "IF201", Name: "Struktur Data", Credits: 25, Semester: 3}, "sks"},
		{"semester", CourseInput{Code: "IF201", Name: "Struktur Data", Credits: 3, Semester: 15}, "semester"},
		{"code", CourseInput{Code: "IF/201", Name: "Struktur Data", Credits: 3, Semester: 3}, "kode"},
		{"name", CourseInput{Code: "IF201", Name: "--", Credits: 3, Semester: 3}, "nama"},
		{"hyphen code", CourseInput{Code: "---", Name: "Struktur Data", Credits: 3, Semester: 3}, "kode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			errs := in.Check("en")
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				if in.Code != "IF-201" {
					t.Errorf("expected normalized code, got %q", in.Code)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok || len(errs) != 1 {
				t.Fatalf("expected an error on %s only, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestUserRules(t *testing.T) {
	in := UserInput{Username: " Budi ", DisplayName: "Budi", Password: "rahasia123", Role: "Dosen"}
	if errs := in.Check("en"); len(errs) != 0 {
		t.Fatalf("expected valid, got %v", errs)
	}
	if in.Username != "budi" || in.Role != "dosen" {
		t.Errorf("not normalized: %+v", in)
	}
	bad := UserInput{Username: "b!", DisplayName: "-", Password: "short", Role: "mahasiswa", NIP: "12a"}
	errs := bad.Check("en")
	for _, f := range []string{"username", "display_name", "password", "role", "nip"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("missing error for %s in %v", f, errs)
		}
	}
}

func TestLearningOutcomePatch(t *testing.T) {
	cur := model.LearningOutcome{Code: "CPL-01", Name: "Analisis", Description: "Mampu menganalisis masalah"}
	var p LearningOutcomePatch
	if err := json.Unmarshal([]byte(`{"nama": "Perancangan", "deskripsi": null}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	in := p.Merge(cur)
	if in.Code != "CPL-01" || in.Name != "Perancangan" || in.Description != "" {
		t.Errorf("merge: %+v", in)
	}
	errs := in.Check("en")
	if _, ok := errs["deskripsi"]; !ok || len(errs) != 1 {
		t.Errorf("expected only deskripsi to fail, got %v", errs)
	}
}

func TestErrorsString(t *testing.T) {
	if (Errors{}).Error() != "" {
		t.Error("empty errors should print nothing")
	}
	if got := (Errors{"kode": "bad"}).Error(); got != "validation failed: kode: bad" {
		t.Errorf("got %q", got)
	}
}
