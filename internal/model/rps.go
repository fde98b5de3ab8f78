package model

import "time"

// SemesterParity is the odd/even half of an academic year.
type SemesterParity string

const (
	SemesterGanjil SemesterParity = "ganjil" // odd
	SemesterGenap  SemesterParity = "genap"  // even
)

// Valid reports whether p is ganjil or genap.
func (p SemesterParity) Valid() bool {
	return p == SemesterGanjil || p == SemesterGenap
}

// RPSStatus is the review state of an RPS document.
type RPSStatus string

const (
	RPSDraft     RPSStatus = "draft"
	RPSSubmitted RPSStatus = "submitted"
	RPSApproved  RPSStatus = "approved"
	RPSRejected  RPSStatus = "rejected"
)

// CanTransition reports whether a document in status s may move to next.
func (s RPSStatus) CanTransition(next RPSStatus) bool {
	switch s {
	case RPSDraft, "":
		return next == RPSSubmitted || next == RPSDraft
	case RPSSubmitted:
		return next == RPSApproved || next == RPSRejected
	case RPSRejected:
		return next == RPSDraft || next == RPSSubmitted
	}
	return false
}

// Editable reports whether the document content may still change.
func (s RPSStatus) Editable() bool {
	return s == "" || s == RPSDraft || s == RPSRejected
}

// TaskType is individu or kelompok.
type TaskType string

const (
	TaskIndividual TaskType = "individu"
	TaskGroup      TaskType = "kelompok"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool { return t == TaskIndividual || t == TaskGroup }

// BibliographyKind classifies a reference.
type BibliographyKind string

const (
	KindBook    BibliographyKind = "buku"
	KindJournal BibliographyKind = "jurnal"
	KindArticle BibliographyKind = "artikel"
	KindWebsite BibliographyKind = "website"
	KindModule  BibliographyKind = "modul"
)

// Valid reports whether k is a known bibliography kind.
func (k BibliographyKind) Valid() bool {
	switch k {
	case KindBook, KindJournal, KindArticle, KindWebsite, KindModule:
		return true
	}
	return false
}

// Signatory is a named person with an employee number on the RPS cover.
type Signatory struct {
	Name string
	NIP  string
}

// RPSForm holds the top-level fields of an RPS document.
type RPSForm struct {
	CourseID        int64
	AcademicYear    string
	Semester        SemesterParity
	ComposedOn      string
	Preparer        Signatory
	Coordinator     Signatory
	Chair           Signatory
	Faculty         string
	Program         string
	Description     string
	OutcomeText     string
	TeachingMethods []string
	Media           []string
}

// CourseOutcome is a CPMK. It owns its Sub-CPMK entries.
type CourseOutcome struct {
	ID          EntryID
	Key         string
	Code        string
	Description string
	CPLIDs      []int64
	Subs        []SubOutcome
}

// SubOutcome is a Sub-CPMK, a session-level decomposition of its CPMK.
type SubOutcome struct {
	ID          EntryID
	Key         string
	Code        string
	Description string
	Order       int
}

// WeeklyPlanEntry is one row of the weekly lesson plan.
type WeeklyPlanEntry struct {
	ID        EntryID
	Week      int
	SubRef    string
	Topic     string
	SubTopics []string
	Method    string
	Duration  int // minutes
	Technique string
	Criteria  string
	WeightPct float64
}

// TaskAssignment is a graded task tied to a Sub-CPMK.
type TaskAssignment struct {
	ID           EntryID
	Number       int
	Title        string
	SubRef       string
	Indicator    string
	DeadlineWeek int
	Instructions string
	Type         TaskType
	Output       string
	Criteria     string
	Technique    string
	WeightPct    float64
	References   string
}

// AnalysisEntry maps a span of weeks to the outcomes it assesses.
type AnalysisEntry struct {
	ID             EntryID
	StartWeek      int
	EndWeek        *int
	CPLID          int64
	CPMKRefs       []string
	SubRefs        []string
	Material       string
	AssessmentType string
	WeightPct      float64
}

// BibliographyEntry is a mandatory or supplementary reference.
type BibliographyEntry struct {
	ID        EntryID
	Title     string
	Author    string
	Year      int
	Publisher string
	Kind      BibliographyKind
	ISBN      string
	Pages     string
	URL       string
	Mandatory bool
	Order     int
}

// RPS is a whole semester lesson plan document.
type RPS struct {
	ID             EntryID
	OwnerID        int64
	Status         RPSStatus
	ReviewNote     string
	Form           RPSForm
	CourseOutcomes []CourseOutcome
	WeeklyPlan     []WeeklyPlanEntry
	Tasks          []TaskAssignment
	Analysis       []AnalysisEntry
	Bibliography   []BibliographyEntry
	UpdatedAt      time.Time
}
