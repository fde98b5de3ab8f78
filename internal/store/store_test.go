package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pavelanni/rpsplanner/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, username string, role model.UserRole) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  "User " + username,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

func insertTestCPL(t *testing.T, s *Store, code string) int64 {
	t.Helper()
	id, err := s.CreateLearningOutcome(model.LearningOutcome{
		Code:        code,
		Name:        "Outcome " + code,
		Description: "Graduates can do " + code,
	})
	if err != nil {
		t.Fatalf("insertTestCPL: %v", err)
	}
	return id
}

func intPtr(v int) *int { return &v }

// testRPS builds an unsaved document whose references use local keys.
func testRPS(ownerID, cpl1, cpl2 int64) model.RPS {
	return model.RPS{
		ID:      model.NewEntry(),
		OwnerID: ownerID,
		Status:  model.RPSDraft,
		Form: model.RPSForm{
			AcademicYear:    "2026/2027",
			Semester:        model.SemesterGenap,
			Preparer:        model.Signatory{Name: "Dr. Sari", NIP: "1987"},
			Faculty:         "Teknik",
			Program:         "Informatika",
			TeachingMethods: []string{"ceramah", "diskusi"},
			Media:           []string{"proyektor"},
		},
		CourseOutcomes: []model.CourseOutcome{
			{
				Key: "a", Code: "CPMK-1", Description: "Explain algorithms", CPLIDs: []int64{cpl1, cpl2},
				Subs: []model.SubOutcome{
					{Key: "a1", Code: "Sub-CPMK-1.1", Description: "Sorting", Order: 1},
					{Key: "a2", Code: "Sub-CPMK-1.2", Description: "Searching", Order: 2},
				},
			},
			{
				Key: "b", Code: "CPMK-2", Description: "Design systems", CPLIDs: []int64{cpl2},
				Subs: []model.SubOutcome{
					{Key: "b1", Code: "Sub-CPMK-2.1", Description: "Modelling", Order: 1},
				},
			},
		},
		WeeklyPlan: []model.WeeklyPlanEntry{
			{Week: 1, SubRef: "a1", Topic: "Intro", SubTopics: []string{"history"}, Duration: 150, WeightPct: 10},
			{Week: 2, SubRef: "", Topic: "Free", SubTopics: []string{}, Duration: 100},
		},
		Tasks: []model.TaskAssignment{
			{Number: 1, Title: "Essay", SubRef: "b1", DeadlineWeek: 4, Type: model.TaskGroup, WeightPct: 20},
		},
		Analysis: []model.AnalysisEntry{
			{StartWeek: 1, EndWeek: intPtr(3), CPLID: cpl1, CPMKRefs: []string{"a", "b"}, SubRefs: []string{"a2"}, WeightPct: 30},
			{StartWeek: 5, CPMKRefs: []string{}, SubRefs: []string{}},
		},
		Bibliography: []model.BibliographyEntry{
			{Title: "CLRS", Author: "Cormen", Year: 2009, Kind: model.KindBook, Mandatory: true, Order: 1},
			{Title: "Go Blog", Kind: model.KindWebsite, URL: "https://go.dev/blog", Order: 1},
		},
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	id := insertTestUser(t, s, "sari", model.UserRoleDosen)
	if _, err := s.CreateUser(model.User{Username: "sari", DisplayName: "x", PasswordHash: "h", Role: model.UserRoleDosen}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate username: expected ErrConflict, got %v", err)
	}

	u, err := s.GetUserByUsername("sari")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleDosen {
		t.Fatalf("unexpected user: %+v", u)
	}
	missing, err := s.GetUserByID(9999)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if missing != nil {
		t.Error("expected nil user")
	}

	insertTestUser(t, s, "budi", model.UserRoleKaprodi)
	chairs, err := s.ListActiveUsersByRole(model.UserRoleKaprodi)
	if err != nil {
		t.Fatalf("ListActiveUsersByRole: %v", err)
	}
	if len(chairs) != 1 || chairs[0].Username != "budi" {
		t.Errorf("expected [budi], got %+v", chairs)
	}

	login, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	active, err := s.ToggleUserActive(id)
	if err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	if active {
		t.Error("expected user to be deactivated")
	}
	sess, err := s.GetAuthSession(login.ID)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Error("deactivated user kept a session")
	}
	if _, err := s.ToggleUserActive(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 users, got %d", count)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	id := insertTestUser(t, s, "sari", model.UserRoleDosen)

	login, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(login.ID) != 64 || len(login.CSRFToken) != 64 {
		t.Errorf("expected 64 hex chars, got %d and %d", len(login.ID), len(login.CSRFToken))
	}
	if login.ID == login.CSRFToken {
		t.Error("session and csrf tokens must differ")
	}
	sess, err := s.GetAuthSession(login.ID)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id || sess.CSRFToken != login.CSRFToken {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := s.DeleteAuthSession(login.ID); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, _ = s.GetAuthSession(login.ID)
	if sess != nil {
		t.Error("session survived delete")
	}

	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing to clean, got %d", n)
	}
}

func TestAuthSessionLifetime(t *testing.T) {
	s := newTestStore(t)
	id := insertTestUser(t, s, "sari", model.UserRoleDosen)

	tests := []struct {
		name      string
		expiresIn time.Duration
		wantValid bool
		wantRenew bool
	}{
		{"fresh", AuthSessionTTL - time.Minute, true, false},
		{"past half", time.Hour, true, true},
		{"expired", -time.Minute, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			login, err := s.CreateAuthSession(id)
			if err != nil {
				t.Fatalf("CreateAuthSession: %v", err)
			}
			expires := time.Now().Add(tt.expiresIn)
			if _, err := s.db.Exec(`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`, expires, login.ID); err != nil {
				t.Fatalf("update expiry: %v", err)
			}

			sess, err := s.GetAuthSession(login.ID)
			if err != nil {
				t.Fatalf("GetAuthSession: %v", err)
			}
			if (sess != nil) != tt.wantValid {
				t.Fatalf("session valid = %v, want %v", sess != nil, tt.wantValid)
			}
			if sess == nil {
				return
			}
			renewed := sess.ExpiresAt.After(expires.Add(time.Minute))
			if renewed != tt.wantRenew {
				t.Errorf("renewed = %v, want %v (expires %v)", renewed, tt.wantRenew, sess.ExpiresAt)
			}
		})
	}
}

func TestLearningOutcomeCRUD(t *testing.T) {
	s := newTestStore(t)

	id := insertTestCPL(t, s, "CPL-01")
	if _, err := s.CreateLearningOutcome(model.LearningOutcome{Code: "CPL-01", Name: "dup", Description: "dup"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	o, err := s.GetLearningOutcome(id)
	if err != nil {
		t.Fatalf("GetLearningOutcome: %v", err)
	}
	o.Name = "Renamed"
	if err := s.UpdateLearningOutcome(o); err != nil {
		t.Fatalf("UpdateLearningOutcome: %v", err)
	}
	o, _ = s.GetLearningOutcome(id)
	if o.Name != "Renamed" {
		t.Errorf("expected name 'Renamed', got %q", o.Name)
	}

	inserted, err := s.UpsertLearningOutcome(model.LearningOutcome{Code: "CPL-01", Name: "Upserted", Description: "d"})
	if err != nil {
		t.Fatalf("UpsertLearningOutcome: %v", err)
	}
	if inserted {
		t.Error("existing code should update")
	}
	inserted, err = s.UpsertLearningOutcome(model.LearningOutcome{Code: "CPL-02", Name: "New", Description: "d"})
	if err != nil {
		t.Fatalf("UpsertLearningOutcome: %v", err)
	}
	if !inserted {
		t.Error("new code should insert")
	}

	list, err := s.ListLearningOutcomes()
	if err != nil {
		t.Fatalf("ListLearningOutcomes: %v", err)
	}
	if len(list) != 2 || list[0].Code != "CPL-01" || list[0].Name != "Upserted" {
		t.Errorf("unexpected list: %+v", list)
	}

	if err := s.DeleteLearningOutcome(id); err != nil {
		t.Fatalf("DeleteLearningOutcome: %v", err)
	}
	if _, err := s.GetLearningOutcome(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteLearningOutcome(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateLearningOutcome(model.LearningOutcome{ID: id, Code: "X", Name: "x", Description: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestCourseCRUD(t *testing.T) {
	s := newTestStore(t)
	coord := insertTestUser(t, s, "sari", model.UserRoleDosen)

	id, err := s.CreateCourse(model.Course{Code: "IF201", Name: "Algoritma", Credits: 3, Semester: 2, CoordinatorID: &coord})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if _, err := s.CreateCourse(model.Course{Code: "IF201", Name: "Dup", Credits: 3, Semester: 2}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateCourse(model.Course{Code: "IF101", Name: "Dasar", Credits: 2, Semester: 1}); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	c, err := s.GetCourse(id)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if c.CoordinatorID == nil || *c.CoordinatorID != coord {
		t.Errorf("expected coordinator %d, got %v", coord, c.CoordinatorID)
	}

	list, err := s.ListCourses()
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(list) != 2 || list[0].Code != "IF101" {
		t.Errorf("expected IF101 first, got %+v", list)
	}
	if list[0].CoordinatorID != nil {
		t.Error("expected no coordinator")
	}
	if _, err := s.GetCourse(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndGetRPS(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl1 := insertTestCPL(t, s, "CPL-01")
	cpl2 := insertTestCPL(t, s, "CPL-02")

	id, err := s.SaveRPS(testRPS(owner, cpl1, cpl2))
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}
	got, err := s.GetRPS(id)
	if err != nil {
		t.Fatalf("GetRPS: %v", err)
	}

	if got.ID.IsNew() || got.OwnerID != owner || got.Status != model.RPSDraft {
		t.Fatalf("unexpected header: id=%v owner=%d status=%q", got.ID, got.OwnerID, got.Status)
	}
	if diff := cmp.Diff([]string{"ceramah", "diskusi"}, got.Form.TeachingMethods); diff != "" {
		t.Errorf("teaching methods (-want +got):\n%s", diff)
	}
	if len(got.CourseOutcomes) != 2 {
		t.Fatalf("expected 2 cpmk, got %d", len(got.CourseOutcomes))
	}
	a, b := got.CourseOutcomes[0], got.CourseOutcomes[1]
	if a.Code != "CPMK-1" || len(a.Subs) != 2 || len(b.Subs) != 1 {
		t.Fatalf("cpmk grouping lost: %+v", got.CourseOutcomes)
	}
	if diff := cmp.Diff([]int64{cpl1, cpl2}, a.CPLIDs); diff != "" {
		t.Errorf("cpl ids (-want +got):\n%s", diff)
	}
	for _, c := range got.CourseOutcomes {
		if c.ID.IsNew() || c.Key != c.ID.String() {
			t.Errorf("cpmk %s: key %q does not match id %v", c.Code, c.Key, c.ID)
		}
	}

	if got.WeeklyPlan[0].SubRef != a.Subs[0].Key {
		t.Errorf("weekly ref: got %q, want %q", got.WeeklyPlan[0].SubRef, a.Subs[0].Key)
	}
	if got.WeeklyPlan[1].SubRef != "" {
		t.Errorf("unset weekly ref: got %q", got.WeeklyPlan[1].SubRef)
	}
	if got.Tasks[0].SubRef != b.Subs[0].Key || got.Tasks[0].Type != model.TaskGroup {
		t.Errorf("unexpected task: %+v", got.Tasks[0])
	}

	an := got.Analysis[0]
	if an.EndWeek == nil || *an.EndWeek != 3 || an.CPLID != cpl1 {
		t.Errorf("unexpected analysis: %+v", an)
	}
	if diff := cmp.Diff([]string{a.Key, b.Key}, an.CPMKRefs); diff != "" {
		t.Errorf("cpmk refs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{a.Subs[1].Key}, an.SubRefs); diff != "" {
		t.Errorf("sub refs (-want +got):\n%s", diff)
	}
	if got.Analysis[1].EndWeek != nil || got.Analysis[1].CPLID != 0 {
		t.Errorf("open analysis should stay unset: %+v", got.Analysis[1])
	}
	if !got.Bibliography[0].Mandatory || got.Bibliography[1].Mandatory {
		t.Errorf("bibliography flags lost: %+v", got.Bibliography)
	}

	// Saving the loaded document again keeps every id.
	if _, err := s.SaveRPS(got); err != nil {
		t.Fatalf("SaveRPS again: %v", err)
	}
	again, err := s.GetRPS(id)
	if err != nil {
		t.Fatalf("GetRPS again: %v", err)
	}
	if diff := cmp.Diff(got, again, cmpopts.IgnoreFields(model.RPS{}, "UpdatedAt")); diff != "" {
		t.Errorf("second save changed the document (-first +second):\n%s", diff)
	}
}

func TestSaveRPSRemovesDroppedEntries(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl := insertTestCPL(t, s, "CPL-01")

	id, err := s.SaveRPS(testRPS(owner, cpl, cpl))
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}
	r, _ := s.GetRPS(id)
	removed := r.CourseOutcomes[1]
	r.CourseOutcomes = r.CourseOutcomes[:1]
	r.Tasks = nil
	if _, err := s.SaveRPS(r); err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}

	got, _ := s.GetRPS(id)
	if len(got.CourseOutcomes) != 1 || len(got.Tasks) != 0 {
		t.Fatalf("expected 1 cpmk and no tasks, got %d and %d", len(got.CourseOutcomes), len(got.Tasks))
	}
	if diff := cmp.Diff([]string{got.CourseOutcomes[0].Key}, got.Analysis[0].CPMKRefs); diff != "" {
		t.Errorf("ref to %s should be dropped (-want +got):\n%s", removed.Key, diff)
	}
}

func TestSaveRPSForeignIDs(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl := insertTestCPL(t, s, "CPL-01")

	firstID, err := s.SaveRPS(testRPS(owner, cpl, cpl))
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}
	first, _ := s.GetRPS(firstID)

	// A second document that claims the first one's entry ids.
	second := testRPS(owner, cpl, cpl)
	second.CourseOutcomes[0].ID = first.CourseOutcomes[0].ID
	second.Bibliography[0].ID = first.Bibliography[0].ID
	secondID, err := s.SaveRPS(second)
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}
	got, _ := s.GetRPS(secondID)
	if got.CourseOutcomes[0].ID.Equal(first.CourseOutcomes[0].ID) {
		t.Error("cpmk id taken from another document")
	}
	if got.Bibliography[0].ID.Equal(first.Bibliography[0].ID) {
		t.Error("bibliography id taken from another document")
	}

	untouched, _ := s.GetRPS(firstID)
	if diff := cmp.Diff(first, untouched, cmpopts.IgnoreFields(model.RPS{}, "UpdatedAt")); diff != "" {
		t.Errorf("first document changed (-before +after):\n%s", diff)
	}

	missing := testRPS(owner, cpl, cpl)
	missing.ID = model.Persisted(9999)
	if _, err := s.SaveRPS(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRPSDanglingReferences(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl := insertTestCPL(t, s, "CPL-01")

	r := testRPS(owner, cpl, 9999)
	r.WeeklyPlan[0].SubRef = "ghost"
	r.Analysis[0].CPLID = 8888
	r.Analysis[0].CPMKRefs = []string{"ghost", "a", "a"}
	id, err := s.SaveRPS(r)
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}

	got, _ := s.GetRPS(id)
	if diff := cmp.Diff([]int64{cpl}, got.CourseOutcomes[0].CPLIDs); diff != "" {
		t.Errorf("unknown cpl kept (-want +got):\n%s", diff)
	}
	if got.WeeklyPlan[0].SubRef != "" {
		t.Errorf("unresolved weekly ref stored: %q", got.WeeklyPlan[0].SubRef)
	}
	if got.Analysis[0].CPLID != 0 {
		t.Errorf("unknown analysis cpl stored: %d", got.Analysis[0].CPLID)
	}
	if diff := cmp.Diff([]string{got.CourseOutcomes[0].Key}, got.Analysis[0].CPMKRefs); diff != "" {
		t.Errorf("cpmk refs (-want +got):\n%s", diff)
	}
}

func TestDeletingCPLDropsReferences(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl1 := insertTestCPL(t, s, "CPL-01")
	cpl2 := insertTestCPL(t, s, "CPL-02")

	id, _ := s.SaveRPS(testRPS(owner, cpl1, cpl2))
	if err := s.DeleteLearningOutcome(cpl1); err != nil {
		t.Fatalf("DeleteLearningOutcome: %v", err)
	}
	got, err := s.GetRPS(id)
	if err != nil {
		t.Fatalf("GetRPS: %v", err)
	}
	if diff := cmp.Diff([]int64{cpl2}, got.CourseOutcomes[0].CPLIDs); diff != "" {
		t.Errorf("cpl ids (-want +got):\n%s", diff)
	}
	if got.Analysis[0].CPLID != 0 {
		t.Errorf("analysis still points at deleted cpl %d", got.Analysis[0].CPLID)
	}
}

func TestSetRPSStatus(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	id, err := s.SaveRPS(model.RPS{OwnerID: owner})
	if err != nil {
		t.Fatalf("SaveRPS: %v", err)
	}

	steps := []struct {
		next    model.RPSStatus
		note    string
		wantErr error
	}{
		{model.RPSApproved, "", ErrInvalidTransition},
		{model.RPSSubmitted, "", nil},
		{model.RPSRejected, "fix week 3", nil},
		{model.RPSSubmitted, "", nil},
		{model.RPSApproved, "ok", nil},
		{model.RPSDraft, "", ErrInvalidTransition},
	}
	for _, st := range steps {
		err := s.SetRPSStatus(id, st.next, st.note)
		if !errors.Is(err, st.wantErr) {
			t.Fatalf("-> %s: expected %v, got %v", st.next, st.wantErr, err)
		}
	}
	got, _ := s.GetRPS(id)
	if got.Status != model.RPSApproved || got.ReviewNote != "ok" {
		t.Errorf("expected approved with note, got %q %q", got.Status, got.ReviewNote)
	}
	if err := s.SetRPSStatus(9999, model.RPSSubmitted, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRPSAndCounts(t *testing.T) {
	s := newTestStore(t)
	sari := insertTestUser(t, s, "sari", model.UserRoleDosen)
	budi := insertTestUser(t, s, "budi", model.UserRoleDosen)
	course, err := s.CreateCourse(model.Course{Code: "IF201", Name: "Algoritma", Credits: 3, Semester: 2})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	r := model.RPS{OwnerID: sari}
	r.Form.CourseID = course
	first, _ := s.SaveRPS(r)
	s.SaveRPS(model.RPS{OwnerID: sari})
	s.SaveRPS(model.RPS{OwnerID: budi})
	if err := s.SetRPSStatus(first, model.RPSSubmitted, ""); err != nil {
		t.Fatalf("SetRPSStatus: %v", err)
	}

	tests := []struct {
		name   string
		filter RPSFilter
		want   int
	}{
		{"all", RPSFilter{}, 3},
		{"owner", RPSFilter{OwnerID: &sari}, 2},
		{"status", RPSFilter{Status: model.RPSSubmitted}, 1},
		{"both", RPSFilter{OwnerID: &budi, Status: model.RPSSubmitted}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListRPS(tt.filter)
			if err != nil {
				t.Fatalf("ListRPS: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("expected %d, got %d", tt.want, len(list))
			}
		})
	}

	list, _ := s.ListRPS(RPSFilter{Status: model.RPSSubmitted})
	if list[0].CourseCode != "IF201" || list[0].Semester != model.SemesterGanjil {
		t.Errorf("unexpected summary: %+v", list[0])
	}

	counts, err := s.CountRPSByStatus(&sari)
	if err != nil {
		t.Fatalf("CountRPSByStatus: %v", err)
	}
	want := map[model.RPSStatus]int{model.RPSDraft: 1, model.RPSSubmitted: 1, model.RPSApproved: 0, model.RPSRejected: 0}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}

	if err := s.DeleteRPS(first); err != nil {
		t.Fatalf("DeleteRPS: %v", err)
	}
	if _, err := s.GetRPS(first); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	user := insertTestUser(t, s, "sari", model.UserRoleDosen)
	other := insertTestUser(t, s, "budi", model.UserRoleDosen)

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		id, err := s.CreateNotification(model.Notification{UserID: user, Kind: model.NotifyInfo, Title: title})
		if err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
		ids = append(ids, id)
	}
	s.CreateNotification(model.Notification{UserID: other, Kind: model.NotifyInfo, Title: "theirs"})

	list, err := s.ListNotifications(user, 2)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 2 || list[0].Title != "three" {
		t.Errorf("expected newest two, got %+v", list)
	}

	changed, err := s.MarkNotificationRead(user, ids[0])
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !changed {
		t.Error("expected unread notification to change")
	}
	changed, _ = s.MarkNotificationRead(user, ids[0])
	if changed {
		t.Error("read notification changed twice")
	}
	if _, err := s.MarkNotificationRead(other, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign notification: expected ErrNotFound, got %v", err)
	}

	unread, _ := s.UnreadCount(user)
	if unread != 2 {
		t.Errorf("expected 2 unread, got %d", unread)
	}
	n, err := s.MarkAllNotificationsRead(user)
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 marked, got %d", n)
	}
	unread, _ = s.UnreadCount(other)
	if unread != 1 {
		t.Errorf("other user's inbox changed: %d unread", unread)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetSetting(SettingCatalogHash)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}
	for _, want := range []string{"abc123", "def456"} {
		if err := s.SetSetting(SettingCatalogHash, want); err != nil {
			t.Fatalf("SetSetting: %v", err)
		}
		v, _ = s.GetSetting(SettingCatalogHash)
		if v != want {
			t.Errorf("expected %q, got %q", want, v)
		}
	}
}

func TestExportRPS(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "sari", model.UserRoleDosen)
	cpl := insertTestCPL(t, s, "CPL-01")
	course, _ := s.CreateCourse(model.Course{Code: "IF201", Name: "Algoritma", Credits: 3, Semester: 2})

	r := testRPS(owner, cpl, cpl)
	r.Form.CourseID = course
	id, _ := s.SaveRPS(r)
	s.SaveRPS(model.RPS{OwnerID: owner})

	e, err := s.ExportRPS(id)
	if err != nil {
		t.Fatalf("ExportRPS: %v", err)
	}
	if e.Course == nil || e.Course.Code != "IF201" {
		t.Errorf("expected course IF201, got %+v", e.Course)
	}
	if e.Owner == nil || e.Owner.Username != "sari" {
		t.Errorf("unexpected owner: %+v", e.Owner)
	}
	if len(e.Catalog) != 1 {
		t.Errorf("expected 1 cpl in catalog, got %d", len(e.Catalog))
	}

	all, err := s.ExportAllRPS(RPSFilter{})
	if err != nil {
		t.Fatalf("ExportAllRPS: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(all))
	}
	if _, err := s.ExportRPS(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestImportCatalog(t *testing.T) {
	s := newTestStore(t)
	insertTestCPL(t, s, "CPL-01")
	outcomes := []model.LearningOutcome{
		{Code: "CPL-01", Name: "Renamed", Description: "Graduates can act ethically"},
		{Code: "CPL-02", Name: "New", Description: "Graduates can design systems"},
	}
	missingUser := int64(9999)

	_, err := s.ImportCatalog(outcomes, []model.Course{
		{Code: "IF101", Name: "Algoritma", Credits: 3, Semester: 1},
		{Code: "IF102", Name: "Basis Data", Credits: 3, Semester: 2, CoordinatorID: &missingUser},
	}, "first")
	if err == nil {
		t.Fatal("expected an error for a missing coordinator")
	}
	list, _ := s.ListLearningOutcomes()
	if len(list) != 1 || list[0].Name != "Outcome CPL-01" {
		t.Errorf("failed import changed the catalog: %+v", list)
	}
	if n, _ := s.CourseCount(); n != 0 {
		t.Errorf("failed import added %d courses", n)
	}
	if h, _ := s.GetSetting(SettingCatalogHash); h != "" {
		t.Errorf("failed import recorded hash %q", h)
	}

	courses := []model.Course{
		{Code: "IF101", Name: "Algoritma", Credits: 3, Semester: 1},
		{Code: "IF101", Name: "Duplicate", Credits: 2, Semester: 1},
	}
	res, err := s.ImportCatalog(outcomes, courses, "second")
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if diff := cmp.Diff(CatalogImport{Inserted: 1, Updated: 1, Courses: 1}, res); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}
	if h, _ := s.GetSetting(SettingCatalogHash); h != "second" {
		t.Errorf("hash = %q, want second", h)
	}
}
