package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// ErrInvalidTransition is returned when a status change breaks the review workflow.
var ErrInvalidTransition = errors.New("invalid status transition")

// RPSFilter narrows ListRPS. Zero fields match everything.
type RPSFilter struct {
	OwnerID *int64
	Status  model.RPSStatus
}

// childTables lists the tables whose rows belong to one RPS, in delete order.
var childTables = []string{
	"rps_weekly_plan",
	"rps_tasks",
	"rps_analysis",
	"rps_bibliography",
	"rps_sub_cpmk",
	"rps_cpmk",
}

// SaveRPS writes a whole document in one transaction and returns its ID.
// Child entries are rewritten. A persisted entry keeps its ID only when it
// already belongs to this document. References that do not resolve inside
// the saved document are stored as NULL or dropped.
func (s *Store) SaveRPS(r model.RPS) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	f := r.Form
	status := r.Status
	if status == "" {
		status = model.RPSDraft
	}
	semester := f.Semester
	if !semester.Valid() {
		semester = model.SemesterGanjil
	}
	columns := []any{
		nullID(f.CourseID), status, r.ReviewNote, f.AcademicYear, semester, f.ComposedOn,
		f.Preparer.Name, f.Preparer.NIP, f.Coordinator.Name, f.Coordinator.NIP, f.Chair.Name, f.Chair.NIP,
		f.Faculty, f.Program, f.Description, f.OutcomeText, encodeList(f.TeachingMethods), encodeList(f.Media),
	}

	rpsID, persisted := r.ID.Value()
	if persisted {
		res, err := tx.Exec(`UPDATE rps SET course_id = ?, status = ?, review_note = ?, academic_year = ?, semester = ?,
			composed_on = ?, preparer_name = ?, preparer_nip = ?, coordinator_name = ?, coordinator_nip = ?,
			chair_name = ?, chair_nip = ?, faculty = ?, program = ?, description = ?, outcome_text = ?,
			teaching_methods = ?, media = ?, updated_at = ? WHERE id = ?`,
			append(columns, now, rpsID)...)
		if err != nil {
			return 0, fmt.Errorf("update rps: %w", err)
		}
		if err := requireRow(res); err != nil {
			return 0, fmt.Errorf("rps %d: %w", rpsID, err)
		}
	} else {
		res, err := tx.Exec(`INSERT INTO rps (course_id, status, review_note, academic_year, semester,
			composed_on, preparer_name, preparer_nip, coordinator_name, coordinator_nip,
			chair_name, chair_nip, faculty, program, description, outcome_text,
			teaching_methods, media, owner_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(columns, r.OwnerID, now, now)...)
		if err != nil {
			return 0, fmt.Errorf("insert rps: %w", err)
		}
		if rpsID, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	}

	owned := map[string]map[int64]bool{}
	for _, table := range childTables {
		ids, err := ownedIDs(tx, table, rpsID)
		if err != nil {
			return 0, err
		}
		owned[table] = ids
	}
	for _, table := range childTables {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE rps_id = ?`, rpsID); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	catalog, err := ownedIDs(tx, "learning_outcomes", 0)
	if err != nil {
		return 0, err
	}

	w := &rpsWriter{tx: tx, rpsID: rpsID, owned: owned, cpmk: map[string]int64{}, sub: map[string]int64{}}

	for pos, c := range r.CourseOutcomes {
		id, err := w.insert("rps_cpmk", c.ID, []string{"position", "code", "description"}, pos, c.Code, c.Description)
		if err != nil {
			return 0, err
		}
		w.cpmk[c.Key] = id
		seen := map[int64]bool{}
		for i, cpl := range c.CPLIDs {
			if !catalog[cpl] || seen[cpl] {
				continue
			}
			seen[cpl] = true
			if _, err := tx.Exec(`INSERT INTO rps_cpmk_cpl (cpmk_id, cpl_id, position) VALUES (?, ?, ?)`, id, cpl, i); err != nil {
				return 0, fmt.Errorf("link cpl: %w", err)
			}
		}
	}
	pos := 0
	for _, c := range r.CourseOutcomes {
		for _, sub := range c.Subs {
			id, err := w.insert("rps_sub_cpmk", sub.ID, []string{"cpmk_id", "position", "code", "description", "sort_order"},
				w.cpmk[c.Key], pos, sub.Code, sub.Description, sub.Order)
			if err != nil {
				return 0, err
			}
			w.sub[sub.Key] = id
			pos++
		}
	}
	for pos, e := range r.WeeklyPlan {
		_, err := w.insert("rps_weekly_plan", e.ID,
			[]string{"position", "week", "sub_cpmk_id", "topic", "sub_topics", "method", "duration", "technique", "criteria", "weight"},
			pos, e.Week, w.subRef(e.SubRef), e.Topic, encodeList(e.SubTopics), e.Method, e.Duration, e.Technique, e.Criteria, e.WeightPct)
		if err != nil {
			return 0, err
		}
	}
	for pos, t := range r.Tasks {
		_, err := w.insert("rps_tasks", t.ID,
			[]string{"position", "number", "title", "sub_cpmk_id", "indicator", "deadline_week", "instructions", "type", "output", "criteria", "technique", "weight", "refs"},
			pos, t.Number, t.Title, w.subRef(t.SubRef), t.Indicator, t.DeadlineWeek, t.Instructions, t.Type, t.Output, t.Criteria, t.Technique, t.WeightPct, t.References)
		if err != nil {
			return 0, err
		}
	}
	for pos, a := range r.Analysis {
		var end sql.NullInt64
		if a.EndWeek != nil {
			end = sql.NullInt64{Int64: int64(*a.EndWeek), Valid: true}
		}
		var cpl sql.NullInt64
		if catalog[a.CPLID] {
			cpl = nullID(a.CPLID)
		}
		id, err := w.insert("rps_analysis", a.ID,
			[]string{"position", "start_week", "end_week", "cpl_id", "material", "assessment_type", "weight"},
			pos, a.StartWeek, end, cpl, a.Material, a.AssessmentType, a.WeightPct)
		if err != nil {
			return 0, err
		}
		if err := w.link("rps_analysis_cpmk", "cpmk_id", id, a.CPMKRefs, w.cpmk); err != nil {
			return 0, err
		}
		if err := w.link("rps_analysis_sub", "sub_cpmk_id", id, a.SubRefs, w.sub); err != nil {
			return 0, err
		}
	}
	for pos, b := range r.Bibliography {
		_, err := w.insert("rps_bibliography", b.ID,
			[]string{"position", "title", "author", "year", "publisher", "kind", "isbn", "pages", "url", "mandatory", "sort_order"},
			pos, b.Title, b.Author, b.Year, b.Publisher, b.Kind, b.ISBN, b.Pages, b.URL, b.Mandatory, b.Order)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return rpsID, nil
}

// ownedIDs returns the ids in table that belong to rpsID. rpsID 0 returns
// every id in the table.
func ownedIDs(tx *sql.Tx, table string, rpsID int64) (map[int64]bool, error) {
	query := `SELECT id FROM ` + table
	var args []any
	if rpsID != 0 {
		query += ` WHERE rps_id = ?`
		args = append(args, rpsID)
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()
	ids := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

type rpsWriter struct {
	tx    *sql.Tx
	rpsID int64
	owned map[string]map[int64]bool
	cpmk  map[string]int64 // document key -> row id
	sub   map[string]int64
}

// insert adds one child row, reusing the entry's ID when this document owns it.
func (w *rpsWriter) insert(table string, entry model.EntryID, cols []string, vals ...any) (int64, error) {
	cols = append([]string{"rps_id"}, cols...)
	vals = append([]any{w.rpsID}, vals...)
	if id, ok := entry.Value(); ok && w.owned[table][id] {
		cols = append(cols, "id")
		vals = append(vals, id)
	}
	query := `INSERT INTO ` + table + ` (`
	marks := ""
	for i, c := range cols {
		if i > 0 {
			query += ", "
			marks += ", "
		}
		query += c
		marks += "?"
	}
	query += `) VALUES (` + marks + `)`
	res, err := w.tx.Exec(query, vals...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return res.LastInsertId()
}

func (w *rpsWriter) subRef(key string) sql.NullInt64 {
	if key == "" {
		return sql.NullInt64{}
	}
	return nullID(w.sub[key])
}

// link writes a cross-reference list, skipping keys that do not resolve.
func (w *rpsWriter) link(table, column string, analysisID int64, keys []string, ids map[string]int64) error {
	seen := map[int64]bool{}
	for i, key := range keys {
		id, ok := ids[key]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		_, err := w.tx.Exec(`INSERT INTO `+table+` (analysis_id, `+column+`, position) VALUES (?, ?, ?)`, analysisID, id, i)
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func keyOf(id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return strconv.FormatInt(id.Int64, 10)
}

// GetRPS loads a whole document. Entry keys are the decimal row ids.
func (s *Store) GetRPS(id int64) (model.RPS, error) {
	var r model.RPS
	var course sql.NullInt64
	var methods, media string
	f := &r.Form
	err := s.db.QueryRow(`SELECT owner_id, course_id, status, review_note, academic_year, semester, composed_on,
		preparer_name, preparer_nip, coordinator_name, coordinator_nip, chair_name, chair_nip,
		faculty, program, description, outcome_text, teaching_methods, media, updated_at
		FROM rps WHERE id = ?`, id).Scan(
		&r.OwnerID, &course, &r.Status, &r.ReviewNote, &f.AcademicYear, &f.Semester, &f.ComposedOn,
		&f.Preparer.Name, &f.Preparer.NIP, &f.Coordinator.Name, &f.Coordinator.NIP, &f.Chair.Name, &f.Chair.NIP,
		&f.Faculty, &f.Program, &f.Description, &f.OutcomeText, &methods, &media, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.ID = model.Persisted(id)
	f.CourseID = course.Int64
	if f.TeachingMethods, err = decodeList(methods); err != nil {
		return r, err
	}
	if f.Media, err = decodeList(media); err != nil {
		return r, err
	}

	if err := s.loadCourseOutcomes(&r, id); err != nil {
		return r, err
	}
	if err := s.loadWeeklyPlan(&r, id); err != nil {
		return r, err
	}
	if err := s.loadTasks(&r, id); err != nil {
		return r, err
	}
	if err := s.loadAnalysis(&r, id); err != nil {
		return r, err
	}
	if err := s.loadBibliography(&r, id); err != nil {
		return r, err
	}
	return r, nil
}

func (s *Store) loadCourseOutcomes(r *model.RPS, rpsID int64) error {
	rows, err := s.db.Query(`SELECT id, code, description FROM rps_cpmk WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	index := map[int64]int{}
	r.CourseOutcomes = []model.CourseOutcome{}
	for rows.Next() {
		var c model.CourseOutcome
		var id int64
		if err := rows.Scan(&id, &c.Code, &c.Description); err != nil {
			rows.Close()
			return err
		}
		c.ID = model.Persisted(id)
		c.Key = strconv.FormatInt(id, 10)
		c.CPLIDs = []int64{}
		c.Subs = []model.SubOutcome{}
		index[id] = len(r.CourseOutcomes)
		r.CourseOutcomes = append(r.CourseOutcomes, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT l.cpmk_id, l.cpl_id FROM rps_cpmk_cpl l
		JOIN rps_cpmk c ON c.id = l.cpmk_id WHERE c.rps_id = ? ORDER BY l.cpmk_id, l.position`, rpsID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cpmk, cpl int64
		if err := rows.Scan(&cpmk, &cpl); err != nil {
			rows.Close()
			return err
		}
		i := index[cpmk]
		r.CourseOutcomes[i].CPLIDs = append(r.CourseOutcomes[i].CPLIDs, cpl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT id, cpmk_id, code, description, sort_order FROM rps_sub_cpmk
		WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var sub model.SubOutcome
		var id, cpmk int64
		if err := rows.Scan(&id, &cpmk, &sub.Code, &sub.Description, &sub.Order); err != nil {
			return err
		}
		sub.ID = model.Persisted(id)
		sub.Key = strconv.FormatInt(id, 10)
		i, ok := index[cpmk]
		if !ok {
			continue
		}
		r.CourseOutcomes[i].Subs = append(r.CourseOutcomes[i].Subs, sub)
	}
	return rows.Err()
}

func (s *Store) loadWeeklyPlan(r *model.RPS, rpsID int64) error {
	rows, err := s.db.Query(`SELECT id, week, sub_cpmk_id, topic, sub_topics, method, duration, technique, criteria, weight
		FROM rps_weekly_plan WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	defer rows.Close()
	r.WeeklyPlan = []model.WeeklyPlanEntry{}
	for rows.Next() {
		var e model.WeeklyPlanEntry
		var id int64
		var sub sql.NullInt64
		var topics string
		if err := rows.Scan(&id, &e.Week, &sub, &e.Topic, &topics, &e.Method, &e.Duration, &e.Technique, &e.Criteria, &e.WeightPct); err != nil {
			return err
		}
		e.ID = model.Persisted(id)
		e.SubRef = keyOf(sub)
		if e.SubTopics, err = decodeList(topics); err != nil {
			return err
		}
		r.WeeklyPlan = append(r.WeeklyPlan, e)
	}
	return rows.Err()
}

func (s *Store) loadTasks(r *model.RPS, rpsID int64) error {
	rows, err := s.db.Query(`SELECT id, number, title, sub_cpmk_id, indicator, deadline_week, instructions,
		type, output, criteria, technique, weight, refs FROM rps_tasks WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	defer rows.Close()
	r.Tasks = []model.TaskAssignment{}
	for rows.Next() {
		var t model.TaskAssignment
		var id int64
		var sub sql.NullInt64
		if err := rows.Scan(&id, &t.Number, &t.Title, &sub, &t.Indicator, &t.DeadlineWeek, &t.Instructions,
			&t.Type, &t.Output, &t.Criteria, &t.Technique, &t.WeightPct, &t.References); err != nil {
			return err
		}
		t.ID = model.Persisted(id)
		t.SubRef = keyOf(sub)
		r.Tasks = append(r.Tasks, t)
	}
	return rows.Err()
}

func (s *Store) loadAnalysis(r *model.RPS, rpsID int64) error {
	rows, err := s.db.Query(`SELECT id, start_week, end_week, cpl_id, material, assessment_type, weight
		FROM rps_analysis WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	index := map[int64]int{}
	r.Analysis = []model.AnalysisEntry{}
	for rows.Next() {
		var a model.AnalysisEntry
		var id int64
		var end, cpl sql.NullInt64
		if err := rows.Scan(&id, &a.StartWeek, &end, &cpl, &a.Material, &a.AssessmentType, &a.WeightPct); err != nil {
			rows.Close()
			return err
		}
		a.ID = model.Persisted(id)
		if end.Valid {
			w := int(end.Int64)
			a.EndWeek = &w
		}
		a.CPLID = cpl.Int64
		a.CPMKRefs = []string{}
		a.SubRefs = []string{}
		index[id] = len(r.Analysis)
		r.Analysis = append(r.Analysis, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	links := []struct {
		table, column string
		add           func(a *model.AnalysisEntry, key string)
	}{
		{"rps_analysis_cpmk", "cpmk_id", func(a *model.AnalysisEntry, key string) { a.CPMKRefs = append(a.CPMKRefs, key) }},
		{"rps_analysis_sub", "sub_cpmk_id", func(a *model.AnalysisEntry, key string) { a.SubRefs = append(a.SubRefs, key) }},
	}
	for _, l := range links {
		rows, err := s.db.Query(`SELECT l.analysis_id, l.`+l.column+` FROM `+l.table+` l
			JOIN rps_analysis a ON a.id = l.analysis_id WHERE a.rps_id = ? ORDER BY l.analysis_id, l.position`, rpsID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var analysis, ref int64
			if err := rows.Scan(&analysis, &ref); err != nil {
				rows.Close()
				return err
			}
			if i, ok := index[analysis]; ok {
				l.add(&r.Analysis[i], strconv.FormatInt(ref, 10))
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadBibliography(r *model.RPS, rpsID int64) error {
	rows, err := s.db.Query(`SELECT id, title, author, year, publisher, kind, isbn, pages, url, mandatory, sort_order
		FROM rps_bibliography WHERE rps_id = ? ORDER BY position`, rpsID)
	if err != nil {
		return err
	}
	defer rows.Close()
	r.Bibliography = []model.BibliographyEntry{}
	for rows.Next() {
		var b model.BibliographyEntry
		var id int64
		if err := rows.Scan(&id, &b.Title, &b.Author, &b.Year, &b.Publisher, &b.Kind, &b.ISBN, &b.Pages, &b.URL, &b.Mandatory, &b.Order); err != nil {
			return err
		}
		b.ID = model.Persisted(id)
		r.Bibliography = append(r.Bibliography, b)
	}
	return rows.Err()
}

// ListRPS returns document summaries, most recently updated first.
func (s *Store) ListRPS(filter RPSFilter) ([]model.RPSSummary, error) {
	query := `SELECT r.id, COALESCE(r.course_id, 0), COALESCE(c.code, ''), COALESCE(c.name, ''),
		r.academic_year, r.semester, r.status, r.owner_id, r.updated_at
		FROM rps r LEFT JOIN courses c ON c.id = r.course_id WHERE 1 = 1`
	var args []any
	if filter.OwnerID != nil {
		query += ` AND r.owner_id = ?`
		args = append(args, *filter.OwnerID)
	}
	if filter.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY r.updated_at DESC, r.id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.RPSSummary{}
	for rows.Next() {
		var sum model.RPSSummary
		if err := rows.Scan(&sum.ID, &sum.CourseID, &sum.CourseCode, &sum.CourseName,
			&sum.AcademicYear, &sum.Semester, &sum.Status, &sum.OwnerID, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// DeleteRPS removes a document and all of its entries.
func (s *Store) DeleteRPS(id int64) error {
	res, err := s.db.Exec(`DELETE FROM rps WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetRPSStatus moves a document through the review workflow. note replaces
// the stored review note.
func (s *Store) SetRPSStatus(id int64, next model.RPSStatus, note string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var cur model.RPSStatus
	err = tx.QueryRow(`SELECT status FROM rps WHERE id = ?`, id).Scan(&cur)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !cur.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", cur, next, ErrInvalidTransition)
	}
	if _, err := tx.Exec(`UPDATE rps SET status = ?, review_note = ?, updated_at = ? WHERE id = ?`,
		next, note, time.Now(), id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountRPSByStatus tallies documents per status, optionally for one owner.
func (s *Store) CountRPSByStatus(ownerID *int64) (map[model.RPSStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM rps`
	var args []any
	if ownerID != nil {
		query += ` WHERE owner_id = ?`
		args = append(args, *ownerID)
	}
	query += ` GROUP BY status`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[model.RPSStatus]int{
		model.RPSDraft: 0, model.RPSSubmitted: 0, model.RPSApproved: 0, model.RPSRejected: 0,
	}
	for rows.Next() {
		var st model.RPSStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
