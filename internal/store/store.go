package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		nip TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		csrf_token TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS learning_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		credits INTEGER NOT NULL,
		semester INTEGER NOT NULL,
		coordinator_id INTEGER,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (coordinator_id) REFERENCES users(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS rps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		course_id INTEGER,
		status TEXT NOT NULL DEFAULT 'draft',
		review_note TEXT NOT NULL DEFAULT '',
		academic_year TEXT NOT NULL DEFAULT '',
		semester TEXT NOT NULL DEFAULT 'ganjil',
		composed_on TEXT NOT NULL DEFAULT '',
		preparer_name TEXT NOT NULL DEFAULT '',
		preparer_nip TEXT NOT NULL DEFAULT '',
		coordinator_name TEXT NOT NULL DEFAULT '',
		coordinator_nip TEXT NOT NULL DEFAULT '',
		chair_name TEXT NOT NULL DEFAULT '',
		chair_nip TEXT NOT NULL DEFAULT '',
		faculty TEXT NOT NULL DEFAULT '',
		program TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		outcome_text TEXT NOT NULL DEFAULT '',
		teaching_methods TEXT NOT NULL DEFAULT '[]',
		media TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id),
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS rps_cpmk (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		description TEXT NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rps_cpmk_cpl (
		cpmk_id INTEGER NOT NULL,
		cpl_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (cpmk_id, cpl_id),
		FOREIGN KEY (cpmk_id) REFERENCES rps_cpmk(id) ON DELETE CASCADE,
		FOREIGN KEY (cpl_id) REFERENCES learning_outcomes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rps_sub_cpmk (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		cpmk_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		description TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE,
		FOREIGN KEY (cpmk_id) REFERENCES rps_cpmk(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rps_weekly_plan (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		week INTEGER NOT NULL,
		sub_cpmk_id INTEGER,
		topic TEXT NOT NULL,
		sub_topics TEXT NOT NULL DEFAULT '[]',
		method TEXT NOT NULL,
		duration INTEGER NOT NULL,
		technique TEXT NOT NULL,
		criteria TEXT NOT NULL,
		weight REAL NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE,
		FOREIGN KEY (sub_cpmk_id) REFERENCES rps_sub_cpmk(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS rps_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		sub_cpmk_id INTEGER,
		indicator TEXT NOT NULL,
		deadline_week INTEGER NOT NULL,
		instructions TEXT NOT NULL,
		type TEXT NOT NULL,
		output TEXT NOT NULL,
		criteria TEXT NOT NULL,
		technique TEXT NOT NULL,
		weight REAL NOT NULL,
		refs TEXT NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE,
		FOREIGN KEY (sub_cpmk_id) REFERENCES rps_sub_cpmk(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS rps_analysis (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		start_week INTEGER NOT NULL,
		end_week INTEGER,
		cpl_id INTEGER,
		material TEXT NOT NULL,
		assessment_type TEXT NOT NULL,
		weight REAL NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE,
		FOREIGN KEY (cpl_id) REFERENCES learning_outcomes(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS rps_analysis_cpmk (
		analysis_id INTEGER NOT NULL,
		cpmk_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (analysis_id, cpmk_id),
		FOREIGN KEY (analysis_id) REFERENCES rps_analysis(id) ON DELETE CASCADE,
		FOREIGN KEY (cpmk_id) REFERENCES rps_cpmk(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rps_analysis_sub (
		analysis_id INTEGER NOT NULL,
		sub_cpmk_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (analysis_id, sub_cpmk_id),
		FOREIGN KEY (analysis_id) REFERENCES rps_analysis(id) ON DELETE CASCADE,
		FOREIGN KEY (sub_cpmk_id) REFERENCES rps_sub_cpmk(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rps_bibliography (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rps_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		year INTEGER NOT NULL,
		publisher TEXT NOT NULL,
		kind TEXT NOT NULL,
		isbn TEXT NOT NULL,
		pages TEXT NOT NULL,
		url TEXT NOT NULL,
		mandatory BOOLEAN NOT NULL,
		sort_order INTEGER NOT NULL,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		rps_id INTEGER,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (rps_id) REFERENCES rps(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rps_owner ON rps(owner_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);
	`
	_, err := s.db.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(s string) ([]string, error) {
	items := []string{}
	if s == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
