package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleKaprodi is the program chair, who owns the CPL catalog and approves RPS documents.
	UserRoleKaprodi UserRole = "kaprodi"
	// UserRoleDosen is a lecturer who prepares RPS documents.
	UserRoleDosen UserRole = "dosen"
	// UserRoleAdmin manages accounts.
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleKaprodi, UserRoleDosen, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	NIP          string    `json:"nip,omitempty"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
// AuthSession is a login. Cookie-authenticated writes must echo CSRFToken
// in the X-CSRF-Token header.
type AuthSession struct {
	ID        string
	UserID    int64
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// LearningOutcome is a program-level graduate competency (CPL).
type LearningOutcome struct {
	ID          int64     `json:"id"`
	Code        string    `json:"kode"`
	Name        string    `json:"nama"`
	Description string    `json:"deskripsi"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Course is a MataKuliah an RPS document is written for.
type Course struct {
	ID            int64     `json:"id"`
	Code          string    `json:"kode"`
	Name          string    `json:"nama"`
	Credits       int       `json:"sks"`
	Semester      int       `json:"semester"`
	CoordinatorID *int64    `json:"koordinator_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RPSSummary is one row of an RPS listing.
type RPSSummary struct {
	ID           int64          `json:"id"`
	CourseID     int64          `json:"mata_kuliah_id"`
	CourseCode   string         `json:"mata_kuliah_kode"`
	CourseName   string         `json:"mata_kuliah_nama"`
	AcademicYear string         `json:"tahun_akademik"`
	Semester     SemesterParity `json:"semester"`
	Status       RPSStatus      `json:"status"`
	OwnerID      int64          `json:"owner_id"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NotificationKind classifies inbox entries.
type NotificationKind string

const (
	NotifyRPSSubmitted NotificationKind = "rps_submitted"
	NotifyRPSApproved  NotificationKind = "rps_approved"
	NotifyRPSRejected  NotificationKind = "rps_rejected"
	NotifyInfo         NotificationKind = "info"
)

// Notification is an entry in a user's inbox.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	RPSID     *int64           `json:"rps_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Dashboard holds the role-aware counters shown on the landing page.
type Dashboard struct {
	Role                UserRole          `json:"role"`
	LearningOutcomes    int               `json:"cpl"`
	Courses             int               `json:"mata_kuliah"`
	RPSByStatus         map[RPSStatus]int `json:"rps_by_status"`
	UnreadNotifications int               `json:"unread_notifications"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Lang          string // default UI language
}
