package model

import (
	"time"

	"github.com/google/uuid"
)

// ── Users ──────────────────────────────────────────────

// User is a recruiter account allowed to use the screening API
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Principal is the identity carried by a verified bearer token.
// Exactly one of Username or Email is used to resolve the local account.
type Principal struct {
	Username string
	Email    string
}

// ── Audit ──────────────────────────────────────────────

// AuditEntry records a recruiter decision about a candidate
type AuditEntry struct {
	ID                uuid.UUID `json:"id"`
	CandidateID       string    `json:"candidateId"`
	CandidateFilename string    `json:"candidateFilename"`
	Action            string    `json:"action"`
	Username          string    `json:"username"`
	Reason            string    `json:"reason,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Valid audit actions
const (
	ActionInterview = "interview"
	ActionRejected  = "rejected"
	ActionOnHold    = "on_hold"
)

func ValidAction(a string) bool {
	switch a {
	case ActionInterview, ActionRejected, ActionOnHold:
		return true
	}
	return false
}

// AuditFilter narrows an audit log query. Empty fields match everything.
type AuditFilter struct {
	Username    string
	CandidateID string
	Action      string
	Limit       int
}

// ── Positions ──────────────────────────────────────────

// Position is an open role whose job description can be reused across analyses
type Position struct {
	ID                 uuid.UUID  `json:"id"`
	Code               string     `json:"code"`
	Title              string     `json:"title"`
	Department         string     `json:"department"`
	Location           string     `json:"location"`
	Status             string     `json:"status"`
	JobDescription     string     `json:"jobDescription"`
	SourceFile         string     `json:"sourceFile,omitempty"`
	WordCount          int        `json:"wordCount"`
	ExtractedAt        time.Time  `json:"extractedAt"`
	CreatedBy          string     `json:"createdBy"`
	TimesUsed          int        `json:"timesUsed"`
	CandidatesAnalyzed int        `json:"candidatesAnalyzed"`
	LastUsedAt         *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Position statuses
const (
	PositionActive = "active"
	PositionClosed = "closed"
	PositionDraft  = "draft"
)

func ValidPositionStatus(s string) bool {
	switch s {
	case PositionActive, PositionClosed, PositionDraft:
		return true
	}
	return false
}

// PositionFilter narrows a position listing
type PositionFilter struct {
	Status     string
	Department string
	Search     string
}

// ── Chat ───────────────────────────────────────────────

// ChatMessage is one turn of a recruiter conversation
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// ── Catalogue ──────────────────────────────────────────

// ModelInfo describes a selectable language model
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// EthicalPrinciple is one of the published rules the analysis follows
type EthicalPrinciple struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
