package storage

import "time"

// Stage is an applicant's current point in the hiring pipeline. Transitions
// are free-form: the API accepts any stage-to-stage change.
type Stage string

const (
	StageUnprocessed          Stage = "unprocessed"
	StageInviteSent           Stage = "invite-sent"
	StageScheduled            Stage = "scheduled"
	StagePendingEvaluation    Stage = "pending-evaluation"
	StageConsideringRejecting Stage = "considering-rejecting"
	StageRejected             Stage = "rejected"
	StageConsideringAccepting Stage = "considering-accepting"
	StageAccepted             Stage = "accepted"
)

var stages = map[Stage]bool{
	StageUnprocessed:          true,
	StageInviteSent:           true,
	StageScheduled:            true,
	StagePendingEvaluation:    true,
	StageConsideringRejecting: true,
	StageRejected:             true,
	StageConsideringAccepting: true,
	StageAccepted:             true,
}

// Valid reports whether s is one of the known pipeline stages.
func (s Stage) Valid() bool {
	return stages[s]
}

// Rating is one rater's scored evaluation of an applicant. Ratings are only
// ever appended to or removed from an applicant, never mutated in place.
type Rating struct {
	ID         string         `json:"id"`
	Rater      string         `json:"rater"`
	Notes      string         `json:"notes"`
	Attributes map[string]int `json:"attributes"` // criterion -> score in [0,5]
}

// Attributes is the mutable part of an applicant record, stored as a single
// JSONB column. Resume bytes round-trip through JSON's base64 encoding, so
// they are base64 at rest.
type Attributes struct {
	GithubURL     string    `json:"githubUrl,omitempty"`
	EmailText     string    `json:"emailText"`
	Resume        []byte    `json:"resume,omitempty"`
	ResumeText    string    `json:"resumeText,omitempty"`
	Ratings       []Rating  `json:"ratings"`
	Stage         Stage     `json:"stage"`
	DateSubmitted time.Time `json:"dateSubmitted,omitempty"`
}

// Applicant is a stored applicant record. Email is the unique key: a later
// submission from the same address is dropped as a duplicate, never merged.
type Applicant struct {
	ID         int64
	Email      string // lowercased
	Name       string
	Attributes Attributes
}
