package gamification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission is the decoded form of a ChallengeSubmission row. Each mode gets its
// own variant carrying only the fields that mode uses; the set is closed.
type Submission interface {
	Common() SubmissionCommon
	isSubmission()
}

type SubmissionCommon struct {
	ID           uuid.UUID `json:"id"`
	StudentID    uuid.UUID `json:"student_id"`
	ChallengeKey string    `json:"challenge_key"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	XPAmount     int64     `json:"xp_amount"`
	Day          string    `json:"day"`
	CreatedAt    time.Time `json:"created_at"`
}

type TrustSubmission struct {
	SubmissionCommon
	Score *int `json:"score,omitempty"`
}

type VideoSubmission struct {
	SubmissionCommon
	VideoURL      string     `json:"video_url"`
	VideoKey      string     `json:"-"`
	VerifiedBy    *uuid.UUID `json:"verified_by,omitempty"`
	VerifierNotes string     `json:"verifier_notes,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

type PvpMatch struct {
	SubmissionCommon
	ChallengerID    uuid.UUID  `json:"challenger_id"`
	OpponentID      uuid.UUID  `json:"opponent_id"`
	ChallengerScore *int       `json:"challenger_score,omitempty"`
	OpponentScore   *int       `json:"opponent_score,omitempty"`
	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

type QuizCompletion struct {
	SubmissionCommon
	DailyChallengeID *uuid.UUID `json:"daily_challenge_id,omitempty"`
	SelectedOption   *int       `json:"selected_option,omitempty"`
	Correct          bool       `json:"correct"`
	Fallback         bool       `json:"fallback"`
}

func (s TrustSubmission) Common() SubmissionCommon { return s.SubmissionCommon }
func (s VideoSubmission) Common() SubmissionCommon { return s.SubmissionCommon }
func (s PvpMatch) Common() SubmissionCommon        { return s.SubmissionCommon }
func (s QuizCompletion) Common() SubmissionCommon  { return s.SubmissionCommon }

func (TrustSubmission) isSubmission() {}
func (VideoSubmission) isSubmission() {}
func (PvpMatch) isSubmission()        {}
func (QuizCompletion) isSubmission()  {}

// Role reports whether studentID is the challenger or the opponent of m.
func (m PvpMatch) Role(studentID uuid.UUID) (PvpRole, bool) {
	switch studentID {
	case m.ChallengerID:
		return PvpRoleChallenger, true
	case m.OpponentID:
		return PvpRoleOpponent, true
	default:
		return "", false
	}
}

type PvpRole string

const (
	PvpRoleChallenger PvpRole = "challenger"
	PvpRoleOpponent   PvpRole = "opponent"
)

// ScoreColumn is the submission column holding this role's score.
func (r PvpRole) ScoreColumn() string {
	if r == PvpRoleOpponent {
		return "opponent_score"
	}
	return "challenger_score"
}

// QuizMetadata is what a QUIZ row stores in its metadata column.
type QuizMetadata struct {
	DailyChallengeID *uuid.UUID `json:"daily_challenge_id,omitempty"`
	Correct          bool       `json:"correct"`
	Fallback         bool       `json:"fallback"`
}

// DecodeSubmission turns a storage row into its mode's variant.
func DecodeSubmission(row *ChallengeSubmission) (Submission, error) {
	if row == nil {
		return nil, fmt.Errorf("nil submission row")
	}
	common := SubmissionCommon{
		ID:           row.ID,
		StudentID:    row.StudentID,
		ChallengeKey: row.ChallengeKey,
		Mode:         row.Mode,
		Status:       row.Status,
		XPAmount:     row.XPAmount,
		Day:          row.Day,
		CreatedAt:    row.CreatedAt,
	}
	switch row.Mode {
	case ModeSoloTrust:
		return TrustSubmission{SubmissionCommon: common, Score: row.Score}, nil
	case ModeSoloVideo:
		return VideoSubmission{
			SubmissionCommon: common,
			VideoURL:         row.VideoURL,
			VideoKey:         row.VideoKey,
			VerifiedBy:       row.VerifiedBy,
			VerifierNotes:    row.VerifierNotes,
			ResolvedAt:       row.ResolvedAt,
		}, nil
	case ModePvp:
		if row.OpponentID == nil {
			return nil, fmt.Errorf("pvp submission %s has no opponent", row.ID)
		}
		return PvpMatch{
			SubmissionCommon: common,
			ChallengerID:     row.StudentID,
			OpponentID:       *row.OpponentID,
			ChallengerScore:  row.ChallengerScore,
			OpponentScore:    row.OpponentScore,
			WinnerID:         row.WinnerID,
			ResolvedAt:       row.ResolvedAt,
		}, nil
	case ModeQuiz:
		var meta QuizMetadata
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("decode quiz metadata: %w", err)
			}
		}
		return QuizCompletion{
			SubmissionCommon: common,
			DailyChallengeID: meta.DailyChallengeID,
			SelectedOption:   row.Score,
			Correct:          meta.Correct,
			Fallback:         meta.Fallback,
		}, nil
	default:
		return nil, fmt.Errorf("unknown submission mode %q", row.Mode)
	}
}
