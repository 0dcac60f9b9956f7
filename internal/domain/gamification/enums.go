package gamification

// Submission modes.
const (
	ModeSoloTrust = "SOLO_TRUST"
	ModeSoloVideo = "SOLO_VIDEO"
	ModePvp       = "PVP"
	ModeQuiz      = "QUIZ"
)

// Submission statuses. Which ones are reachable depends on the mode:
// trust and quiz rows are born COMPLETED, video rows go PENDING -> VERIFIED|REJECTED,
// PvP rows go PENDING_OPPONENT -> ACTIVE -> COMPLETED or PENDING_OPPONENT -> REJECTED.
const (
	StatusPending         = "PENDING"
	StatusVerified        = "VERIFIED"
	StatusRejected        = "REJECTED"
	StatusCompleted       = "COMPLETED"
	StatusPendingOpponent = "PENDING_OPPONENT"
	StatusActive          = "ACTIVE"
)

const (
	ProofSelfReport    = "SELF_REPORT"
	ProofVideo         = "VIDEO"
	ProofScoreExchange = "SCORE_EXCHANGE"
	ProofQuizAnswer    = "QUIZ_ANSWER"
)

const (
	DirectionEarn  = "EARN"
	DirectionSpend = "SPEND"
)

// Ledger source tags.
const (
	SourceTrustChallenge = "trust_challenge"
	SourceVideoChallenge = "video_challenge"
	SourceDailyChallenge = "daily_challenge"
	SourceHabit          = "habit"
	SourceFamily         = "family_challenge"
	SourcePvpWin         = "pvp_win"
	SourcePvpConsolation = "pvp_consolation"
	SourceManualAward    = "manual_award"
	SourceRedemption     = "reward_redemption"
)

const (
	FamilyOutcomeWon  = "won"
	FamilyOutcomeLost = "lost"
)

// Belts double as daily challenge cohorts.
var Belts = []string{"white", "yellow", "orange", "green", "blue", "purple", "brown", "red", "black"}

func IsBelt(s string) bool {
	for _, b := range Belts {
		if b == s {
			return true
		}
	}
	return false
}
