package db

import (
	"fmt"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureGamificationIndexes(db)
}

// EnsureGamificationIndexes creates the indexes GORM tags cannot express.
func EnsureGamificationIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			// One daily quiz per student per day, across cohorts.
			name: "idx_submission_quiz_student_day",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_quiz_student_day
				ON challenge_submission (student_id, day) WHERE mode = 'QUIZ';`,
		},
		{
			name: "idx_submission_trust_lookup",
			sql: `CREATE INDEX IF NOT EXISTS idx_submission_trust_lookup
				ON challenge_submission (student_id, challenge_key, day) WHERE mode = 'SOLO_TRUST';`,
		},
		{
			name: "idx_submission_pending_video",
			sql: `CREATE INDEX IF NOT EXISTS idx_submission_pending_video
				ON challenge_submission (created_at) WHERE mode = 'SOLO_VIDEO' AND status = 'PENDING';`,
		},
		{
			name: "idx_xp_transaction_earn_window",
			sql: `CREATE INDEX IF NOT EXISTS idx_xp_transaction_earn_window
				ON xp_transaction (created_at, student_id) WHERE direction = 'EARN';`,
		},
		{
			name: "chk_student_total_xp_non_negative",
			sql: `DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_student_total_xp_non_negative') THEN
					ALTER TABLE student ADD CONSTRAINT chk_student_total_xp_non_negative CHECK (total_xp >= 0);
				END IF;
			END $$;`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

// EnsureTrustSubmissionIndex backs a trust limit of one submission per
// (student, challenge, day) with a unique index. Higher limits drop it.
func EnsureTrustSubmissionIndex(db *gorm.DB, dailyLimit int) error {
	stmt := `DROP INDEX IF EXISTS idx_submission_trust_once_per_day;`
	if dailyLimit <= 1 {
		stmt = `CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_trust_once_per_day
			ON challenge_submission (student_id, challenge_key, day) WHERE mode = 'SOLO_TRUST';`
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("ensure idx_submission_trust_once_per_day: %w", err)
	}
	return nil
}
