package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// DailyChallengeCache is a read-through layer in front of the daily_challenge
// table. Only persisted rows are ever stored.
type DailyChallengeCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, date, cohort string) (*types.DailyChallenge, error)
	Set(ctx context.Context, row *types.DailyChallenge) error
}

const defaultDailyChallengeTTL = 26 * time.Hour

type redisDailyChallengeCache struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	prefix string
	ttl    time.Duration
}

func NewRedisDailyChallengeCache(rdb goredis.UniversalClient, log *logger.Logger, prefix string) DailyChallengeCache {
	if prefix == "" {
		prefix = "dq"
	}
	return &redisDailyChallengeCache{
		rdb:    rdb,
		log:    log.With("cache", "DailyChallengeCache"),
		prefix: prefix,
		ttl:    defaultDailyChallengeTTL,
	}
}

// cachedChallenge mirrors DailyChallenge including the answer, which the
// model hides from JSON.
type cachedChallenge struct {
	ID            uuid.UUID       `json:"id"`
	ChallengeDate string          `json:"challenge_date"`
	Cohort        string          `json:"cohort"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	XPReward      int64           `json:"xp_reward"`
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectOption int             `json:"correct_option"`
	Explanation   string          `json:"explanation"`
	ArtStyle      string          `json:"art_style"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (c *redisDailyChallengeCache) key(date, cohort string) string {
	return fmt.Sprintf("%s:daily_challenge:%s:%s", c.prefix, date, cohort)
}

func (c *redisDailyChallengeCache) Get(ctx context.Context, date, cohort string) (*types.DailyChallenge, error) {
	raw, err := c.rdb.Get(ctx, c.key(date, cohort)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cc cachedChallenge
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Warn("Dropping undecodable cached daily challenge", "date", date, "cohort", cohort, "error", err)
		_ = c.rdb.Del(ctx, c.key(date, cohort)).Err()
		return nil, nil
	}
	return &types.DailyChallenge{
		ID:            cc.ID,
		ChallengeDate: cc.ChallengeDate,
		Cohort:        cc.Cohort,
		Title:         cc.Title,
		Description:   cc.Description,
		XPReward:      cc.XPReward,
		Question:      cc.Question,
		Options:       []byte(cc.Options),
		CorrectOption: cc.CorrectOption,
		Explanation:   cc.Explanation,
		ArtStyle:      cc.ArtStyle,
		CreatedAt:     cc.CreatedAt,
	}, nil
}

func (c *redisDailyChallengeCache) Set(ctx context.Context, row *types.DailyChallenge) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("refusing to cache an unpersisted daily challenge")
	}
	raw, err := json.Marshal(cachedChallenge{
		ID:            row.ID,
		ChallengeDate: row.ChallengeDate,
		Cohort:        row.Cohort,
		Title:         row.Title,
		Description:   row.Description,
		XPReward:      row.XPReward,
		Question:      row.Question,
		Options:       json.RawMessage(row.Options),
		CorrectOption: row.CorrectOption,
		Explanation:   row.Explanation,
		ArtStyle:      row.ArtStyle,
		CreatedAt:     row.CreatedAt,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(row.ChallengeDate, row.Cohort), raw, c.ttl).Err()
}
