package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedClub(tb testing.TB, ctx context.Context, tx *gorm.DB, premium bool) *types.Club {
	tb.Helper()
	c := &types.Club{
		ID:                uuid.New(),
		Name:              "club",
		PremiumVideoProof: premium,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed club: %v", err)
	}
	return c
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, clubID *uuid.UUID, totalXP int64) *types.Student {
	tb.Helper()
	s := &types.Student{
		ID:          uuid.New(),
		ClubID:      clubID,
		DisplayName: "student",
		Belt:        "white",
		TotalXP:     totalXP,
		Cosmetics:   []byte("{}"),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}
