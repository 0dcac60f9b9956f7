package services

import (
	"context"
	"fmt"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// EntitlementService answers capability questions owned by the billing side.
// Premium video proof is granted by either the student's own flag or their
// club's flag.
type EntitlementService interface {
	HasVideoProof(ctx context.Context, student *types.Student) (bool, error)
}

type entitlementService struct {
	log   *logger.Logger
	clubs repos.ClubRepo
}

func NewEntitlementService(log *logger.Logger, clubs repos.ClubRepo) EntitlementService {
	return &entitlementService{log: log.With("service", "EntitlementService"), clubs: clubs}
}

func (s *entitlementService) HasVideoProof(ctx context.Context, student *types.Student) (bool, error) {
	if student == nil {
		return false, nil
	}
	if student.PremiumVideoProof {
		return true, nil
	}
	if student.ClubID == nil || s.clubs == nil {
		return false, nil
	}
	club, err := s.clubs.GetByID(dbctx.Context{Ctx: ctx}, *student.ClubID)
	if err != nil {
		return false, fmt.Errorf("load club: %w", err)
	}
	return club != nil && club.PremiumVideoProof, nil
}
