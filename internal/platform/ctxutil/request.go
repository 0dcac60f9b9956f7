package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleCoach   = "coach"
	RoleAdmin   = "admin"
)

type requestDataKey struct{}

// RequestData is the authenticated caller, resolved from the bearer token.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Role        string
	ClubID      uuid.UUID
}

func (rd *RequestData) IsStaff() bool {
	return rd != nil && (rd.Role == RoleCoach || rd.Role == RoleAdmin)
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
