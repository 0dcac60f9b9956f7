package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// JWTClaims are issued by the identity provider. Subject is the student (or
// coach) id.
type JWTClaims struct {
	Role   string `json:"role,omitempty"`
	ClubID string `json:"club_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	MintToken(subject uuid.UUID, role string, clubID uuid.UUID, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
	issuer       string
	parser       *jwt.Parser
}

func NewAuthService(log *logger.Logger, jwtSecretKey, issuer string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("missing JWT secret")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
		issuer:       issuer,
		parser:       jwt.NewParser(opts...),
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsedToken, err := as.parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("invalid user id in token")
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	switch role {
	case "":
		role = ctxutil.RoleStudent
	case ctxutil.RoleStudent, ctxutil.RoleCoach, ctxutil.RoleAdmin:
	default:
		return ctx, fmt.Errorf("unknown role %q in token", claims.Role)
	}
	var clubID uuid.UUID
	if s := strings.TrimSpace(claims.ClubID); s != "" {
		clubID, err = uuid.Parse(s)
		if err != nil {
			return ctx, fmt.Errorf("invalid club id in token")
		}
	}
	if role == ctxutil.RoleCoach && clubID == uuid.Nil {
		return ctx, fmt.Errorf("coach token without club")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
		ClubID:      clubID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// MintToken signs an HS256 token; used by local tooling and tests.
func (as *authService) MintToken(subject uuid.UUID, role string, clubID uuid.UUID, ttl time.Duration) (string, error) {
	if subject == uuid.Nil {
		return "", fmt.Errorf("subject required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if clubID != uuid.Nil {
		claims.ClubID = clubID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}
