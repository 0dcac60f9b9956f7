package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

func newAuthRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth, err := services.NewAuthService(logger.Nop(), "test-secret", "dojoquest")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	am := NewAuthMiddleware(logger.Nop(), auth)

	r := gin.New()
	api := r.Group("/api", am.RequireAuth())
	api.GET("/whoami", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID, "role": rd.Role})
	})
	api.GET("/staff", am.RequireStaff(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, auth
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r, auth := newAuthRouter(t)

	if rec := doGet(r, "/api/whoami", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", rec.Code)
	}
	if rec := doGet(r, "/api/whoami", "not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d", rec.Code)
	}

	token, err := auth.MintToken(uuid.New(), ctxutil.RoleStudent, uuid.Nil, time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if rec := doGet(r, "/api/whoami", token); rec.Code != http.StatusOK {
		t.Fatalf("valid token: got %d %s", rec.Code, rec.Body.String())
	}
	if rec := doGet(r, "/api/whoami?token="+token, ""); rec.Code != http.StatusOK {
		t.Fatalf("query token: got %d", rec.Code)
	}
}

func TestRequireStaff(t *testing.T) {
	r, auth := newAuthRouter(t)

	studentToken, _ := auth.MintToken(uuid.New(), ctxutil.RoleStudent, uuid.Nil, time.Minute)
	if rec := doGet(r, "/api/staff", studentToken); rec.Code != http.StatusForbidden {
		t.Fatalf("student on staff route: got %d", rec.Code)
	}
	coachToken, _ := auth.MintToken(uuid.New(), ctxutil.RoleCoach, uuid.New(), time.Minute)
	if rec := doGet(r, "/api/staff", coachToken); rec.Code != http.StatusNoContent {
		t.Fatalf("coach on staff route: got %d", rec.Code)
	}
}
