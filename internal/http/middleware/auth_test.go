package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/requestdata"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

func newAuthedRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	authService, err := services.NewAuthService(logger.NewNop(), "auth-test-secret")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	am := NewAuthMiddleware(logger.NewNop(), authService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})

	userID := uuid.New()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("auth-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return router, signed
}

func TestRequireAuthBearerHeader(t *testing.T) {
	t.Parallel()

	router, token := newAuthedRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, err := uuid.Parse(rec.Body.String()); err != nil {
		t.Fatalf("handler did not see the authenticated user: %q", rec.Body.String())
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	t.Parallel()

	router, token := newAuthedRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuthRejects(t *testing.T) {
	t.Parallel()

	router, _ := newAuthedRouter(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"malformed header", "Token abc"},
		{"bad token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
