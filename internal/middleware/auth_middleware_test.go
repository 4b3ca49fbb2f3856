package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zevohq/zevo/internal/middleware"
	"github.com/zevohq/zevo/internal/models"
)

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("role", role)
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"allowed role passes", models.RoleOrganizer, []string{models.RoleOrganizer, models.RoleAdmin}, http.StatusOK},
		{"admin passes", models.RoleAdmin, []string{models.RoleOrganizer, models.RoleAdmin}, http.StatusOK},
		{"wrong role forbidden", models.RoleUser, []string{models.RoleOrganizer, models.RoleAdmin}, http.StatusForbidden},
		{"vendor cannot book", models.RoleVendor, []string{models.RoleUser}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withRole(tc.role), middleware.RequireRoles(tc.allowed...), okHandler)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestRequireRoles_MissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", middleware.RequireRoles(models.RoleAdmin), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

type fakeUserLookup struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserLookup) lookup(c *gin.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func signToken(t *testing.T, secret string, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTAuthMiddleware_RoleComesFromStoreNotClaim(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	store := &fakeUserLookup{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Role: models.Role{Name: models.RoleOrganizer}},
	}}

	var gotUserID uuid.UUID
	var gotRole string
	r := gin.New()
	r.GET("/x", middleware.JWTAuthWithLookup(store.lookup), func(c *gin.Context) {
		id, _ := c.Get("user_id")
		gotUserID, _ = id.(uuid.UUID)
		role, _ := c.Get("role")
		gotRole, _ = role.(string)
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	// The claim still carries the role at login time; the account has since
	// been promoted, and the current role must win.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", userID, models.RoleUser))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, models.RoleOrganizer, gotRole)
}

func TestJWTAuthMiddleware_DeletedAccountIsRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	r := gin.New()
	r.GET("/x", middleware.JWTAuthWithLookup((&fakeUserLookup{}).lookup), okHandler)

	// Token is valid, but the account behind it is gone.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", uuid.New(), models.RoleUser))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_RejectsMissingOrMalformedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", middleware.JWTAuthMiddleware(), okHandler)

	for name, header := range map[string]string{
		"no header":     "",
		"not bearer":    "Basic abc",
		"garbage token": "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
