package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuth(t *testing.T) (*BasicAuthenticator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&models.User{Username: "alice", Email: "alice@test.com", PasswordHash: hash}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewBasicAuthenticator(db, "jwt-secret"), db
}

func protectedRouter(a *BasicAuthenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", a.Middleware(), func(c *gin.Context) {
		user, err := a.GetUserFromContext(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	return r
}

func TestLogin(t *testing.T) {
	a, db := setupAuth(t)

	resp, err := a.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "alice" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if time.Until(time.Unix(resp.ExpiresAt, 0)) <= TokenDuration-time.Minute {
		t.Errorf("unexpected expiry %d", resp.ExpiresAt)
	}

	if _, err := a.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Login("mallory", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	var entries []models.AuditLog
	db.Order("id").Find(&entries)
	if len(entries) != 2 || entries[0].Action != "login" || entries[1].Action != "login_failed" {
		t.Errorf("unexpected audit trail %+v", entries)
	}
}

func TestMiddleware(t *testing.T) {
	a, _ := setupAuth(t)
	r := protectedRouter(a)

	resp, err := a.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := NewBasicAuthenticator(a.db, "another-secret")
	forged, _, _ := other.generateToken(resp.User)

	a2 := NewBasicAuthenticator(a.db, "jwt-secret")
	a2.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, _ := a2.generateToken(resp.User)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + resp.Token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + resp.Token, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != "alice" {
				t.Errorf("unexpected body %q", w.Body.String())
			}
		})
	}
}
