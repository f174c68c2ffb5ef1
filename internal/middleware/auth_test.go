package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"erp/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "11111111-1111-1111-1111-111111111111",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	InitAuth(testSecret, false)
	r := gin.New()
	r.GET("/stocks", RequirePermission(PermStocksWrite), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/me", RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequirePermission(t *testing.T) {
	r := newRouter()

	expired := validClaims(model.RoleAdmin)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noRole := validClaims("")
	delete(noRole, "role")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", validClaims(model.RoleAdmin)), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), http.StatusUnauthorized},
		{"no role claim", "Bearer " + signToken(t, testSecret, noRole), http.StatusForbidden},
		{"staff lacks permission", "Bearer " + signToken(t, testSecret, validClaims(model.RoleStaff)), http.StatusForbidden},
		{"manager allowed", "Bearer " + signToken(t, testSecret, validClaims(model.RoleManager)), http.StatusOK},
		{"admin allowed", "Bearer " + signToken(t, testSecret, validClaims(model.RoleAdmin)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAccessTokenCookie(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, testSecret, validClaims(model.RoleAdmin))})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("user id = %q", got)
	}
}

func TestRequireRoleRejectsUnknownRole(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims("guest")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestPermissionsFor(t *testing.T) {
	if got := PermissionsFor(model.RoleAdmin); len(got) != len(allPermissions) {
		t.Errorf("admin permissions = %d, want %d", len(got), len(allPermissions))
	}
	for _, p := range PermissionsFor(model.RoleStaff) {
		if p == PermUsersWrite || p == PermPerformaConv {
			t.Errorf("staff holds %s", p)
		}
	}
	if got := PermissionsFor("guest"); len(got) != 0 {
		t.Errorf("unknown role permissions = %v", got)
	}
}
