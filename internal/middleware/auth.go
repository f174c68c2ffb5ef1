package middleware

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"erp/internal/model"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middleware.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// Permission codes checked by RequirePermission.
const (
	PermPartnersRead   = "partners.read"
	PermPartnersWrite  = "partners.write"
	PermStocksRead     = "stocks.read"
	PermStocksWrite    = "stocks.write"
	PermInvoicesRead   = "invoices.read"
	PermInvoicesWrite  = "invoices.write"
	PermPerformaRead   = "performa.read"
	PermPerformaWrite  = "performa.write"
	PermPerformaConv   = "performa.convert"
	PermPurchasesRead  = "purchases.read"
	PermPurchasesWrite = "purchases.write"
	PermPaymentsRead   = "payments.read"
	PermPaymentsWrite  = "payments.write"
	PermExpensesRead   = "expenses.read"
	PermExpensesWrite  = "expenses.write"
	PermBankRead       = "bank.read"
	PermBankWrite      = "bank.write"
	PermFinanceRead    = "finance.read"
	PermAuditRead      = "audit.read"
	PermUsersRead      = "users.read"
	PermUsersWrite     = "users.write"
	PermUsersDelete    = "users.delete"
)

var allPermissions = []string{
	PermPartnersRead, PermPartnersWrite,
	PermStocksRead, PermStocksWrite,
	PermInvoicesRead, PermInvoicesWrite,
	PermPerformaRead, PermPerformaWrite, PermPerformaConv,
	PermPurchasesRead, PermPurchasesWrite,
	PermPaymentsRead, PermPaymentsWrite,
	PermExpensesRead, PermExpensesWrite,
	PermBankRead, PermBankWrite,
	PermFinanceRead, PermAuditRead,
	PermUsersRead, PermUsersWrite, PermUsersDelete,
}

// rolePermissions is the static role -> permission table. Admin holds every
// permission and is not listed.
var rolePermissions = map[string][]string{
	model.RoleManager: {
		PermPartnersRead, PermPartnersWrite,
		PermStocksRead, PermStocksWrite,
		PermInvoicesRead, PermInvoicesWrite,
		PermPerformaRead, PermPerformaWrite, PermPerformaConv,
		PermPurchasesRead, PermPurchasesWrite,
		PermPaymentsRead, PermPaymentsWrite,
		PermExpensesRead, PermExpensesWrite,
		PermBankRead, PermBankWrite,
		PermFinanceRead, PermAuditRead,
		PermUsersRead,
	},
	model.RoleStaff: {
		PermPartnersRead,
		PermStocksRead,
		PermInvoicesRead,
		PermPerformaRead, PermPerformaWrite,
		PermPurchasesRead,
		PermPaymentsRead, PermPaymentsWrite,
		PermExpensesRead,
	},
}

// PermissionsFor returns the sorted permission codes granted to role.
func PermissionsFor(role string) []string {
	var perms []string
	if role == model.RoleAdmin {
		perms = append(perms, allPermissions...)
	} else {
		perms = append(perms, rolePermissions[role]...)
	}
	sort.Strings(perms)
	return perms
}

func hasPermission(role, perm string) bool {
	if role == model.RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// --- Token handling ---

var (
	authMu        sync.RWMutex
	jwtSecret     []byte
	secureCookies bool
)

// InitAuth configures the signing secret and the cookie mode. It must run
// before the router serves requests.
func InitAuth(secret string, secure bool) {
	authMu.Lock()
	defer authMu.Unlock()
	jwtSecret = []byte(secret)
	secureCookies = secure
}

func authSettings() ([]byte, bool) {
	authMu.RLock()
	defer authMu.RUnlock()
	return jwtSecret, secureCookies
}

// Claims is the identity carried by an access token.
type Claims struct {
	UserID string
	Role   string
}

var errMissingRole = errors.New("role not found in token")

// ParseToken validates an HS256 access token and extracts its claims.
func ParseToken(tokenString string) (Claims, error) {
	secret, _ := authSettings()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Claims{}, errMissingRole
	}
	sub, _ := claims["sub"].(string)
	return Claims{UserID: sub, Role: role}, nil
}

// tokenFromRequest reads the access_token cookie, falling back to the
// Authorization bearer header.
func tokenFromRequest(c *gin.Context) (string, string) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func authenticate(c *gin.Context) (Claims, bool) {
	tokenString, problem := tokenFromRequest(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
		return Claims{}, false
	}
	claims, err := ParseToken(tokenString)
	if err != nil {
		if errors.Is(err, errMissingRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return Claims{}, false
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return Claims{}, false
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
	return claims, true
}

// RequireRole validates the JWT and checks the user's role against allowedRoles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			return
		}
		for _, role := range allowedRoles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// RequirePermission validates the JWT and checks that the user's role holds
// every required permission.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			return
		}
		for _, required := range requiredPerms {
			if !hasPermission(claims.Role, required) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// --- Cookies ---

func cookieMode() (http.SameSite, bool) {
	// Cross-origin deployments need SameSite=None, which browsers only accept
	// on secure cookies.
	if _, secure := authSettings(); secure {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessMaxAge, refreshMaxAge int) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, accessMaxAge, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, refreshMaxAge, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}
