package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"erp/internal/apperror"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidCredentials is returned for every failed login or refresh, so
// callers cannot tell which part was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	LastLogin string    `json:"last_login_at,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID string, id string) error
	// BootstrapAdmin creates an admin account for email unless one exists.
	BootstrapAdmin(ctx context.Context, email, password string) (bool, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	jwtSecret []byte
	now       func() time.Time
	log       zerolog.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository, jwtSecret string) UserService {
	return &userService{
		repo:      repo,
		auditRepo: auditRepo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
		log:       logger.WithComponent("user_service"),
	}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleStaff
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		res.LastLogin = user.LastLoginAt.Format(time.RFC3339)
	}
	return res
}

// hashToken is the lookup key of a refresh token. The raw value only ever
// lives in the client's cookie.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, apperror.Validation("role", "must be admin, manager, or staff")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperror.Validation("email", "invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperror.Validation("password", "must be at least 6 characters")
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, strings.ToLower(req.Email)); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Unexpected("failed to hash password", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, repoError(err, "user", "")
	}

	if err := writeAudit(ctx, s.auditRepo, actorID, model.ActionCreateUser, user.ID.String(), user.Username,
		map[string]string{"email": user.Email, "role": user.Role}); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("audit entry for new user not written")
	}
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Unexpected("failed to load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.repo.TouchLogin(ctx, user.ID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("last login not recorded")
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the old one is deleted and a new pair issued.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	hash := hashToken(refreshToken)
	rt, err := s.repo.FindRefreshToken(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Unexpected("failed to load refresh token", err)
	}
	user, err := s.repo.GetByID(ctx, rt.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Unexpected("failed to load user", err)
	}
	if err := s.repo.DeleteRefreshToken(ctx, hash); err != nil {
		return nil, apperror.Unexpected("failed to revoke refresh token", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteRefreshToken(ctx, hashToken(refreshToken)); err != nil {
		return apperror.Unexpected("failed to revoke refresh token", err)
	}
	return nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperror.Unexpected("failed to generate token", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.Unexpected("failed to generate refresh token", err)
	}
	refresh := hex.EncodeToString(raw)
	rt := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(RefreshTokenTTL),
	}
	if err := s.repo.SaveRefreshToken(ctx, rt); err != nil {
		return nil, apperror.Unexpected("failed to store refresh token", err)
	}

	return &TokenResponse{Token: tokenString, RefreshToken: refresh}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "user", id)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	p := pagination.Normalize(page, limit)
	users, total, err := s.repo.List(ctx, p.Page, p.Limit)
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch users", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "user", id)
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, apperror.Validation("role", "must be admin, manager, or staff")
		}
		user.Role = req.Role
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, apperror.Conflict("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		if _, err := s.repo.GetByEmail(ctx, strings.ToLower(req.Email)); err == nil {
			return nil, apperror.Conflict("email already exists")
		}
		user.Email = strings.ToLower(req.Email)
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", id)
	}
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID string, id string) error {
	if actorID == id {
		return apperror.Conflict("cannot delete your own account")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "user", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "user", id)
	}
	if err := s.repo.DeleteUserRefreshTokens(ctx, user.ID); err != nil {
		return apperror.Unexpected("failed to revoke sessions", err)
	}
	if err := writeAudit(ctx, s.auditRepo, actorID, model.ActionDeleteUser, id, user.Username, nil); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("audit entry for deleted user not written")
	}
	return nil
}

func (s *userService) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperror.Unexpected("failed to load user", err)
	}

	username := strings.SplitN(email, "@", 2)[0]
	if _, err := s.CreateUser(ctx, "", CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
