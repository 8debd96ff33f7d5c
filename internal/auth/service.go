package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/api/models"
)

// ValidationError carries field level problems with a signup or login request.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Service provides authentication operations.
type Service struct {
	jwtService  *JWTService
	userRepo    UserRepository
	adminEmails map[string]struct{}
	bcryptCost  int
	logger      zerolog.Logger
	now         func() time.Time
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService
	UserRepo   UserRepository

	// AdminEmails are promoted to the admin role when they sign up.
	AdminEmails []string

	// BcryptCost overrides bcrypt.DefaultCost when non-zero.
	BcryptCost int

	Logger zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}

	return &Service{
		jwtService:  cfg.JWTService,
		userRepo:    cfg.UserRepo,
		adminEmails: admins,
		bcryptCost:  cfg.BcryptCost,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// ParseAdminEmails splits a comma separated ADMIN_EMAILS value.
func ParseAdminEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Signup registers a new account and returns an access token for it.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var errs []models.FieldError
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		errs = append(errs, models.FieldError{
			Field:   "name",
			Code:    "OUT_OF_RANGE",
			Message: "Name must be between 2 and 100 characters",
		})
	}
	if !validEmail(email) {
		errs = append(errs, models.FieldError{
			Field:   "email",
			Code:    "INVALID_VALUE",
			Message: "A valid email is required",
		})
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		errs = append(errs, models.FieldError{
			Field:   "password",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
		})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	role := RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = RoleAdmin
	}

	now := s.now().UTC()
	user := &User{
		ID:           generateUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user signed up")

	return s.issue(user)
}

// Login verifies credentials and returns a fresh access token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, &ValidationError{Errors: []models.FieldError{{
			Field:   "email",
			Code:    "REQUIRED",
			Message: "Email and password are required",
		}}}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ValidateAccessToken validates an access token and returns the user ID and role.
func (s *Service) ValidateAccessToken(tokenString string) (string, Role, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *Service) issue(user *User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	return &models.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: models.Timestamp(expiresAt.UTC()),
		User:      ToAPIUser(user),
	}, nil
}

// ToAPIUser converts a user to its public representation.
func ToAPIUser(user *User) models.User {
	return models.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      models.Role(user.Role),
		CreatedAt: models.Timestamp(user.CreatedAt.UTC()),
	}
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

// generateUserID generates a unique user ID with prefix.
func generateUserID() string {
	return "usr_" + uuid.New().String()[:22]
}
