package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUser        = errors.New("invalid user data")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// UserStore is the persistence the auth service needs
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// AuthPolicy restricts which accounts may exist. An empty EmailDomain or
// Departments list allows anything.
type AuthPolicy struct {
	EmailDomain string
	Departments []string
}

func (p AuthPolicy) checkEmail(email string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address is malformed", ErrInvalidUser)
	}
	if p.EmailDomain != "" && !strings.HasSuffix(email, "@"+strings.TrimPrefix(strings.ToLower(p.EmailDomain), "@")) {
		return fmt.Errorf("%w: only %s email addresses are allowed", ErrInvalidUser, p.EmailDomain)
	}
	return nil
}

func (p AuthPolicy) checkDepartment(dept string) error {
	if len(p.Departments) == 0 {
		return nil
	}
	for _, d := range p.Departments {
		if strings.EqualFold(d, dept) {
			return nil
		}
	}
	return fmt.Errorf("%w: department must be one of %s", ErrInvalidUser, strings.Join(p.Departments, ", "))
}

// NewUser is the input for registering an account
type NewUser struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Department string `json:"department" binding:"required"`
	Role       string `json:"role"`
}

// AuthService handles local accounts and token issuance
type AuthService struct {
	users  UserStore
	tokens *TokenIssuer
	policy AuthPolicy
}

func NewAuthService(users UserStore, tokens *TokenIssuer, policy AuthPolicy) *AuthService {
	return &AuthService{users: users, tokens: tokens, policy: policy}
}

// Login checks the credentials and returns a signed token with the account
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		log.Warn().Str("username", username).Msg("Login attempt for unknown user")
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("username", username).Msg("Login attempt with wrong password")
		return "", nil, ErrInvalidCredentials
	}

	// Accounts created before a policy change are locked out rather than grandfathered.
	if err := s.policy.checkEmail(user.Email); err != nil {
		log.Warn().Str("username", username).Err(err).Msg("Login rejected by email policy")
		return "", nil, ErrInvalidCredentials
	}
	if err := s.policy.checkDepartment(user.Department); err != nil {
		log.Warn().Str("username", username).Err(err).Msg("Login rejected by department policy")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}

	log.Info().Str("username", user.Username).Msg("User logged in")
	return token, user, nil
}

// Register validates and stores a new account
func (s *AuthService) Register(ctx context.Context, in NewUser) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Department = strings.TrimSpace(in.Department)
	if in.Role == "" {
		in.Role = model.RoleUser
	}

	if !usernameRe.MatchString(in.Username) {
		return nil, fmt.Errorf("%w: username must be 3-50 letters, digits or underscores", ErrInvalidUser)
	}
	if !model.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, in.Role)
	}
	if err := s.policy.checkEmail(in.Email); err != nil {
		return nil, err
	}
	if err := s.policy.checkDepartment(in.Department); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if existing, err := s.users.FindByUsername(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	} else if existing != nil {
		return nil, ErrUserExists
	}
	if existing, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	log.Info().Str("username", user.Username).Str("role", user.Role).Msg("User registered")
	return user, nil
}

// EnsureAdmin creates the administrator account when it does not exist yet.
// Blank credentials skip seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	dept := "HR"
	if len(s.policy.Departments) > 0 {
		dept = s.policy.Departments[0]
	}

	_, err = s.Register(ctx, NewUser{
		Username:   username,
		Password:   password,
		Email:      email,
		Department: dept,
		Role:       model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	return nil
}

// SetPassword replaces the password of an existing account
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Username, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	log.Info().Str("username", user.Username).Msg("Password updated")
	return nil
}

// ResolvePrincipal maps a verified token identity onto a local account
func (s *AuthService) ResolvePrincipal(ctx context.Context, p *model.Principal) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	switch {
	case p.Username != "":
		user, err = s.users.FindByUsername(ctx, p.Username)
	case p.Email != "":
		user, err = s.users.FindByEmail(ctx, strings.ToLower(p.Email))
	default:
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving principal: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ValidatePassword enforces the password strength rules, reporting the first
// rule that fails
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidUser)
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	switch {
	case !upper:
		return fmt.Errorf("%w: password must contain an uppercase letter", ErrInvalidUser)
	case !lower:
		return fmt.Errorf("%w: password must contain a lowercase letter", ErrInvalidUser)
	case !digit:
		return fmt.Errorf("%w: password must contain a digit", ErrInvalidUser)
	case !special:
		return fmt.Errorf("%w: password must contain a special character", ErrInvalidUser)
	}
	return nil
}
