package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/royals-sales/royals/internal/shared"
)

// ErrAlreadyVerified is returned when resending verification for a
// verified account.
var ErrAlreadyVerified = errors.New("email already verified")

// verifyTokenTTL is how long an email verification link stays valid.
const verifyTokenTTL = 24 * time.Hour

// oauthUsernameAttempts bounds the retry loop for synthesized usernames.
const oauthUsernameAttempts = 5

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// EmailQueue hands transactional mail to the background queue. Enqueue
// failures are reported to the caller but never fail the triggering
// request.
type EmailQueue interface {
	EnqueueVerification(ctx context.Context, to, name, token string) error
	EnqueueWelcome(ctx context.Context, to, name string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo            Repository
	tokens          *TokenManager
	mail            EmailQueue
	logger          *slog.Logger
	requireVerified bool
}

// ServiceConfig groups optional auth policies.
type ServiceConfig struct {
	// RequireVerified blocks login for inactive or unverified accounts.
	RequireVerified bool
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, mail EmailQueue, logger *slog.Logger, cfg ServiceConfig) *Service {
	return &Service{repo: repo, tokens: tokens, mail: mail, logger: logger, requireVerified: cfg.RequireVerified}
}

// Login validates username/password credentials and issues a token. The
// failure reason never distinguishes a missing user from a bad password.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !VerifyPassword(password, *user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	if s.requireVerified && (!user.IsActive || !user.EmailVerified) {
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user.Project()}, nil
}

// Signup registers a local account and queues a verification email. All
// policy violations are collected and returned together.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	var violations []string
	if !usernamePattern.MatchString(req.Username) {
		violations = append(violations, "Username must be 3-30 characters of letters, numbers, underscores or hyphens")
	}
	if !emailPattern.MatchString(req.Email) {
		violations = append(violations, "Email must be a valid email address")
	}
	if policy := ValidatePassword(req.Password); !policy.Valid {
		violations = append(violations, policy.Errors...)
	}
	if len(violations) > 0 {
		return nil, &shared.ValidationError{Messages: violations}
	}

	taken, err := s.repo.UsernameOrEmailTaken(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: Username or email already exists", shared.ErrConflict)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	expiry := time.Now().Add(verifyTokenTTL)

	user := User{
		Username:      req.Username,
		Email:         req.Email,
		Name:          req.Name,
		Phone:         req.Phone,
		PasswordHash:  &hash,
		Role:          shared.RoleStaff,
		IsActive:      true,
		EmailVerified: false,
		VerifyToken:   &token,
		VerifyExpiry:  &expiry,
	}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: Username or email already exists", shared.ErrConflict)
		}
		return nil, err
	}

	emailSent := true
	if err := s.mail.EnqueueVerification(ctx, req.Email, req.Name, token); err != nil {
		emailSent = false
		if s.logger != nil {
			s.logger.Warn("queue verification email", slog.String("email", req.Email), slog.Any("error", err))
		}
	}

	return &SignupResult{
		Message:   "Account created. Please verify your email address.",
		UserID:    id,
		EmailSent: emailSent,
	}, nil
}

// VerifyEmail consumes a verification token and activates the account.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.repo.GetUserByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("Invalid or expired verification token")
		}
		return err
	}
	if user.VerifyExpiry == nil || time.Now().After(*user.VerifyExpiry) {
		return shared.NewValidationError("Invalid or expired verification token")
	}
	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := s.mail.EnqueueWelcome(ctx, user.Email, user.Name); err != nil && s.logger != nil {
		s.logger.Warn("queue welcome email", slog.String("email", user.Email), slog.Any("error", err))
	}
	return nil
}

// ResendVerification rotates the token and resends the email. Unknown
// addresses succeed silently so the endpoint cannot be used to probe for
// accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	token := uuid.NewString()
	if err := s.repo.RotateVerifyToken(ctx, user.ID, token, time.Now().Add(verifyTokenTTL)); err != nil {
		return err
	}
	if err := s.mail.EnqueueVerification(ctx, user.Email, user.Name, token); err != nil && s.logger != nil {
		s.logger.Warn("queue verification email", slog.String("email", user.Email), slog.Any("error", err))
	}
	return nil
}

// CompleteOAuth finishes a provider login: reuse the linked account,
// link to an existing user by email, or provision a fresh account. The
// provider-verified email is trusted in the linking branch.
func (s *Service) CompleteOAuth(ctx context.Context, profile OAuthProfile) (*LoginResult, error) {
	var userID int64

	ident, err := s.repo.GetOAuthIdentity(ctx, profile.Provider, profile.ProviderUserID)
	switch {
	case err == nil:
		userID = ident.UserID
		if err := s.repo.UpdateOAuthTokens(ctx, profile.Provider, profile.ProviderUserID, profile.AccessToken, profile.RefreshToken); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		userID, err = s.linkOrProvision(ctx, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user.Project()}, nil
}

func (s *Service) linkOrProvision(ctx context.Context, profile OAuthProfile) (int64, error) {
	existing, err := s.repo.GetUserByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if err := s.createIdentity(ctx, existing.ID, profile); err != nil {
			return 0, err
		}
		if err := s.repo.ActivateVerifiedUser(ctx, existing.ID); err != nil {
			return 0, err
		}
		return existing.ID, nil
	case errors.Is(err, shared.ErrNotFound):
		return s.provision(ctx, profile)
	default:
		return 0, err
	}
}

func (s *Service) provision(ctx context.Context, profile OAuthProfile) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < oauthUsernameAttempts; attempt++ {
		user := User{
			Username:      synthesizeUsername(profile.Email),
			Email:         profile.Email,
			Name:          profile.Name,
			Role:          shared.RoleStaff,
			IsActive:      true,
			EmailVerified: true,
		}
		id, err := s.repo.CreateUser(ctx, user)
		if err == nil {
			if err := s.createIdentity(ctx, id, profile); err != nil {
				return 0, err
			}
			return id, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return 0, err
		}
		lastErr = err
	}
	return 0, fmt.Errorf("auth: provision oauth user: %w", lastErr)
}

func (s *Service) createIdentity(ctx context.Context, userID int64, profile OAuthProfile) error {
	ident := OAuthIdentity{
		UserID:         userID,
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
		Name:           profile.Name,
	}
	if profile.AvatarURL != "" {
		ident.AvatarURL = &profile.AvatarURL
	}
	if profile.AccessToken != "" {
		ident.AccessToken = &profile.AccessToken
	}
	if profile.RefreshToken != "" {
		ident.RefreshToken = &profile.RefreshToken
	}
	return s.repo.CreateOAuthIdentity(ctx, ident)
}

// synthesizeUsername derives a unique-ish username from the email
// local-part plus a random suffix. Collisions are handled by the retry
// loop in provision.
func synthesizeUsername(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	cleaned := make([]byte, 0, len(local))
	for i := 0; i < len(local); i++ {
		c := local[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []byte("user")
	}
	if len(cleaned) > 22 {
		cleaned = cleaned[:22]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return string(cleaned) + "_" + suffix
}

// Me returns the safe projection of the current user.
func (s *Service) Me(ctx context.Context, id int64) (*Projection, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	projection := user.Project()
	return &projection, nil
}
