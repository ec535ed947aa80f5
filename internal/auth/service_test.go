package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/royals-sales/royals/internal/shared"
)

type memoryAuthRepo struct {
	users      map[int64]*User
	identities map[string]*OAuthIdentity
	nextID     int64
	lastLogins map[int64]int
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{
		users:      map[int64]*User{},
		identities: map[string]*OAuthIdentity{},
		nextID:     1,
		lastLogins: map[int64]int{},
	}
}

func (m *memoryAuthRepo) add(u User) *User {
	u.ID = m.nextID
	m.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = &u
	return m.users[u.ID]
}

func (m *memoryAuthRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryAuthRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryAuthRepo) GetUserByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryAuthRepo) GetUserByVerifyToken(_ context.Context, token string) (*User, error) {
	for _, u := range m.users {
		if u.VerifyToken != nil && *u.VerifyToken == token {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryAuthRepo) UsernameOrEmailTaken(_ context.Context, username, email string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAuthRepo) CreateUser(_ context.Context, user User) (int64, error) {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, shared.ErrConflict
		}
	}
	return m.add(user).ID, nil
}

func (m *memoryAuthRepo) UpdateLastLogin(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	m.lastLogins[id]++
	now := time.Now()
	m.users[id].LastLoginAt = &now
	return nil
}

func (m *memoryAuthRepo) MarkEmailVerified(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.EmailVerified = true
	u.VerifyToken = nil
	u.VerifyExpiry = nil
	return nil
}

func (m *memoryAuthRepo) RotateVerifyToken(_ context.Context, id int64, token string, expiry time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.VerifyToken = &token
	u.VerifyExpiry = &expiry
	return nil
}

func (m *memoryAuthRepo) GetOAuthIdentity(_ context.Context, provider, providerUserID string) (*OAuthIdentity, error) {
	ident, ok := m.identities[provider+"/"+providerUserID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ident, nil
}

func (m *memoryAuthRepo) UpdateOAuthTokens(_ context.Context, provider, providerUserID, accessToken, refreshToken string) error {
	ident, ok := m.identities[provider+"/"+providerUserID]
	if !ok {
		return shared.ErrNotFound
	}
	if accessToken != "" {
		ident.AccessToken = &accessToken
	}
	if refreshToken != "" {
		ident.RefreshToken = &refreshToken
	}
	return nil
}

func (m *memoryAuthRepo) CreateOAuthIdentity(_ context.Context, identity OAuthIdentity) error {
	m.identities[identity.Provider+"/"+identity.ProviderUserID] = &identity
	return nil
}

func (m *memoryAuthRepo) ActivateVerifiedUser(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = true
	u.EmailVerified = true
	return nil
}

type memoryEmailQueue struct {
	verifications []string
	welcomes      []string
	fail          bool
}

func (q *memoryEmailQueue) EnqueueVerification(_ context.Context, to, _, _ string) error {
	if q.fail {
		return errors.New("queue unavailable")
	}
	q.verifications = append(q.verifications, to)
	return nil
}

func (q *memoryEmailQueue) EnqueueWelcome(_ context.Context, to, _ string) error {
	if q.fail {
		return errors.New("queue unavailable")
	}
	q.welcomes = append(q.welcomes, to)
	return nil
}

func newTestAuthService(t *testing.T, repo *memoryAuthRepo, queue *memoryEmailQueue, cfg ServiceConfig) *Service {
	t.Helper()
	tokens := NewTokenManager("test-secret", 15*time.Minute)
	return NewService(repo, tokens, queue, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func seedLocalUser(t *testing.T, repo *memoryAuthRepo, username, email, password string, verified bool) *User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return repo.add(User{
		Username:      username,
		Email:         email,
		Name:          "Seed User",
		PasswordHash:  &hash,
		Role:          shared.RoleStaff,
		IsActive:      true,
		EmailVerified: verified,
	})
}

const strongPassword = "Vigorous!Tr0ut$Leap"

func TestLoginSuccess(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	result, err := svc.Login(context.Background(), "winter", strongPassword)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, 1, repo.lastLogins[user.ID])
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	_, err := svc.Login(context.Background(), "winter", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})

	_, err := svc.Login(context.Background(), "nobody", strongPassword)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginOAuthOnlyAccountRejected(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	repo.add(User{
		Username:      "oauthonly",
		Email:         "oauth@example.com",
		Role:          shared.RoleStaff,
		IsActive:      true,
		EmailVerified: true,
	})

	_, err := svc.Login(context.Background(), "oauthonly", strongPassword)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnverifiedBlockedWhenRequired(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{RequireVerified: true})
	seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, false)

	_, err := svc.Login(context.Background(), "winter", strongPassword)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignupSuccess(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})

	result, err := svc.Signup(context.Background(), SignupRequest{
		Username: "giselle",
		Email:    "giselle@example.com",
		Password: strongPassword,
		Name:     "Giselle",
	})
	require.NoError(t, err)
	require.True(t, result.EmailSent)
	require.Equal(t, []string{"giselle@example.com"}, queue.verifications)

	created, err := repo.GetUserByID(context.Background(), result.UserID)
	require.NoError(t, err)
	require.Equal(t, shared.RoleStaff, created.Role)
	require.False(t, created.EmailVerified)
	require.NotNil(t, created.VerifyToken)
	require.NotNil(t, created.PasswordHash)
	require.NotEqual(t, strongPassword, *created.PasswordHash)
}

func TestSignupCollectsPolicyViolations(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "x!",
		Email:    "x@example.com",
		Password: "weak",
		Name:     "X",
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.GreaterOrEqual(t, len(verr.Messages), 2)
}

func TestSignupBadEmailAndWeakPasswordReportedTogether(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "giselle",
		Email:    "not-an-email",
		Password: "weak",
		Name:     "Giselle",
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Messages, "Email must be a valid email address")

	var passwordMentioned bool
	for _, msg := range verr.Messages {
		if strings.Contains(msg, "Password") {
			passwordMentioned = true
		}
	}
	require.True(t, passwordMentioned)
}

func TestSignupDuplicate(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	seedLocalUser(t, repo, "giselle", "giselle@example.com", strongPassword, true)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "giselle",
		Email:    "other@example.com",
		Password: strongPassword,
		Name:     "Giselle",
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestSignupEmailQueueFailureStillCreates(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{fail: true}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})

	result, err := svc.Signup(context.Background(), SignupRequest{
		Username: "giselle",
		Email:    "giselle@example.com",
		Password: strongPassword,
		Name:     "Giselle",
	})
	require.NoError(t, err)
	require.False(t, result.EmailSent)
	_, err = repo.GetUserByID(context.Background(), result.UserID)
	require.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})

	token := "verify-token"
	expiry := time.Now().Add(time.Hour)
	user := repo.add(User{
		Username:     "giselle",
		Email:        "giselle@example.com",
		Role:         shared.RoleStaff,
		IsActive:     true,
		VerifyToken:  &token,
		VerifyExpiry: &expiry,
	})

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	require.True(t, repo.users[user.ID].EmailVerified)
	require.Nil(t, repo.users[user.ID].VerifyToken)
	require.Equal(t, []string{"giselle@example.com"}, queue.welcomes)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})

	token := "verify-token"
	expiry := time.Now().Add(-time.Hour)
	repo.add(User{
		Username:     "giselle",
		Email:        "giselle@example.com",
		Role:         shared.RoleStaff,
		VerifyToken:  &token,
		VerifyExpiry: &expiry,
	})

	err := svc.VerifyEmail(context.Background(), token)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestResendVerificationUnknownEmailSilent(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})

	require.NoError(t, svc.ResendVerification(context.Background(), "nobody@example.com"))
	require.Empty(t, queue.verifications)
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	err := svc.ResendVerification(context.Background(), "winter@example.com")
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestResendVerificationRotatesToken(t *testing.T) {
	repo := newMemoryAuthRepo()
	queue := &memoryEmailQueue{}
	svc := newTestAuthService(t, repo, queue, ServiceConfig{})

	old := "old-token"
	expiry := time.Now().Add(time.Hour)
	user := repo.add(User{
		Username:     "giselle",
		Email:        "giselle@example.com",
		Role:         shared.RoleStaff,
		VerifyToken:  &old,
		VerifyExpiry: &expiry,
	})

	require.NoError(t, svc.ResendVerification(context.Background(), "giselle@example.com"))
	require.NotEqual(t, old, *repo.users[user.ID].VerifyToken)
	require.Equal(t, []string{"giselle@example.com"}, queue.verifications)
}

func TestCompleteOAuthExistingIdentity(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)
	require.NoError(t, repo.CreateOAuthIdentity(context.Background(), OAuthIdentity{
		UserID:         user.ID,
		Provider:       ProviderGoogle,
		ProviderUserID: "g-123",
		Email:          user.Email,
	}))

	result, err := svc.CompleteOAuth(context.Background(), OAuthProfile{
		Provider:       ProviderGoogle,
		ProviderUserID: "g-123",
		Email:          "winter@example.com",
		Name:           "Winter",
		AccessToken:    "at-new",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, "at-new", *repo.identities[ProviderGoogle+"/g-123"].AccessToken)
	require.Len(t, repo.users, 1)
}

func TestCompleteOAuthLinksByEmail(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, false)

	result, err := svc.CompleteOAuth(context.Background(), OAuthProfile{
		Provider:       ProviderGoogle,
		ProviderUserID: "g-456",
		Email:          "winter@example.com",
		Name:           "Winter",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	// Linking trusts the provider-verified email.
	require.True(t, repo.users[user.ID].EmailVerified)
	require.Contains(t, repo.identities, ProviderGoogle+"/g-456")
	require.Len(t, repo.users, 1)
}

func TestCompleteOAuthProvisionsNewUser(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})

	result, err := svc.CompleteOAuth(context.Background(), OAuthProfile{
		Provider:       ProviderGoogle,
		ProviderUserID: "g-789",
		Email:          "new.person@example.com",
		Name:           "New Person",
	})
	require.NoError(t, err)

	created, err := repo.GetUserByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.Equal(t, shared.RoleStaff, created.Role)
	require.True(t, created.EmailVerified)
	require.Nil(t, created.PasswordHash)
	require.True(t, strings.HasPrefix(created.Username, "newperson_"))
}

func TestSynthesizeUsernameShape(t *testing.T) {
	name := synthesizeUsername("some.very.long.email.address.local.part@example.com")
	require.LessOrEqual(t, len(name), 30)
	require.Regexp(t, `^[a-zA-Z0-9_-]+$`, name)

	name = synthesizeUsername("@example.com")
	require.True(t, strings.HasPrefix(name, "user_"))
}

func TestMe(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := newTestAuthService(t, repo, &memoryEmailQueue{}, ServiceConfig{})
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	projection, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, projection.Username)

	_, err = svc.Me(context.Background(), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
