// Package auth implements account registration, credential login, session
// caching, token refresh/blacklisting and Google OAuth login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daon-labs/user-subscription-backend/internal/googleoauth"
	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/lib/password"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/models"
	"github.com/daon-labs/user-subscription-backend/internal/storage"
)

// Session cache and blacklist key prefixes. The session entry lives as
// long as the refresh token; a blacklist entry lives until the
// blacklisted token would have expired anyway.
const (
	sessionKeyPrefix   = "user_token:"
	blacklistKeyPrefix = "token_blacklist:"
)

// Sentinel errors surfaced to the handlers.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailTaken           = errors.New("email already registered")
	ErrVerificationRequired = errors.New("phone verification required")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenBlacklisted     = errors.New("token blacklisted")
)

// UserRepository is the credential-store contract the service needs.
type UserRepository interface {
	CreateUserWithAgreement(ctx context.Context, user models.User, agreement models.Agreement) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUID(ctx context.Context, useruid string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	LatestTerms(ctx context.Context) (*models.Terms, error)
}

// TokenCache is the session-cache and blacklist store.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// VerificationChecker reports whether a phone has a live verified marker.
type VerificationChecker interface {
	IsVerified(ctx context.Context, rawPhone string) (bool, error)
}

// OAuthProvider is the external OAuth collaborator.
type OAuthProvider interface {
	AuthCodeURL() string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*googleoauth.UserInfo, error)
}

// Service wires the credential store, caches, token maker and providers.
type Service struct {
	users        UserRepository
	tokens       TokenCache
	verification VerificationChecker
	oauth        OAuthProvider
	jwtMaker     jwt.Maker
	refreshTTL   time.Duration
	log          *slog.Logger
}

// New builds an auth service.
func New(users UserRepository, tokens TokenCache, verification VerificationChecker,
	oauth OAuthProvider, jwtMaker jwt.Maker, refreshTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:        users,
		tokens:       tokens,
		verification: verification,
		oauth:        oauth,
		jwtMaker:     jwtMaker,
		refreshTTL:   refreshTTL,
		log:          log,
	}
}

// RegisterParams carries the validated registration input. Consent to the
// mandatory terms is checked at the handler boundary; only the optional
// marketing flag reaches the service.
type RegisterParams struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	Marketing bool
}

// Register creates a local account. The phone must carry a live verified
// marker; the verified marker is deliberately not consumed, so a second
// registration attempt inside the 24h window does not need a new SMS.
// The user and its agreement record are created in one transaction
// against the latest published terms.
func (s *Service) Register(ctx context.Context, params RegisterParams) (string, error) {
	const op = "auth.Register"

	verified, err := s.verification.IsVerified(ctx, params.Phone)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !verified {
		return "", fmt.Errorf("%s: %w", op, ErrVerificationRequired)
	}

	hashed, err := password.GetHash(params.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	latestTerms, err := s.users.LatestTerms(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        params.Email,
		PasswordHash: &hashed,
		Name:         params.Name,
		Phone:        &params.Phone,
		Provider:     models.ProviderLocal,
	}
	agreement := models.Agreement{
		TermsURL:  fmt.Sprintf("/terms/%d", latestTerms.ID),
		AgreedAt:  time.Now().UTC(),
		Marketing: params.Marketing,
	}

	uid, err := s.users.CreateUserWithAgreement(ctx, user, agreement)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("useruid", uid))
	return uid, nil
}

// EmailAvailable reports whether the email is free to register.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	const op = "auth.EmailAvailable"

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return !exists, nil
}

// Login checks the password and mints a token pair. The pair is cached
// under user_token:<uid> for the refresh lifetime; a second login
// overwrites the previous entry, last write wins.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*jwt.TokenPair, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// OAuth-only accounts have no password credential
	if user.PasswordHash == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(*user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueSession(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("login success", slog.String("useruid", user.UID))
	return pair, nil
}

// Logout removes the user's session entry and blacklists the presented
// refresh token so it can no longer be used for refresh.
func (s *Service) Logout(ctx context.Context, useruid, refreshToken string) error {
	const op = "auth.Logout"

	if err := s.tokens.Invalidate(ctx, sessionKeyPrefix+useruid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 {
		if err := s.tokens.Set(ctx, blacklistKeyPrefix+claims.ID, "true", ttl); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("logout success", slog.String("useruid", useruid))
	return nil
}

// Refresh validates a refresh token against the blacklist and mints a new
// pair, rewriting the session cache entry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	_, blacklisted, err := s.tokens.Get(ctx, blacklistKeyPrefix+claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenBlacklisted)
	}

	user, err := s.users.GetUserByUID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueSession(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// ValidateToken checks an access token and returns its claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.TokenType != jwt.TokenTypeAccess {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}

// GoogleAuthURL returns the provider authorization URL.
func (s *Service) GoogleAuthURL() string {
	return s.oauth.AuthCodeURL()
}

// GoogleLogin exchanges the authorization code, fetches the profile and
// logs the user in, creating the account on first login. OAuth signups
// get an agreement with marketing=false and no explicit consent step.
func (s *Service) GoogleLogin(ctx context.Context, code string) (*jwt.TokenPair, error) {
	const op = "auth.GoogleLogin"

	accessToken, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info, err := s.oauth.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByEmail(ctx, info.Email)
	if errors.Is(err, storage.ErrUserNotFound) {
		user, err = s.createGoogleUser(ctx, info)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueSession(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("google login success", slog.String("useruid", user.UID))
	return pair, nil
}

func (s *Service) createGoogleUser(ctx context.Context, info *googleoauth.UserInfo) (*models.User, error) {
	latestTerms, err := s.users.LatestTerms(ctx)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    info.Email,
		Name:     info.Name,
		Provider: models.ProviderGoogle,
	}
	if info.Picture != "" {
		user.ImgURL = &info.Picture
	}
	agreement := models.Agreement{
		TermsURL:  fmt.Sprintf("/terms/%d", latestTerms.ID),
		AgreedAt:  time.Now().UTC(),
		Marketing: false,
	}

	uid, err := s.users.CreateUserWithAgreement(ctx, user, agreement)
	if err != nil {
		return nil, err
	}
	user.UID = uid
	return &user, nil
}

func (s *Service) issueSession(ctx context.Context, useruid, email string) (*jwt.TokenPair, error) {
	pair, err := s.jwtMaker.GeneratePair(useruid, email)
	if err != nil {
		return nil, err
	}
	entry := models.SessionEntry{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if err := s.tokens.SetJSON(ctx, sessionKeyPrefix+useruid, entry, s.refreshTTL); err != nil {
		s.log.Error("failed to cache session entry", slog.String("useruid", useruid), sl.Err(err))
		return nil, err
	}
	return pair, nil
}
