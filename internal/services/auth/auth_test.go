package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daon-labs/user-subscription-backend/internal/cache"
	"github.com/daon-labs/user-subscription-backend/internal/config"
	"github.com/daon-labs/user-subscription-backend/internal/googleoauth"
	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/lib/password"
	"github.com/daon-labs/user-subscription-backend/internal/models"
	"github.com/daon-labs/user-subscription-backend/internal/storage"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUserWithAgreement(ctx context.Context, user models.User, agreement models.Agreement) (string, error) {
	args := m.Called(ctx, user, agreement)
	return args.String(0), args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByUID(ctx context.Context, useruid string) (*models.User, error) {
	args := m.Called(ctx, useruid)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) LatestTerms(ctx context.Context) (*models.Terms, error) {
	args := m.Called(ctx)
	terms, _ := args.Get(0).(*models.Terms)
	return terms, args.Error(1)
}

type VerificationCheckerMock struct {
	mock.Mock
}

func (m *VerificationCheckerMock) IsVerified(ctx context.Context, rawPhone string) (bool, error) {
	args := m.Called(ctx, rawPhone)
	return args.Bool(0), args.Error(1)
}

type OAuthProviderMock struct {
	mock.Mock
}

func (m *OAuthProviderMock) AuthCodeURL() string {
	return m.Called().String(0)
}

func (m *OAuthProviderMock) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *OAuthProviderMock) FetchUserInfo(ctx context.Context, accessToken string) (*googleoauth.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	info, _ := args.Get(0).(*googleoauth.UserInfo)
	return info, args.Error(1)
}

type fixture struct {
	svc   *Service
	users *UserRepositoryMock
	verif *VerificationCheckerMock
	oauth *OAuthProviderMock
	cache *cache.Cache
	maker jwt.Maker
}

func setup(t *testing.T) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)

	users := new(UserRepositoryMock)
	verif := new(VerificationCheckerMock)
	oauth := new(OAuthProviderMock)
	maker := jwt.NewJWTMaker("test-secret", 30*time.Minute, 168*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	svc := New(users, c, verif, oauth, maker, 168*time.Hour, logger)
	return &fixture{svc: svc, users: users, verif: verif, oauth: oauth, cache: c, maker: maker}
}

func TestRegister_Success(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.verif.On("IsVerified", mock.Anything, "010-1234-5678").Return(true, nil).Once()
	f.users.On("LatestTerms", mock.Anything).Return(&models.Terms{ID: 3}, nil).Once()
	f.users.On("CreateUserWithAgreement", mock.Anything,
		mock.MatchedBy(func(u models.User) bool {
			return u.Email == "user@example.com" &&
				u.Provider == models.ProviderLocal &&
				u.PasswordHash != nil &&
				password.CompareHash(*u.PasswordHash, "secret123") == nil &&
				u.Phone != nil && *u.Phone == "010-1234-5678"
		}),
		mock.MatchedBy(func(a models.Agreement) bool {
			return a.TermsURL == "/terms/3" && a.Marketing
		})).Return("uid-1", nil).Once()

	uid, err := f.svc.Register(ctx, RegisterParams{
		Email:     "user@example.com",
		Password:  "secret123",
		Name:      "홍길동",
		Phone:     "010-1234-5678",
		Marketing: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	f.users.AssertExpectations(t)
}

func TestRegister_VerificationRequired(t *testing.T) {
	f := setup(t)

	f.verif.On("IsVerified", mock.Anything, "010-1234-5678").Return(false, nil).Once()

	_, err := f.svc.Register(context.Background(), RegisterParams{
		Email:    "user@example.com",
		Password: "secret123",
		Name:     "홍길동",
		Phone:    "010-1234-5678",
	})
	assert.ErrorIs(t, err, ErrVerificationRequired)
	f.users.AssertNotCalled(t, "CreateUserWithAgreement")
}

func TestRegister_EmailTaken(t *testing.T) {
	f := setup(t)

	f.verif.On("IsVerified", mock.Anything, "010-1234-5678").Return(true, nil).Once()
	f.users.On("LatestTerms", mock.Anything).Return(&models.Terms{ID: 1}, nil).Once()
	f.users.On("CreateUserWithAgreement", mock.Anything, mock.Anything, mock.Anything).
		Return("", storage.ErrEmailTaken).Once()

	_, err := f.svc.Register(context.Background(), RegisterParams{
		Email:    "user@example.com",
		Password: "secret123",
		Name:     "홍길동",
		Phone:    "010-1234-5678",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestEmailAvailable(t *testing.T) {
	f := setup(t)

	f.users.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil).Once()
	f.users.On("EmailExists", mock.Anything, "free@example.com").Return(false, nil).Once()

	available, err := f.svc.EmailAvailable(context.Background(), "taken@example.com")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.svc.EmailAvailable(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestLogin_Success_PopulatesSessionCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	f.users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: &hash}, nil).Once()

	pair, err := f.svc.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	var entry models.SessionEntry
	found, err := f.cache.GetJSON(ctx, "user_token:uid-1", &entry)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, pair.AccessToken, entry.AccessToken)
	assert.Equal(t, pair.RefreshToken, entry.RefreshToken)
}

func TestLogin_SecondLoginOverwritesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	f.users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: &hash}, nil).Twice()

	_, err = f.svc.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	var entry models.SessionEntry
	found, err := f.cache.GetJSON(ctx, "user_token:uid-1", &entry)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.AccessToken, entry.AccessToken)
	assert.Equal(t, second.RefreshToken, entry.RefreshToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	tests := []struct {
		name string
		user *models.User
		err  error
	}{
		{"wrong password", &models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: &hash}, nil},
		{"oauth-only account", &models.User{UID: "uid-2", Email: "user@example.com", Provider: models.ProviderGoogle}, nil},
		{"unknown user", nil, storage.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.users.ExpectedCalls = nil
			f.users.On("GetUserByEmail", mock.Anything, "user@example.com").Return(tt.user, tt.err).Once()

			_, err := f.svc.Login(ctx, "user@example.com", "wrong-password")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			_, found, err := f.cache.Get(ctx, "user_token:uid-1")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestLogout_RemovesSessionAndBlacklistsRefresh(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	user := &models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: &hash}
	f.users.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
	f.users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Maybe()

	pair, err := f.svc.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, "uid-1", pair.RefreshToken))

	_, found, err := f.cache.Get(ctx, "user_token:uid-1")
	require.NoError(t, err)
	assert.False(t, found)

	// the blacklisted refresh token is unusable afterwards
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)
}

func TestLogout_NotARefreshToken(t *testing.T) {
	f := setup(t)

	pair, err := f.maker.GeneratePair("uid-1", "user@example.com")
	require.NoError(t, err)

	err = f.svc.Logout(context.Background(), "uid-1", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RotatesPairAndRewritesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	user := &models.User{UID: "uid-1", Email: "user@example.com"}
	f.users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()

	pair, err := f.maker.GeneratePair("uid-1", "user@example.com")
	require.NoError(t, err)

	fresh, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, fresh.AccessToken)

	var entry models.SessionEntry
	found, err := f.cache.GetJSON(ctx, "user_token:uid-1", &entry)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, fresh.AccessToken, entry.AccessToken)
	assert.Equal(t, fresh.RefreshToken, entry.RefreshToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := setup(t)

	pair, err := f.maker.GeneratePair("uid-1", "user@example.com")
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken(t *testing.T) {
	f := setup(t)

	pair, err := f.maker.GeneratePair("uid-1", "user@example.com")
	require.NoError(t, err)

	claims, err := f.svc.ValidateToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)

	_, err = f.svc.ValidateToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.svc.ValidateToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoogleLogin_ExistingUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.oauth.On("ExchangeCode", mock.Anything, "auth-code").Return("provider-token", nil).Once()
	f.oauth.On("FetchUserInfo", mock.Anything, "provider-token").
		Return(&googleoauth.UserInfo{Email: "user@gmail.com", Name: "홍길동"}, nil).Once()
	f.users.On("GetUserByEmail", mock.Anything, "user@gmail.com").
		Return(&models.User{UID: "uid-9", Email: "user@gmail.com", Provider: models.ProviderGoogle}, nil).Once()

	pair, err := f.svc.GoogleLogin(ctx, "auth-code")
	require.NoError(t, err)

	var entry models.SessionEntry
	found, err := f.cache.GetJSON(ctx, "user_token:uid-9", &entry)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, pair.AccessToken, entry.AccessToken)
	f.users.AssertNotCalled(t, "CreateUserWithAgreement")
}

func TestGoogleLogin_CreatesUserOnFirstLogin(t *testing.T) {
	f := setup(t)

	f.oauth.On("ExchangeCode", mock.Anything, "auth-code").Return("provider-token", nil).Once()
	f.oauth.On("FetchUserInfo", mock.Anything, "provider-token").
		Return(&googleoauth.UserInfo{Email: "new@gmail.com", Name: "김철수", Picture: "https://img"}, nil).Once()
	f.users.On("GetUserByEmail", mock.Anything, "new@gmail.com").
		Return(nil, storage.ErrUserNotFound).Once()
	f.users.On("LatestTerms", mock.Anything).Return(&models.Terms{ID: 2}, nil).Once()
	f.users.On("CreateUserWithAgreement", mock.Anything,
		mock.MatchedBy(func(u models.User) bool {
			return u.Email == "new@gmail.com" &&
				u.Provider == models.ProviderGoogle &&
				u.PasswordHash == nil &&
				u.ImgURL != nil && *u.ImgURL == "https://img"
		}),
		mock.MatchedBy(func(a models.Agreement) bool {
			return a.TermsURL == "/terms/2" && !a.Marketing
		})).Return("uid-10", nil).Once()

	pair, err := f.svc.GoogleLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	f.users.AssertExpectations(t)
}

func TestGoogleLogin_ExchangeFails(t *testing.T) {
	f := setup(t)

	f.oauth.On("ExchangeCode", mock.Anything, "bad-code").
		Return("", assert.AnError).Once()

	_, err := f.svc.GoogleLogin(context.Background(), "bad-code")
	assert.Error(t, err)
}
