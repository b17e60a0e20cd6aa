package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryUserRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*User)}
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, u User) (*User, error) {
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := u
	r.users[u.ID] = &stored
	return &u, nil
}

func newTestAuth(t *testing.T) (*Service, *memoryUserRepo, *TokenStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := NewTokenStore(client, time.Hour)
	repo := newMemoryUserRepo()
	return NewService(repo, tokens), repo, tokens
}

func seedUser(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), "Ana", "ana@vetrina.com.br", "s3cret", true)
	require.NoError(t, err)
	return u
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAuth(t)
	u := seedUser(t, svc)

	// The stored hash is bcrypt, never the plain password.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[u.ID].PasswordHash), []byte("s3cret")))

	got, err := svc.Authenticate(ctx, "  ANA@vetrina.com.br ", "s3cret")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@vetrina.com.br", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@vetrina.com.br", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users[u.ID].IsActive = false
	_, err = svc.Authenticate(ctx, "ana@vetrina.com.br", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newTestAuth(t)
	u := seedUser(t, svc)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ana@vetrina.com.br", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, u.ID, resp.User.ID)

	userID, err := tokens.Resolve(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)

	require.NoError(t, svc.Logout(ctx, resp.Token))
	_, err = tokens.Resolve(ctx, resp.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMiddlewareInjectsUser(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newTestAuth(t)
	u := seedUser(t, svc)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ana@vetrina.com.br", Password: "s3cret"})
	require.NoError(t, err)

	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	})
	handler := Middleware(tokens, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, u.ID, seen)

	// Anonymous and garbage tokens pass through with no user.
	seen = -1
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Zero(t, seen)

	seen = -1
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Zero(t, seen)
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuth(t)
	u := seedUser(t, svc)

	_, err := svc.CurrentUser(ctx)
	require.ErrorIs(t, err, ErrSessionNotFound)

	got, err := svc.CurrentUser(WithUserID(ctx, u.ID))
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}
