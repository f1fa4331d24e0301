package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"account-service/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserStore struct {
	users      map[string]*User // keyed by lowercased login
	hideOnFind bool             // simulate a racing reader that sees no row yet
	creates    int
	updates    int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*User{}}
}

func (f *fakeUserStore) seed(u User) *User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now()
	}
	f.users[strings.ToLower(u.Login)] = &u
	return &u
}

func (f *fakeUserStore) FindByLogin(ctx context.Context, login string) (*User, error) {
	if f.hideOnFind {
		return nil, nil
	}
	u, ok := f.users[strings.ToLower(login)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) FindByLoginWithAuthorities(ctx context.Context, login string) (*User, error) {
	return f.FindByLogin(ctx, login)
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(ctx context.Context, u *User) error {
	key := strings.ToLower(u.Login)
	if _, exists := f.users[key]; exists {
		return ErrConflict
	}
	f.creates++
	cp := *u
	cp.ID = uuid.New()
	cp.UpdatedAt = time.Now()
	f.users[key] = &cp
	u.ID = cp.ID
	return nil
}

func (f *fakeUserStore) Update(ctx context.Context, u *User) error {
	stored, ok := f.users[strings.ToLower(u.Login)]
	if !ok {
		return ErrAccountUnavailable
	}
	f.updates++
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Email = u.Email
	stored.LangKey = u.LangKey
	stored.ImageURL = u.ImageURL
	// authorities deliberately untouched
	stored.UpdatedAt = time.Now()
	return nil
}

type fakeTokenStore struct {
	tokens map[string]token.PersistentToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]token.PersistentToken{}}
}

func (f *fakeTokenStore) Create(ctx context.Context, t token.PersistentToken) error {
	f.tokens[t.Series] = t
	return nil
}

func (f *fakeTokenStore) ListFor(ctx context.Context, userID uuid.UUID) ([]token.PersistentToken, error) {
	var out []token.PersistentToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) Revoke(ctx context.Context, userID uuid.UUID, series string) error {
	t, ok := f.tokens[series]
	if !ok || t.UserID != userID {
		return token.ErrNotFound
	}
	delete(f.tokens, series)
	return nil
}

func newTestService() (*Service, *fakeUserStore, *fakeTokenStore) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	return NewService(users, tokens), users, tokens
}

// --- facade ---

func TestGetAccount_NoPrincipal(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetAccount(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetAccount_FirstLoginCreatesUser(t *testing.T) {
	svc, users, _ := newTestService()

	view, err := svc.GetAccount(context.Background(), ClaimsPrincipal{
		Claims: map[string]any{
			"preferred_username": "joe",
			"email":              "joe@example.com",
			"email_verified":     true,
			"groups":             []any{"USER", "Everyone"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "joe", view.Login)
	assert.Equal(t, []string{"USER"}, view.Authorities)

	stored := users.users["joe"]
	require.NotNil(t, stored)
	assert.Equal(t, []string{"USER"}, stored.Authorities)
	assert.True(t, stored.Activated)
	assert.Equal(t, 1, users.creates)
}

func TestGetAccount_ReconcileIsIdempotent(t *testing.T) {
	svc, users, _ := newTestService()
	claims := map[string]any{
		"preferred_username": "joe",
		"given_name":         "Joe",
		"email":              "joe@example.com",
		"groups":             []any{"USER"},
	}

	_, err := svc.GetAccount(context.Background(), ClaimsPrincipal{Claims: claims})
	require.NoError(t, err)
	first := *users.users["joe"]

	_, err = svc.GetAccount(context.Background(), ClaimsPrincipal{Claims: claims})
	require.NoError(t, err)
	second := *users.users["joe"]

	assert.Equal(t, first.Login, second.Login)
	assert.Equal(t, first.FirstName, second.FirstName)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Authorities, second.Authorities)
	assert.Equal(t, 1, users.creates)
}

func TestGetAccount_StaleProviderTimestampSkipsUpdate(t *testing.T) {
	svc, users, _ := newTestService()
	seeded := users.seed(User{Login: "joe", FirstName: "old"})

	_, err := svc.GetAccount(context.Background(), ClaimsPrincipal{
		Claims: map[string]any{
			"preferred_username": "joe",
			"given_name":         "new",
			"updated_at":         float64(seeded.UpdatedAt.Unix() - 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "old", users.users["joe"].FirstName)
	assert.Equal(t, 0, users.updates)
}

func TestGetAccount_NewerProviderTimestampUpdates(t *testing.T) {
	svc, users, _ := newTestService()
	seeded := users.seed(User{Login: "joe", FirstName: "old"})

	_, err := svc.GetAccount(context.Background(), ClaimsPrincipal{
		Claims: map[string]any{
			"preferred_username": "joe",
			"given_name":         "new",
			"updated_at":         float64(seeded.UpdatedAt.Unix() + 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "new", users.users["joe"].FirstName)
	assert.Equal(t, 1, users.updates)
}

func TestGetAccount_UpdatePathKeepsStoredAuthorities(t *testing.T) {
	svc, users, _ := newTestService()
	users.seed(User{Login: "joe", Authorities: []string{"ROLE_ADMIN"}})

	view, err := svc.GetAccount(context.Background(), ClaimsPrincipal{
		Claims: map[string]any{
			"preferred_username": "joe",
			"groups":             []any{"USER"},
		},
	})
	require.NoError(t, err)

	// the view carries the reconciled set, the store keeps the old one
	assert.Equal(t, []string{"USER"}, view.Authorities)
	assert.Equal(t, []string{"ROLE_ADMIN"}, users.users["joe"].Authorities)
}

func TestGetAccount_CreateRaceLoses(t *testing.T) {
	svc, users, _ := newTestService()
	users.seed(User{Login: "joe"})
	users.hideOnFind = true // the race: lookup sees no record yet

	_, err := svc.GetAccount(context.Background(), ClaimsPrincipal{
		Claims: map[string]any{"preferred_username": "joe"},
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, users.users, 1)
}

func TestGetAccount_LocalPrincipal(t *testing.T) {
	svc, users, _ := newTestService()
	users.seed(User{
		Login:       "joe",
		FirstName:   "Joe",
		Email:       "joe@example.com",
		Authorities: []string{"ROLE_USER"},
	})

	view, err := svc.GetAccount(context.Background(), LocalPrincipal{Login: "joe"})
	require.NoError(t, err)
	assert.Equal(t, "joe", view.Login)
	assert.Equal(t, []string{"ROLE_USER"}, view.Authorities)
}

func TestGetAccount_LocalPrincipalUnknown(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetAccount(context.Background(), LocalPrincipal{Login: "ghost"})
	assert.ErrorIs(t, err, ErrAccountUnavailable)
}

// --- profile update ---

func TestUpdateAccount_EmailOwnedByOtherLogin(t *testing.T) {
	svc, users, _ := newTestService()
	users.seed(User{Login: "joe", Email: "joe@example.com"})
	users.seed(User{Login: "anna", Email: "anna@example.com"})

	err := svc.UpdateAccount(context.Background(), "joe", AccountView{
		Email: "anna@example.com",
	})
	assert.ErrorIs(t, err, ErrConflict)
	// detected before any write
	assert.Equal(t, 0, users.updates)
}

func TestUpdateAccount_KeepingOwnEmail(t *testing.T) {
	svc, users, _ := newTestService()
	users.seed(User{Login: "joe", Email: "joe@example.com"})

	err := svc.UpdateAccount(context.Background(), "joe", AccountView{
		FirstName: "Joseph",
		Email:     "joe@example.com",
		LangKey:   "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "Joseph", users.users["joe"].FirstName)
	assert.Equal(t, "fr", users.users["joe"].LangKey)
}

func TestUpdateAccount_UnknownLogin(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.UpdateAccount(context.Background(), "ghost", AccountView{})
	assert.ErrorIs(t, err, ErrAccountUnavailable)
}

// --- persistent tokens ---

func TestRevokeSession_OwnSeries(t *testing.T) {
	svc, users, tokens := newTestService()
	joe := users.seed(User{Login: "joe"})
	tokens.tokens["series-1"] = token.PersistentToken{Series: "series-1", UserID: joe.ID}

	require.NoError(t, svc.RevokeSession(context.Background(), "joe", "series-1"))
	assert.Empty(t, tokens.tokens)
}

func TestRevokeSession_CrossUserSeriesRejected(t *testing.T) {
	svc, users, tokens := newTestService()
	users.seed(User{Login: "joe"})
	anna := users.seed(User{Login: "anna"})
	tokens.tokens["anna-series"] = token.PersistentToken{Series: "anna-series", UserID: anna.ID}

	err := svc.RevokeSession(context.Background(), "joe", "anna-series")
	assert.ErrorIs(t, err, token.ErrNotFound)
	assert.Contains(t, tokens.tokens, "anna-series")
}

func TestSessions_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Sessions(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountUnavailable)
}

func TestRememberSession(t *testing.T) {
	svc, users, _ := newTestService()
	joe := users.seed(User{Login: "joe"})

	series, value, err := svc.RememberSession(context.Background(), "joe", "127.0.0.1", "Test agent")
	require.NoError(t, err)
	assert.NotEmpty(t, series)
	assert.NotEmpty(t, value)

	listed, err := svc.Sessions(context.Background(), "joe")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, series, listed[0].Series)
	assert.Equal(t, joe.ID, listed[0].UserID)
	assert.Equal(t, "127.0.0.1", listed[0].IPAddress)
	assert.Equal(t, "Test agent", listed[0].UserAgent)
}
