package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reverseSealer struct{}

func (reverseSealer) Seal(p string) (string, error) { return reverse(p), nil }
func (reverseSealer) Open(s string) (string, error) { return reverse(s), nil }

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (map[string]string, error) {
	return nil, errors.New("boom")
}
func (failingStore) Save(context.Context, map[string]string) error { return errors.New("boom") }

func TestLoad_Defaults(t *testing.T) {
	s, err := NewRepository(NewMemoryStore(nil)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "", s.Domain)
	assert.Equal(t, StatusNone, s.TokenStatus)
	assert.Equal(t, SessionKeys{User: "user", Email: "email", Username: "username"}, s.Session)
	assert.Equal(t, "10", s.Display.RecentLimit)
	assert.Equal(t, "#D9E0DC", s.Display.BgColor)
	assert.Equal(t, "/membership/photos/", s.Display.PhotoURL)
	assert.Equal(t, "user.jpg", s.Display.DefaultPhoto)
	assert.Equal(t, 20, s.QueuePageSize)
	assert.Equal(t, "None", s.TokenPreview())
}

func TestLoad_NormalizesDomain(t *testing.T) {
	store := NewMemoryStore(map[string]string{
		KeyDomain:        " https://coral.example.com// ",
		KeyQueuePageSize: "50",
		KeySessionUser:   "member_id",
	})
	s, err := NewRepository(store).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://coral.example.com", s.Domain)
	assert.Equal(t, 50, s.QueuePageSize)
	assert.Equal(t, "member_id", s.Session.User)
}

func TestTokenPreview(t *testing.T) {
	s := Settings{APIToken: strings.Repeat("a", 30)}
	assert.Equal(t, strings.Repeat("a", 24)+"…", s.TokenPreview())
	s.APIToken = "short"
	assert.Equal(t, "short…", s.TokenPreview())
}

func TestStoreToken_Sealed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	repo := NewRepository(store, WithSealer(reverseSealer{}))

	require.NoError(t, repo.StoreToken(ctx, "abc123"))
	raw, _ := store.Load(ctx)
	assert.Equal(t, "sealed:321cba", raw[KeyAPIToken])
	assert.Equal(t, "connected", raw[KeyTokenStatus])

	s, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", s.APIToken)
}

func TestLoad_PlainTokenStillRead(t *testing.T) {
	store := NewMemoryStore(map[string]string{KeyAPIToken: "legacy"})
	s, err := NewRepository(store, WithSealer(reverseSealer{})).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "legacy", s.APIToken)
}

func TestRevokeToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(map[string]string{KeyAPIToken: "x", KeyTokenStatus: "connected", KeyDomain: "https://d"})
	repo := NewRepository(store)

	require.NoError(t, repo.RevokeToken(ctx))
	s, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.APIToken)
	assert.Equal(t, StatusRevoked, s.TokenStatus)
	assert.Equal(t, "https://d", s.Domain)
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	repo := NewRepository(store, WithSealer(reverseSealer{}))

	require.NoError(t, repo.Set(ctx, KeyBgColor, "#123456"))
	require.NoError(t, repo.Set(ctx, KeyAPIToken, "tok"))
	err := repo.Set(ctx, "wp_option", "x")
	require.ErrorIs(t, err, ErrUnknownKey)

	raw, _ := store.Load(ctx)
	assert.Equal(t, "#123456", raw[KeyBgColor])
	assert.Equal(t, "sealed:kot", raw[KeyAPIToken])
}

func TestSavePreferences_DoesNotTouchToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(map[string]string{KeyAPIToken: "keep"})
	repo := NewRepository(store)

	require.NoError(t, repo.SavePreferences(ctx, Preferences{Domain: " https://c.example ", SSOSecret: "ssosec_x", RecentLimit: "5"}))
	s, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keep", s.APIToken)
	assert.Equal(t, "https://c.example", s.Domain)
	assert.Equal(t, "ssosec_x", s.SSOSecret)
	assert.Equal(t, "5", s.Display.RecentLimit)
}

func TestStoreErrorsWrapped(t *testing.T) {
	repo := NewRepository(failingStore{})
	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings: load")
	require.Error(t, repo.SetTokenStatus(context.Background(), StatusAuthFailed))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Connected", StatusConnected.Describe())
	assert.Equal(t, "Not connected", StatusNone.Describe())
}
