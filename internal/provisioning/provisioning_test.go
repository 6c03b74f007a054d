package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC) }

// coralStub simula /api/auth/local y /api/graphql.
type coralStub struct {
	hits        atomic.Int32
	loginBody   string
	loginStatus int
	gqlBody     string
	gotBearer   string
	gotName     string
}

func (s *coralStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/local":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			if s.loginStatus != 0 {
				w.WriteHeader(s.loginStatus)
			}
			_, _ = w.Write([]byte(s.loginBody))
		case "/api/graphql":
			s.gotBearer = r.Header.Get("Authorization")
			var in struct {
				Variables map[string]any `json:"variables"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			s.gotName, _ = in.Variables["name"].(string)
			_, _ = w.Write([]byte(s.gqlBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFlow(store *settings.MemoryStore) (*Flow, *settings.Repository) {
	repo := settings.NewRepository(store)
	return NewFlow(coral.New(), repo, WithClock(fixedNow)), repo
}

func TestProvision_MissingFields_NoNetwork(t *testing.T) {
	stub := &coralStub{}
	srv := stub.server(t)
	ctx := context.Background()

	for _, req := range []Request{
		{Domain: srv.URL, Email: "a@b.c", Password: ""},
		{Domain: srv.URL, Email: "", Password: "pw"},
		{Domain: "", Email: "a@b.c", Password: "pw"},
	} {
		flow, repo := newFlow(settings.NewMemoryStore(nil))
		res, err := flow.Provision(ctx, req)

		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, settings.StatusMissingFields, perr.Status)
		assert.Equal(t, settings.StatusMissingFields, res.Status)

		s, _ := repo.Load(ctx)
		assert.Equal(t, settings.StatusMissingFields, s.TokenStatus)
	}
	assert.EqualValues(t, 0, stub.hits.Load())
}

func TestProvision_UsesStoredDomain(t *testing.T) {
	stub := &coralStub{
		loginBody: `{"token":"session-1"}`,
		gqlBody:   `{"data":{"createToken":{"token":{"id":"t1","name":"x","createdAt":"2024-05-06"},"signedToken":"signed-abc"}}}`,
	}
	srv := stub.server(t)
	ctx := context.Background()

	flow, repo := newFlow(settings.NewMemoryStore(map[string]string{settings.KeyDomain: srv.URL + "/"}))
	res, err := flow.Provision(ctx, Request{Email: "admin@site", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, settings.StatusConnected, res.Status)
	assert.Equal(t, "signed-abc", res.Token)

	assert.Equal(t, "Bearer session-1", stub.gotBearer)
	assert.Equal(t, "coralbridge-2024-05-06", stub.gotName)

	s, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "signed-abc", s.APIToken)
	assert.Equal(t, settings.StatusConnected, s.TokenStatus)
}

func TestProvision_AuthFailed(t *testing.T) {
	long := strings.Repeat("x", 300)
	stub := &coralStub{loginStatus: http.StatusUnauthorized, loginBody: `{"error":{"message":"` + long + `"}}`}
	srv := stub.server(t)
	ctx := context.Background()

	flow, repo := newFlow(settings.NewMemoryStore(nil))
	res, err := flow.Provision(ctx, Request{Domain: srv.URL, Email: "a@b.c", Password: "bad"})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, settings.StatusAuthFailed, perr.Status)
	assert.Len(t, res.Detail, 200)
	assert.Empty(t, res.Token)
	assert.EqualValues(t, 1, stub.hits.Load(), "no createToken after failed login")

	s, _ := repo.Load(ctx)
	assert.Equal(t, settings.StatusAuthFailed, s.TokenStatus)
	assert.Empty(t, s.APIToken)
}

func TestProvision_TokenFailed(t *testing.T) {
	stub := &coralStub{
		loginBody: `{"token":"session-1"}`,
		gqlBody:   `{"data":{"createToken":null},"errors":[{"message":"FORBIDDEN"}]}`,
	}
	srv := stub.server(t)
	ctx := context.Background()

	store := settings.NewMemoryStore(map[string]string{settings.KeyAPIToken: "old"})
	flow, repo := newFlow(store)
	res, err := flow.Provision(ctx, Request{Domain: srv.URL, Email: "a@b.c", Password: "pw"})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, settings.StatusTokenFailed, res.Status)
	assert.Equal(t, "FORBIDDEN", res.Detail)

	s, _ := repo.Load(ctx)
	assert.Equal(t, settings.StatusTokenFailed, s.TokenStatus)
	assert.Equal(t, "old", s.APIToken, "previous token untouched")
}

func TestProvision_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	flow, _ := newFlow(settings.NewMemoryStore(nil))
	res, err := flow.Provision(context.Background(), Request{Domain: url, Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, coral.ErrTransport))
	assert.Equal(t, settings.StatusAuthFailed, res.Status)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	flow, repo := newFlow(settings.NewMemoryStore(map[string]string{settings.KeyAPIToken: "t", settings.KeyTokenStatus: "connected"}))
	require.NoError(t, flow.Revoke(ctx))
	s, _ := repo.Load(ctx)
	assert.Empty(t, s.APIToken)
	assert.Equal(t, settings.StatusRevoked, s.TokenStatus)
}

func TestTokenName(t *testing.T) {
	flow := NewFlow(nil, nil, WithClock(fixedNow))
	assert.Equal(t, "coralbridge-2024-05-06", flow.TokenName())
}
