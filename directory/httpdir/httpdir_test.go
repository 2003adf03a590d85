package httpdir

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqguard/mqguard/directory"
)

func newBackend(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "alice" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{
			"id": "u1",
			"username": "alice",
			"passwordhash": "h",
			"clientidprefix": "sensor-",
			"validateclientid": true,
			"throttleuser": true,
			"monthlybytelimit": 1024
		}`))
	})
	mux.HandleFunc("/prefixes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["sensor-", ""]`))
	})
	mux.HandleFunc("/rules", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("userid") == "u1" && q.Get("direction") == "1" && q.Get("polarity") == "1" {
			w.Write([]byte(`[{"id": "r1", "value": "home/#"}, {"id": "r2", "value": "garage/door"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(Config{
		UserURL:   server.URL + "/user",
		PrefixURL: server.URL + "/prefixes",
		RuleURL:   server.URL + "/rules",
	})
	return server, client
}

func TestUserByName(t *testing.T) {
	_, client := newBackend(t)
	ctx := context.Background()

	u, err := client.UserByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "sensor-", u.ClientIDPrefix)
	assert.True(t, u.ValidateClientID)
	require.NotNil(t, u.MonthlyByteLimit)
	assert.Equal(t, int64(1024), *u.MonthlyByteLimit)

	u, err = client.UserByName(ctx, "ghost")
	require.NoError(t, err, "404 means absent, not broken")
	assert.Nil(t, u)
}

func TestClientIDPrefixes(t *testing.T) {
	_, client := newBackend(t)

	prefixes, err := client.ClientIDPrefixes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sensor-"}, prefixes, "empty prefixes are dropped")
}

func TestRules(t *testing.T) {
	_, client := newBackend(t)
	ctx := context.Background()

	rules, err := client.Rules(ctx, "u1", directory.Publish, directory.Whitelist)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "home/#", rules[0].Filter)
	assert.Equal(t, directory.Publish, rules[0].Direction)
	assert.Equal(t, directory.Whitelist, rules[0].Polarity)

	rules, err = client.Rules(ctx, "u1", directory.Subscribe, directory.Blacklist)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestBackendDownIsAnError(t *testing.T) {
	server, client := newBackend(t)
	server.Close()

	_, err := client.UserByName(context.Background(), "alice")
	assert.Error(t, err)
}
