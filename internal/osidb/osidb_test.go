package osidb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flawJSON = `{
	"uuid": "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10",
	"cve_id": "CVE-2024-1337",
	"embargoed": false,
	"cwe_id": "CWE-79",
	"source": "CUSTOMER",
	"cvss_scores": [{"score": 7.5, "vector": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N"}],
	"acknowledgments": [{"name": "Jane"}, {"name": "Joe"}],
	"affects": [
		{"ps_module": "rhel-9", "ps_component": "kernel", "trackers": [
			{"ps_update_stream": "rhel-9.4.z", "external_system_id": "RHEL-1"},
			{"ps_update_stream": "rhel-9.5", "external_system_id": null}
		]},
		{"ps_module": "fedora-38", "ps_component": "kernel", "trackers": []}
	]
}`

func newOSIDB(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = append(auth, r.Header.Get("Authorization"))
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/osidb/api/v1/flaws", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cve_id") != "CVE-2024-1337" {
			_, _ = w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"count": 1, "next": null, "results": [` + flawJSON + `]}`))
	})
	r.Get("/osidb/api/v1/flaws/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10" {
			http.Error(w, `{"detail": "Not found."}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(flawJSON))
	})
	r.Get("/osidb/api/v1/broken/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"count": `))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &auth
}

func TestFlawDispatch(t *testing.T) {
	srv, auth := newOSIDB(t)
	c := NewClient(srv.URL, StaticToken("tok"), Options{})
	ctx := context.Background()

	byCVE, err := c.Flaw(ctx, "CVE-2024-1337")
	require.NoError(t, err)
	assert.Equal(t, "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10", byCVE.UUID())

	byUUID, err := c.Flaw(ctx, byCVE.UUID())
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-1337", byUUID.CVEID())
	assert.False(t, byUUID.Embargoed())

	assert.Equal(t, []string{"Bearer tok", "Bearer tok"}, *auth)
}

func TestNotFound(t *testing.T) {
	srv, _ := newOSIDB(t)
	c := NewClient(srv.URL+"/", nil, Options{})
	ctx := context.Background()

	_, err := c.FlawByUUID(ctx, uuid.New())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "Not found.")

	_, err = c.FlawByCVE(ctx, "CVE-2020-0001")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	flaws, err := c.Flaws(ctx, url.Values{"cve_id": {"CVE-2020-0001"}})
	require.NoError(t, err)
	assert.Empty(t, flaws)
}

func TestMalformedJSON(t *testing.T) {
	srv, _ := newOSIDB(t)
	c := NewClient(srv.URL, nil, Options{})
	var page flawPage
	err := c.get(context.Background(), "osidb/api/v1/broken/", nil, &page)
	assert.ErrorContains(t, err, "decode")
}

func TestTokenErrorStopsRequest(t *testing.T) {
	srv, auth := newOSIDB(t)
	c := NewClient(srv.URL, StaticToken(""), Options{})
	_, err := c.Flaw(context.Background(), "CVE-2024-1337")
	require.Error(t, err)
	assert.Empty(t, *auth)
}

func TestFieldValues(t *testing.T) {
	srv, _ := newOSIDB(t)
	f, err := NewClient(srv.URL, nil, Options{}).Flaw(context.Background(), "CVE-2024-1337")
	require.NoError(t, err)

	tests := []struct {
		path string
		want []string
	}{
		{"uuid", []string{"5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10"}},
		{"embargoed", []string{"false"}},
		{"cvss_scores__score", []string{"7.5"}},
		{"acknowledgments__name", []string{"Jane", "Joe"}},
		{"affects__ps_module", []string{"rhel-9", "fedora-38"}},
		{"affects__trackers__ps_update_stream", []string{"rhel-9.4.z", "rhel-9.5"}},
		{"affects__trackers__external_system_id", []string{"RHEL-1"}},
		{"affects__trackers__errata__advisory_name", nil},
		{"affects", nil},
		{"missing", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FieldValues(f, tt.path), tt.path)
	}
	assert.Equal(t, "Jane, Joe", FieldValue(f, "acknowledgments__name"))
}

func TestCommandToken(t *testing.T) {
	var gotName string
	var gotArgs []string
	calls := 0
	src := &CommandToken{
		Command: DefaultTokenCommand("https://osidb.example.test/"),
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			calls++
			gotName, gotArgs = name, args
			return []byte(`{"access": "acc", "refresh": "ref"}`), nil
		},
	}
	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc", tok)
	assert.Equal(t, "curl", gotName)
	assert.Contains(t, gotArgs, "Content-Type: application/json")
	assert.Equal(t, "https://osidb.example.test/auth/token", gotArgs[len(gotArgs)-1])

	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "the access token is reused")
}

func TestCommandTokenErrors(t *testing.T) {
	ctx := context.Background()
	respond := func(out string, err error) Runner {
		return func(context.Context, string, ...string) ([]byte, error) { return []byte(out), err }
	}
	tests := []struct {
		name string
		src  *CommandToken
		want string
	}{
		{"unbalanced quotes", &CommandToken{Command: `curl "oops`}, "parse token command"},
		{"empty command", &CommandToken{Command: "  "}, "empty token command"},
		{"command fails", &CommandToken{Command: "curl x", Run: respond("", errors.New("exit status 7"))}, "exit status 7"},
		{"not json", &CommandToken{Command: "curl x", Run: respond("<html>", nil)}, "decode token response"},
		{"no access", &CommandToken{Command: "curl x", Run: respond(`{"refresh": "r"}`, nil)}, "no access token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Token(ctx)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
