package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "github.com/ericfisherdev/safeguard/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/safeguard/internal/adapter/driving/web"
	"github.com/ericfisherdev/safeguard/internal/application"
	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// unavailableStore initializes and then reports every operation as unavailable.
type unavailableStore struct{}

var _ driven.CredentialStore = unavailableStore{}

func (unavailableStore) Initialize(_ context.Context) error { return nil }
func (unavailableStore) GetAll(_ context.Context) ([]model.Credential, error) {
	return nil, driven.ErrStorageUnavailable
}
func (unavailableStore) Search(_ context.Context, _ string) ([]model.Credential, error) {
	return nil, driven.ErrStorageUnavailable
}
func (unavailableStore) Add(_ context.Context, _ model.CredentialDraft) (model.Credential, error) {
	return model.Credential{}, driven.ErrStorageUnavailable
}
func (unavailableStore) Update(_ context.Context, _ string, _ model.CredentialPatch) (model.Credential, error) {
	return model.Credential{}, driven.ErrStorageUnavailable
}
func (unavailableStore) Delete(_ context.Context, _ string) error { return driven.ErrStorageUnavailable }
func (unavailableStore) ClearAll(_ context.Context) error        { return driven.ErrStorageUnavailable }

const testToken = "test-csrf-token"

func setupMux(t *testing.T) (*http.ServeMux, *application.Coordinator) {
	t.Helper()

	db, err := sqliteadapter.NewDB(context.Background(), filepath.Join(t.TempDir(), "safeguard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	coord := application.NewCoordinator(sqliteadapter.NewCredentialRepo(db), slog.Default())
	require.NoError(t, coord.Initialize(context.Background()))

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(coord, slog.Default()))
	return mux, coord
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// postForm submits form values with a matching CSRF cookie unless token is empty.
func postForm(mux http.Handler, path string, values url.Values, token string) *httptest.ResponseRecorder {
	if token != "" {
		values.Set("csrf_token", token)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_Empty(t *testing.T) {
	mux, _ := setupMux(t)

	rec := get(mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Safeguard</title>")
	assert.Contains(t, body, "No credentials yet")
	assert.Contains(t, body, `action="/credentials"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "csrf_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Contains(t, body, `value="`+cookies[0].Value+`"`)
}

func TestDashboard_ReusesExistingToken(t *testing.T) {
	mux, _ := setupMux(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Contains(t, rec.Body.String(), `value="`+testToken+`"`)
}

func TestDashboard_UnknownPath(t *testing.T) {
	mux, _ := setupMux(t)

	rec := get(mux, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCredential(t *testing.T) {
	mux, coord := setupMux(t)

	rec := postForm(mux, "/credentials", url.Values{
		"service":  {"GitHub"},
		"username": {"octo"},
		"secret":   {"hunter2"},
	}, testToken)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	snap := coord.Snapshot()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "GitHub", snap.Records[0].Service)

	body := get(mux, "/").Body.String()
	assert.Contains(t, body, "1 credential")
	assert.Contains(t, body, "<h2>GitHub</h2>")
	assert.Contains(t, body, "•••••••")
}

func TestAddCredential_RejectsMissingCSRF(t *testing.T) {
	mux, coord := setupMux(t)

	rec := postForm(mux, "/credentials", url.Values{"service": {"GitHub"}}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, coord.Snapshot().Records)

	rec = postForm(mux, "/credentials", url.Values{"service": {"GitHub"}}, "wrong-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, coord.Snapshot().Records)
}

func TestAddCredential_ValidationErrorShown(t *testing.T) {
	mux, coord := setupMux(t)

	rec := postForm(mux, "/credentials", url.Values{"service": {"  "}}, testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), application.MsgValidationFailed)
	assert.Empty(t, coord.Snapshot().Records)
}

func TestDashboard_EscapesUserContent(t *testing.T) {
	mux, coord := setupMux(t)

	_, err := coord.Add(context.Background(), model.CredentialDraft{
		Service:  `<script>alert("x")</script>`,
		Username: `a"b`,
	})
	require.NoError(t, err)

	body := get(mux, "/?q=script").Body.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "a&#34;b")
}

func TestDashboard_Search(t *testing.T) {
	mux, coord := setupMux(t)
	ctx := context.Background()

	for _, service := range []string{"GitHub", "Gmail", "Bank"} {
		_, err := coord.Add(ctx, model.CredentialDraft{Service: service})
		require.NoError(t, err)
	}

	body := get(mux, "/?q=gi").Body.String()
	assert.Contains(t, body, "<h2>GitHub</h2>")
	assert.NotContains(t, body, "<h2>Gmail</h2>")
	assert.NotContains(t, body, "<h2>Bank</h2>")
	assert.Contains(t, body, `value="gi"`)

	body = get(mux, "/?q=zzz").Body.String()
	assert.Contains(t, body, "No matching credentials")
}

func TestDeleteCredential(t *testing.T) {
	mux, coord := setupMux(t)

	cred, err := coord.Add(context.Background(), model.CredentialDraft{Service: "GitHub"})
	require.NoError(t, err)

	rec := postForm(mux, "/credentials/"+cred.ID+"/delete", url.Values{}, testToken)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, coord.Snapshot().Records)

	rec = postForm(mux, "/credentials/"+cred.ID+"/delete", url.Values{}, testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), application.MsgNotFound)
}

func TestDashboard_SearchIgnoresSurroundingSpaces(t *testing.T) {
	mux, coord := setupMux(t)
	ctx := context.Background()

	for _, service := range []string{"GitHub", "my bank"} {
		_, err := coord.Add(ctx, model.CredentialDraft{Service: service})
		require.NoError(t, err)
	}

	body := get(mux, "/?q=%20git%20").Body.String()
	assert.Contains(t, body, "<h2>GitHub</h2>")
	assert.NotContains(t, body, "<h2>my bank</h2>")
	assert.Contains(t, body, `value="git"`)

	body = get(mux, "/?q=%20%20").Body.String()
	assert.Contains(t, body, "<h2>GitHub</h2>")
	assert.Contains(t, body, "<h2>my bank</h2>")
}

func TestDashboard_RendersEditForm(t *testing.T) {
	mux, coord := setupMux(t)

	cred, err := coord.Add(context.Background(), model.CredentialDraft{Service: "GitHub", Username: "octo"})
	require.NoError(t, err)

	body := get(mux, "/").Body.String()
	assert.Contains(t, body, `action="/credentials/`+cred.ID+`"`)
	assert.Contains(t, body, `name="service" placeholder="Service" required value="GitHub"`)
	assert.Contains(t, body, `value="octo"`)
}

func TestUpdateCredential(t *testing.T) {
	tests := []struct {
		name         string
		id           string // empty means the seeded credential
		form         url.Values
		token        string
		wantStatus   int
		wantBody     string
		wantService  string
		wantUsername string
		wantSecret   string
	}{
		{
			name:         "all fields",
			form:         url.Values{"service": {"GitLab"}, "username": {"tanuki"}, "secret": {"new"}},
			token:        testToken,
			wantStatus:   http.StatusSeeOther,
			wantService:  "GitLab",
			wantUsername: "tanuki",
			wantSecret:   "new",
		},
		{
			name:         "omitted fields unchanged",
			form:         url.Values{"secret": {"rotated"}},
			token:        testToken,
			wantStatus:   http.StatusSeeOther,
			wantService:  "GitHub",
			wantUsername: "octo",
			wantSecret:   "rotated",
		},
		{
			name:         "empty username clears it",
			form:         url.Values{"service": {"GitHub"}, "username": {""}},
			token:        testToken,
			wantStatus:   http.StatusSeeOther,
			wantService:  "GitHub",
			wantUsername: "",
			wantSecret:   "old",
		},
		{
			name:         "blank service rejected",
			form:         url.Values{"service": {"  "}},
			token:        testToken,
			wantStatus:   http.StatusBadRequest,
			wantBody:     application.MsgValidationFailed,
			wantService:  "GitHub",
			wantUsername: "octo",
			wantSecret:   "old",
		},
		{
			name:         "unknown id",
			id:           "does-not-exist",
			form:         url.Values{"secret": {"x"}},
			token:        testToken,
			wantStatus:   http.StatusNotFound,
			wantBody:     application.MsgNotFound,
			wantService:  "GitHub",
			wantUsername: "octo",
			wantSecret:   "old",
		},
		{
			name:         "missing csrf",
			form:         url.Values{"secret": {"x"}},
			wantStatus:   http.StatusForbidden,
			wantService:  "GitHub",
			wantUsername: "octo",
			wantSecret:   "old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, coord := setupMux(t)

			cred, err := coord.Add(context.Background(), model.CredentialDraft{
				Service: "GitHub", Username: "octo", Secret: "old",
			})
			require.NoError(t, err)

			id := tt.id
			if id == "" {
				id = cred.ID
			}

			rec := postForm(mux, "/credentials/"+id, tt.form, tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/", rec.Header().Get("Location"))
			}

			coord.Refresh(context.Background())
			snap := coord.Snapshot()
			require.Len(t, snap.Records, 1)
			assert.Equal(t, tt.wantService, snap.Records[0].Service)
			assert.Equal(t, tt.wantUsername, snap.Records[0].Username)
			assert.Equal(t, tt.wantSecret, snap.Records[0].Secret)
		})
	}
}

func TestStorageUnavailable(t *testing.T) {
	coord := application.NewCoordinator(unavailableStore{}, slog.Default())
	require.NoError(t, coord.Initialize(context.Background()))

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(coord, slog.Default()))

	tests := []struct {
		name string
		path string
		form url.Values
	}{
		{name: "add", path: "/credentials", form: url.Values{"service": {"GitHub"}}},
		{name: "update", path: "/credentials/x", form: url.Values{"secret": {"y"}}},
		{name: "delete", path: "/credentials/x/delete", form: url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(mux, tt.path, tt.form, testToken)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), application.MsgStorageUnavailable)
		})
	}
}
