package shell

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid-dev/leadgrid/internal/apiclient"
	"github.com/leadgrid-dev/leadgrid/internal/config"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/routegate"
	"github.com/leadgrid-dev/leadgrid/internal/session"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

func mintToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": expiry.Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fakeAPI serves the login endpoint the way the remote CRM API would.
func fakeAPI(t *testing.T, role string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(apiclient.LoginResponse{
			Token: mintToken(t, time.Now().Add(time.Hour)),
			User:  credstore.UserProfile{Email: req.Email, Role: credstore.Role{Value: role}},
		})
	}))
}

func newTestShell(t *testing.T, apiURL string) (*Shell, *credstore.Store) {
	t.Helper()
	store := credstore.NewWithVault(t.TempDir(), credstore.NewMemVault())
	clock := tokenclock.New(store)
	manager := session.New(store, clock, zerolog.Nop())
	gate := routegate.New(store, clock)
	api := apiclient.New(apiURL, store)
	cfg := &config.Config{}
	return New(cfg, store, clock, manager, gate, api, routegate.DefaultTable(), zerolog.Nop()), store
}

func get(s *Shell, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Router().ServeHTTP(w, req)
	return w
}

func postJSON(s *Shell, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, s *Shell, store *credstore.Store, role string) {
	t.Helper()
	require.NoError(t, store.SetToken(mintToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, store.SetUser(&credstore.UserProfile{Role: credstore.Role{Value: role}}))
}

func TestUnauthenticatedNavigationRedirectsToLogin(t *testing.T) {
	s, _ := newTestShell(t, "http://unused.invalid")

	for _, path := range []string{"/leads", "/admin", "/users", "/sales"} {
		w := get(s, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, routegate.LoginPath, w.Header().Get("Location"), path)
	}
}

func TestRootResolution(t *testing.T) {
	s, store := newTestShell(t, "http://unused.invalid")

	w := get(s, "/")
	assert.Equal(t, routegate.LoginPath, w.Header().Get("Location"), "no token resolves to login")

	loginAs(t, s, store, "admin")
	w = get(s, "/")
	assert.Equal(t, routegate.AdminHome, w.Header().Get("Location"))
}

func TestRoleRestrictedScreenSoftRedirects(t *testing.T) {
	s, store := newTestShell(t, "http://unused.invalid")
	loginAs(t, s, store, "manager")

	// Admin-only screen: a manager lands on the manager dashboard
	w := get(s, "/users")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, routegate.ManagerHome, w.Header().Get("Location"))

	// Screens the role may see render
	assert.Equal(t, http.StatusOK, get(s, "/manager").Code)
	assert.Equal(t, http.StatusOK, get(s, "/leads").Code)
}

func TestLoginFlow(t *testing.T) {
	api := fakeAPI(t, "manager")
	defer api.Close()

	s, store := newTestShell(t, api.URL)

	w := postJSON(s, "/login", `{"email":"ada@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, routegate.ManagerHome, resp["redirect"])

	assert.NotEmpty(t, store.Token())
	require.NotNil(t, store.User())
	assert.Equal(t, "manager", store.User().Role.Value)
}

func TestLoginRejectsBadInputAndBadCredentials(t *testing.T) {
	api := fakeAPI(t, "manager")
	defer api.Close()

	s, store := newTestShell(t, api.URL)

	assert.Equal(t, http.StatusBadRequest, postJSON(s, "/login", `{"email":"not-an-email","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(s, "/login", `{`).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(s, "/login", `{"email":"ada@example.com","password":"wrong"}`).Code)
	assert.Empty(t, store.Token())
}

func TestLogoutClearsSessionAndGateCloses(t *testing.T) {
	s, store := newTestShell(t, "http://unused.invalid")
	loginAs(t, s, store, "admin")
	require.NoError(t, store.SetFilters(map[string]any{"status": "new"}))

	assert.Equal(t, http.StatusOK, get(s, "/admin").Code)

	w := postJSON(s, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())
	assert.Equal(t, map[string]any{}, store.Filters(map[string]any{}))

	w = get(s, "/admin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, routegate.LoginPath, w.Header().Get("Location"))
}

func TestFiltersEndpoints(t *testing.T) {
	s, store := newTestShell(t, "http://unused.invalid")
	loginAs(t, s, store, "sales_rep")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/filters", strings.NewReader(`{"status":"new","owner":"ada"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/filters", strings.NewReader(`{"status":"won"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var filters map[string]any
	require.NoError(t, json.Unmarshal(get(s, "/api/filters").Body.Bytes(), &filters))
	assert.Equal(t, "won", filters["status"])
	assert.Equal(t, "ada", filters["owner"])
}

func TestSessionStatus(t *testing.T) {
	s, store := newTestShell(t, "http://unused.invalid")

	var status map[string]any
	require.NoError(t, json.Unmarshal(get(s, "/session").Body.Bytes(), &status))
	assert.Equal(t, false, status["authenticated"])
	assert.Equal(t, false, status["expired"])

	loginAs(t, s, store, "admin")
	require.NoError(t, json.Unmarshal(get(s, "/session").Body.Bytes(), &status))
	assert.Equal(t, true, status["authenticated"])
	assert.Equal(t, false, status["expired"])
	assert.Equal(t, "admin", status["role"])
	assert.NotEmpty(t, status["expiresAt"])
}
