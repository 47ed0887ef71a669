package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminhandler "credentry/internal/admin/handler"
	adminservice "credentry/internal/admin/service"
	adminstore "credentry/internal/admin/store"
	authorityhandler "credentry/internal/authority/handler"
	authorityservice "credentry/internal/authority/service"
	authoritystore "credentry/internal/authority/store"
	"credentry/internal/ledger"
	registryhandler "credentry/internal/registry/handler"
	"credentry/internal/registry/models"
	registryservice "credentry/internal/registry/service"
	registrystore "credentry/internal/registry/store"
	"credentry/pkg/domain"
	"credentry/pkg/platform/middleware/auth"
)

type testServer struct {
	srv      *httptest.Server
	verifier *auth.Verifier
	clock    *ledger.Counter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	verifier := auth.NewVerifier("test-signing-key")
	clock := ledger.NewCounter(0)

	authorities := authoritystore.NewInMemory()
	admins := adminservice.New("owner", adminstore.NewInMemory(), adminservice.WithLogger(logger))
	authoritySvc := authorityservice.New(authorities, admins, clock, authorityservice.WithLogger(logger))

	newRegistry := func(kind models.Kind) *registryhandler.Handler {
		svc := registryservice.New(kind, registrystore.NewInMemory(), authorities, clock, registryservice.WithLogger(logger))
		return registryhandler.New(svc)
	}

	router := NewRouter(Deps{
		Logger:         logger,
		Verifier:       verifier,
		Admins:         adminhandler.New(admins),
		Authorities:    authorityhandler.New(authoritySvc),
		Qualifications: newRegistry(models.KindQualification),
		Privileges:     newRegistry(models.KindPrivilege),
		Panels:         newRegistry(models.KindPanel),
		DevMode:        true,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, verifier: verifier, clock: clock}
}

func (ts *testServer) token(t *testing.T, id domain.AccountID) string {
	t.Helper()
	token, err := ts.verifier.Mint(id, time.Minute)
	require.NoError(t, err)
	return token
}

// do sends a JSON request, optionally authenticated, and decodes the response
// into out when it is non-nil.
func (ts *testServer) do(t *testing.T, method, path, callerID string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if callerID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, domain.AccountID(callerID)))
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) registerVerifiedAuthority(t *testing.T, id, name string) {
	t.Helper()
	status := ts.do(t, http.MethodPost, "/authorities", id, map[string]string{"name": name}, nil)
	require.Equal(t, http.StatusCreated, status)
	status = ts.do(t, http.MethodPost, "/admins", "owner", map[string]string{"id": "admin-1"}, nil)
	require.Equal(t, http.StatusCreated, status)
	status = ts.do(t, http.MethodPut, "/authorities/"+id+"/verified", "admin-1", map[string]bool{"verified": true}, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	status := ts.do(t, http.MethodGet, "/healthz", "", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.srv.Client().Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/authorities"},
		{http.MethodPost, "/admins"},
		{http.MethodPost, "/qualifications"},
		{http.MethodPost, "/privileges"},
		{http.MethodPost, "/panel-memberships"},
	} {
		status := ts.do(t, tc.method, tc.path, "", map[string]string{}, nil)
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
	}
}

func TestReadRoutesArePublic(t *testing.T) {
	ts := newTestServer(t)
	status := ts.do(t, http.MethodGet, "/authorities", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status = ts.do(t, http.MethodGet, "/privileges/1", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = ts.do(t, http.MethodGet, "/privileges/1/validity", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthorityLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var registered struct {
		ID       string `json:"id"`
		Verified bool   `json:"verified"`
		Active   bool   `json:"active"`
	}
	status := ts.do(t, http.MethodPost, "/authorities", "hospital-1",
		map[string]string{"name": "General Hospital", "location": "Springfield"}, &registered)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "hospital-1", registered.ID)
	assert.False(t, registered.Verified)
	assert.True(t, registered.Active)

	// duplicate registration conflicts
	var errBody struct {
		Error string `json:"error"`
	}
	status = ts.do(t, http.MethodPost, "/authorities", "hospital-1",
		map[string]string{"name": "General Hospital"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_exists", errBody.Error)

	// verification requires admin membership
	status = ts.do(t, http.MethodPut, "/authorities/hospital-1/verified", "hospital-1",
		map[string]bool{"verified": true}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = ts.do(t, http.MethodPost, "/admins", "owner", map[string]string{"id": "admin-1"}, nil)
	require.Equal(t, http.StatusCreated, status)

	var verified struct {
		Verified bool `json:"verified"`
	}
	status = ts.do(t, http.MethodPut, "/authorities/hospital-1/verified", "admin-1",
		map[string]bool{"verified": true}, &verified)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, verified.Verified)

	// public lookup sees the flag
	var fetched struct {
		Verified bool `json:"verified"`
	}
	status = ts.do(t, http.MethodGet, "/authorities/hospital-1", "", nil, &fetched)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, fetched.Verified)
}

func TestPrivilegeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerifiedAuthority(t, "hospital-1", "General Hospital")

	var created struct {
		ID uint64 `json:"id"`
	}
	status := ts.do(t, http.MethodPost, "/privileges", "hospital-1", map[string]any{
		"subject_id": "provider-1",
		"payload":    map[string]string{"code": "APPY", "name": "Appendectomy"},
		"expires_at": 1000,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, uint64(1), created.ID)

	path := fmt.Sprintf("/privileges/%d", created.ID)

	var validity struct {
		Valid bool `json:"valid"`
	}
	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, validity.Valid)

	// expiry is height-based: at the expiration height the privilege lapses
	ts.clock.Advance(1000)
	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, validity.Valid)

	// renewal restores it
	status = ts.do(t, http.MethodPut, path+"/renewal", "hospital-1", map[string]uint64{"expires_at": 2000}, nil)
	require.Equal(t, http.StatusOK, status)
	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, validity.Valid)

	// suspension by the issuing hospital
	var updated struct {
		Status       string `json:"status"`
		Restrictions string `json:"restrictions"`
	}
	status = ts.do(t, http.MethodPut, path+"/status", "hospital-1",
		map[string]string{"status": "suspended", "restrictions": "supervised only"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "suspended", updated.Status)
	assert.Equal(t, "supervised only", updated.Restrictions)

	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, validity.Valid)

	// another authority cannot touch the record
	status = ts.do(t, http.MethodPut, path+"/status", "other-hospital",
		map[string]string{"status": "active"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestQualificationSelfReportFlow(t *testing.T) {
	ts := newTestServer(t)

	var created struct {
		ID uint64 `json:"id"`
	}
	status := ts.do(t, http.MethodPost, "/qualifications/self-reports", "provider-1", map[string]any{
		"authority_id": "issuer-1",
		"payload":      map[string]string{"type": "board-cert", "name": "Cardiology"},
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	path := fmt.Sprintf("/qualifications/%d", created.ID)

	var validity struct {
		Valid bool `json:"valid"`
	}
	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, validity.Valid)

	// only the named authority may verify
	status = ts.do(t, http.MethodPost, path+"/verification", "someone-else", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var verified struct {
		Status string `json:"status"`
	}
	status = ts.do(t, http.MethodPost, path+"/verification", "issuer-1", nil, &verified)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "verified", verified.Status)

	status = ts.do(t, http.MethodGet, path+"/validity", "", nil, &validity)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, validity.Valid)
}

func TestIssueRequiresVerifiedAuthority(t *testing.T) {
	ts := newTestServer(t)

	// unregistered caller
	var errBody struct {
		Error string `json:"error"`
	}
	status := ts.do(t, http.MethodPost, "/panel-memberships", "insurer-1", map[string]any{
		"subject_id": "provider-1",
		"payload":    map[string]string{"network": "Gold PPO"},
	}, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errBody.Error)

	// registered but unverified
	status = ts.do(t, http.MethodPost, "/authorities", "insurer-1", map[string]string{
		"name": "Acme Health", "category": "insurer",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = ts.do(t, http.MethodPost, "/panel-memberships", "insurer-1", map[string]any{
		"subject_id": "provider-1",
		"payload":    map[string]string{"network": "Gold PPO"},
	}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "unauthorized", errBody.Error)
}

func TestKindSpecificRoutesAreNotCrossMounted(t *testing.T) {
	ts := newTestServer(t)

	// privileges have no self-report or verification route
	status := ts.do(t, http.MethodPost, "/privileges/self-reports", "provider-1", map[string]any{}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	// qualifications have no status or renewal route
	status = ts.do(t, http.MethodPut, "/qualifications/1/status", "issuer-1", map[string]string{"status": "active"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListBySubject(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerifiedAuthority(t, "hospital-1", "General Hospital")

	for _, subject := range []string{"provider-1", "provider-2", "provider-1"} {
		status := ts.do(t, http.MethodPost, "/privileges", "hospital-1", map[string]any{
			"subject_id": subject,
			"payload":    map[string]string{"code": "APPY"},
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var listed struct {
		Records []struct {
			ID        uint64 `json:"id"`
			SubjectID string `json:"subject_id"`
		} `json:"records"`
	}
	status := ts.do(t, http.MethodGet, "/privileges?subject_id=provider-1", "", nil, &listed)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, listed.Records, 2)
	assert.Equal(t, "provider-1", listed.Records[0].SubjectID)
}

func TestDevTokenEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var minted struct {
		Token string `json:"token"`
	}
	status := ts.do(t, http.MethodPost, "/dev/token", "", map[string]string{"id": "hospital-1"}, &minted)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, minted.Token)

	caller, err := ts.verifier.CallerFromToken(minted.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("hospital-1"), caller)
}

func TestUnknownFieldsRejected(t *testing.T) {
	ts := newTestServer(t)
	var errBody struct {
		Error string `json:"error"`
	}
	status := ts.do(t, http.MethodPost, "/authorities", "hospital-1",
		map[string]string{"name": "General Hospital", "bogus": "field"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", errBody.Error)
}
