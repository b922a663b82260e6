package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/dmitrijs2005/billfold/internal/server/docstore"
	"github.com/dmitrijs2005/billfold/internal/server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memUserRepo struct {
	byLogin map[string]*users.User
}

func (m *memUserRepo) Create(_ context.Context, user *users.User) error {
	if _, ok := m.byLogin[user.Login]; ok {
		return common.ErrLoginAlreadyExists
	}
	m.byLogin[user.Login] = user
	return nil
}

func (m *memUserRepo) FindByLogin(_ context.Context, login string) (*users.User, error) {
	u, ok := m.byLogin[login]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	us := users.NewService(&memUserRepo{byLogin: make(map[string]*users.User)}, testSecret, time.Hour)
	h := NewHandler(us, docstore.NewMemory(), logging.Nop(), 500)
	srv := httptest.NewServer(NewRouter(h, []byte(testSecret)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func registerUser(t *testing.T, srv *httptest.Server, login string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/register", "",
		map[string]string{"login": login, "password": "p@ssw0rd"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[tokenResponse](t, resp).Token
}

func testDoc(id string, updatedAt time.Time) map[string]any {
	return map[string]any{
		"id":        id,
		"name":      "doc " + id,
		"updatedAt": updatedAt.UTC().Format(time.RFC3339Nano),
		"isDeleted": false,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "alice")
	assert.NotEmpty(t, token)

	// Duplicate login.
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/register", "",
		map[string]string{"login": "alice", "password": "another1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Correct login.
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/login", "",
		map[string]string{"login": "alice", "password": "p@ssw0rd"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[tokenResponse](t, resp).Token)

	// Wrong password.
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/login", "",
		map[string]string{"login": "alice", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRegister_ValidatesInput(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/register", "",
		map[string]string{"login": "al", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSync_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/sync/clients/changes")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/sync/clients/changes", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSync_BatchAndChanges(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")
	base := time.Now().Truncate(time.Second)

	batch := map[string]any{"documents": []map[string]any{
		testDoc("b", base.Add(2*time.Second)),
		testDoc("a", base.Add(time.Second)),
	}}
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sync/clients/batch", token, batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[batchResponse](t, resp)
	require.Len(t, out.Outcomes, 2)
	for _, o := range out.Outcomes {
		assert.True(t, o.OK, o.Error)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/sync/clients/changes", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	changes := decode[changesResponse](t, resp)
	require.Len(t, changes.Documents, 2)
	assert.Equal(t, "a", changes.Documents[0]["id"], "ascending by updatedAt")
	assert.Equal(t, "b", changes.Documents[1]["id"])

	// Page after the last change is empty.
	since := base.Add(2 * time.Second).UTC().Format(time.RFC3339Nano)
	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/v1/sync/clients/changes?since=%s", srv.URL, since), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[changesResponse](t, resp).Documents)
}

func TestSync_BatchIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	batch := map[string]any{"documents": []map[string]any{testDoc("a", time.Now())}}
	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sync/clients/batch", token, batch)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/sync/clients/changes", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[changesResponse](t, resp).Documents, 1)
}

func TestSync_BatchReportsPerDocumentFailures(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	batch := map[string]any{"documents": []map[string]any{
		{"name": "no id here"},
		testDoc("ok", time.Now()),
	}}
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sync/clients/batch", token, batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[batchResponse](t, resp)
	require.Len(t, out.Outcomes, 2)
	assert.False(t, out.Outcomes[0].OK)
	assert.NotEmpty(t, out.Outcomes[0].Error)
	assert.True(t, out.Outcomes[1].OK)
}

func TestSync_DeleteCreatesTombstone(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")
	base := time.Now()

	batch := map[string]any{"documents": []map[string]any{testDoc("a", base)}}
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sync/clients/batch", token, batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/v1/sync/clients/a", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/sync/clients/changes", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	changes := decode[changesResponse](t, resp)
	require.Len(t, changes.Documents, 1)
	assert.Equal(t, true, changes.Documents[0]["isDeleted"])

	// Deleting a missing document is a 404.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/v1/sync/clients/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSync_UnknownKind(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/sync/gadgets/changes", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSync_UsersAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	batch := map[string]any{"documents": []map[string]any{testDoc("a", time.Now())}}
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sync/clients/batch", alice, batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/sync/clients/changes", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[changesResponse](t, resp).Documents)
}
