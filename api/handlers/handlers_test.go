package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"argus-console/api"
	"argus-console/config"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

// testMailer records sent resets instead of talking SMTP.
type testMailer struct {
	mu         sync.Mutex
	configured bool
	sent       []string
}

func (m *testMailer) Configured() bool { return m.configured }

func (m *testMailer) SendPasswordReset(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	m.sent = append(m.sent, to)
	m.mu.Unlock()
	return nil
}

type testEnv struct {
	ts     *httptest.Server
	users  store.UsersStore
	roles  store.RolesStore
	mailer *testMailer
	roleID map[string]int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "argus.db"),
		Import:        config.ImportConfig{MaxUploadBytes: 10 << 20},
		OperatorRoles: []string{"admin"},
	}
	logger := utils.NewLoggerTo(testWriter{t})

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := store.NewUsersStore(db)
	roles := store.NewRolesStore(db)
	env := &testEnv{
		users:  users,
		roles:  roles,
		mailer: &testMailer{},
		roleID: map[string]int64{},
	}
	for _, role := range rbac.DefaultRoles() {
		id, err := roles.Create(context.Background(), role.Name)
		if err != nil {
			t.Fatalf("seed role %s: %v", role.Name, err)
		}
		env.roleID[role.Name] = id
	}
	adminRole := env.roleID["admin"]
	if _, err := users.Create(context.Background(), &store.User{
		Username:    "admin",
		DisplayName: "Administrator",
		RoleID:      &adminRole,
		State:       store.StateNormal,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	policy, err := rbac.NewPolicy(rbac.DefaultRoles())
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	server := api.NewServer(api.Deps{
		Config: cfg,
		Users:  users,
		Roles:  roles,
		Audits: store.NewAuditStore(db),
		Policy: policy,
		Mailer: env.mailer,
		Logger: logger,
	})
	env.ts = httptest.NewServer(server.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

func (e *testEnv) post(t *testing.T, path string, body any) wire.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode %s body: %v", path, err)
	}
	httpResp, err := http.Post(e.ts.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("post %s: status %d", path, httpResp.StatusCode)
	}
	var resp wire.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return resp
}

// detail issues the empty-bodied POST the console uses for the detail
// endpoint.
func (e *testEnv) detail(t *testing.T, path string) wire.Response {
	t.Helper()
	return e.post(t, path, nil)
}

func (e *testEnv) upload(t *testing.T, filename, content string) wire.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("csvfile", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fmt.Fprint(part, content)
	writer.Close()

	httpResp, err := http.Post(e.ts.URL+"/user/upload-import", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer httpResp.Body.Close()
	var resp wire.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

// createUser provisions an account through the API and returns its id.
func (e *testEnv) createUser(t *testing.T, username string, roleID int64) int64 {
	t.Helper()
	resp := e.post(t, "/user/update-user", wire.UpdateUserRequest{
		ID:       wire.CreateID,
		RoleID:   roleID,
		Username: username,
	})
	if resp.Code != wire.CodeOK {
		t.Fatalf("create %s: code %d message %q", username, resp.Code, resp.Message)
	}
	var data struct {
		ID int64 `json:"id"`
	}
	if err := resp.DecodeData(&data); err != nil {
		t.Fatalf("decode create data: %v", err)
	}
	return data.ID
}

func (e *testEnv) listUsers(t *testing.T, req wire.GetUsersRequest) wire.GetUsersResult {
	t.Helper()
	resp := e.post(t, "/user/get-users", req)
	if resp.Code != wire.CodeOK {
		t.Fatalf("get-users: code %d message %q", resp.Code, resp.Message)
	}
	var result wire.GetUsersResult
	if err := resp.DecodeData(&result); err != nil {
		t.Fatalf("decode get-users data: %v", err)
	}
	return result
}
