package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"planhub.org/internal/auth"
	"planhub.org/internal/pm"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T, opts ...Option) *apiClient {
	t.Helper()

	service, err := pm.NewService(pm.NewInMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tokens, err := auth.NewTokens("test-access-secret", "test-refresh-secret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	sessions, err := pm.NewSessions(service, tokens)
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}

	opts = append([]Option{WithRateLimit(1000, 1000)}, opts...)
	api := New(ReadyProbe{}, "test", service, sessions, opts...)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) del(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}

// dataEnvelope mirrors the wire shape of single-resource responses.
type dataEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type listEnvelope struct {
	Success    bool            `json:"success"`
	Count      int             `json:"count"`
	Pagination *pm.PageInfo    `json:"pagination"`
	Data       json.RawMessage `json:"data"`
}

// bootstrapCompany creates a company and registers its Admin, returning the
// company id and the session.
func (c *apiClient) bootstrapCompany(name string) (string, sessionResponse) {
	c.t.Helper()
	resp := c.post("/companies", map[string]any{
		"name":   name,
		"domain": name + ".test",
	}, nil)
	wantStatus(c.t, resp, http.StatusCreated)
	env := decode[dataEnvelope](c.t, resp)
	var company pm.Company
	if err := json.Unmarshal(env.Data, &company); err != nil {
		c.t.Fatalf("decode company: %v", err)
	}

	resp = c.post("/auth/register", map[string]any{
		"name":      name + " Admin",
		"email":     "admin@" + name + ".test",
		"password":  "password",
		"companyId": company.ID,
	}, nil)
	wantStatus(c.t, resp, http.StatusCreated)
	session := decode[sessionResponse](c.t, resp)
	if session.AccessToken == "" || session.RefreshToken == "" {
		c.t.Fatal("register issued empty tokens")
	}
	return company.ID, session
}

// createUser creates a user via the Admin session and opens a session for
// it by logging in.
func (c *apiClient) createUser(adminToken, companyID, email string, role pm.Role) sessionResponse {
	c.t.Helper()
	resp := c.post("/users", map[string]any{
		"name":      "Test " + string(role),
		"email":     email,
		"password":  "password",
		"role":      role,
		"companyId": companyID,
	}, bearerHeader(adminToken))
	wantStatus(c.t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = c.post("/auth/login", map[string]any{
		"email":    email,
		"password": "password",
	}, nil)
	wantStatus(c.t, resp, http.StatusOK)
	return decode[sessionResponse](c.t, resp)
}

func TestHealthEndpoints(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/healthz", nil, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.get("/readyz", nil, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.get("/metrics", nil, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestAuthFlow(t *testing.T) {
	c := newTestAPI(t)
	_, session := c.bootstrapCompany("acme")

	if session.User.Role != pm.RoleAdmin {
		t.Fatalf("registered role = %s, want Admin", session.User.Role)
	}

	// Wrong password and unknown email produce the same response.
	for _, creds := range []map[string]any{
		{"email": session.User.Email, "password": "wrong-password"},
		{"email": "ghost@acme.test", "password": "password"},
	} {
		resp := c.post("/auth/login", creds, nil)
		wantStatus(t, resp, http.StatusUnauthorized)
		env := decode[dataEnvelope](t, resp)
		if env.Success || env.Message != "invalid credentials" {
			t.Fatalf("login failure envelope = %+v", env)
		}
	}

	resp := c.post("/auth/logout", nil, bearerHeader(session.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Logout kills the refresh token but not the outstanding access token.
	resp = c.post("/auth/refresh-token", map[string]any{
		"refreshToken": session.RefreshToken,
	}, nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	_, session := c.bootstrapCompany("acme")

	resp := c.post("/auth/refresh-token", map[string]any{
		"refreshToken": session.RefreshToken,
	}, nil)
	wantStatus(t, resp, http.StatusOK)
	rotated := decode[sessionResponse](t, resp)
	if rotated.RefreshToken == session.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	resp = c.post("/auth/refresh-token", map[string]any{
		"refreshToken": session.RefreshToken,
	}, nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = c.post("/auth/refresh-token", map[string]any{}, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/projects", nil, nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
	resp.Body.Close()

	resp = c.get("/projects", nil, bearerHeader("not-a-token"))
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = c.get("/projects", nil, map[string]string{"Authorization": "Basic abc"})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestProjectTaskFlow(t *testing.T) {
	c := newTestAPI(t)
	companyID, admin := c.bootstrapCompany("acme")
	member := c.createUser(admin.AccessToken, companyID, "member@acme.test", pm.RoleMember)

	// Admin creates a project and a task assigned to the member.
	resp := c.post("/projects", map[string]any{
		"name":        "Website",
		"description": "Marketing site",
		"companyId":   companyID,
	}, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusCreated)
	env := decode[dataEnvelope](t, resp)
	var project pm.Project
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}

	resp = c.post("/tasks", map[string]any{
		"title":       "Draft landing page",
		"description": "Hero section",
		"assignedTo":  member.User.ID,
		"projectId":   project.ID,
	}, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusCreated)
	env = decode[dataEnvelope](t, resp)
	var task pm.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.Status != pm.StatusToDo {
		t.Fatalf("default status = %q", task.Status)
	}

	// Member role cannot reach the project-management routes.
	resp = c.post("/projects", map[string]any{
		"name":        "Rogue",
		"description": "x",
		"companyId":   companyID,
	}, bearerHeader(member.AccessToken))
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = c.del("/tasks/"+task.ID, bearerHeader(member.AccessToken))
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// But sees the assigned work on /tasks/me.
	resp = c.get("/tasks/me", nil, bearerHeader(member.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	list := decode[listEnvelope](t, resp)
	if list.Count != 1 {
		t.Fatalf("my tasks count = %d, want 1", list.Count)
	}

	// Member updates status; the title in the same payload is ignored.
	resp = c.put("/tasks/"+task.ID, map[string]any{
		"title":  "Hijacked",
		"status": pm.StatusInProgress,
	}, bearerHeader(member.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	env = decode[dataEnvelope](t, resp)
	var updated pm.Task
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if updated.Status != pm.StatusInProgress {
		t.Fatalf("status = %q, want %q", updated.Status, pm.StatusInProgress)
	}
	if updated.Title != task.Title {
		t.Fatalf("member changed title: %q", updated.Title)
	}

	// Admin deletes the task.
	resp = c.del("/tasks/"+task.ID, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	resp = c.get("/tasks/"+task.ID, nil, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCrossCompanyIsolationOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	companyA, adminA := c.bootstrapCompany("acme")
	_, adminB := c.bootstrapCompany("globex")

	resp := c.post("/projects", map[string]any{
		"name":        "Secret",
		"description": "internal",
		"companyId":   companyA,
	}, bearerHeader(adminA.AccessToken))
	wantStatus(t, resp, http.StatusCreated)
	env := decode[dataEnvelope](t, resp)
	var project pm.Project
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}

	resp = c.get("/projects/"+project.ID, nil, bearerHeader(adminB.AccessToken))
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = c.get("/projects/missing-id", nil, bearerHeader(adminB.AccessToken))
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	// Listing never leaks the other tenant.
	resp = c.get("/projects", nil, bearerHeader(adminB.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	list := decode[listEnvelope](t, resp)
	if list.Count != 0 {
		t.Fatalf("foreign tenant sees %d projects", list.Count)
	}
}

func TestUserRoutesAreAdminOnly(t *testing.T) {
	c := newTestAPI(t)
	companyID, admin := c.bootstrapCompany("acme")
	manager := c.createUser(admin.AccessToken, companyID, "manager@acme.test", pm.RoleManager)

	resp := c.get("/users", nil, bearerHeader(manager.AccessToken))
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = c.get("/users", nil, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	list := decode[listEnvelope](t, resp)
	if list.Count != 2 {
		t.Fatalf("user count = %d, want 2", list.Count)
	}
	// Password hashes and refresh tokens never serialize.
	if bytes.Contains(list.Data, []byte("password_hash")) || bytes.Contains(list.Data, []byte("refreshToken")) {
		t.Fatalf("sensitive fields leaked: %s", list.Data)
	}
}

func TestPaginationEnvelope(t *testing.T) {
	c := newTestAPI(t)
	companyID, admin := c.bootstrapCompany("acme")

	for i := 0; i < 15; i++ {
		resp := c.post("/projects", map[string]any{
			"name":        fmt.Sprintf("Project %02d", i),
			"description": "x",
			"companyId":   companyID,
		}, bearerHeader(admin.AccessToken))
		wantStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	resp := c.get("/projects", url.Values{"page": {"2"}, "limit": {"10"}}, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	list := decode[listEnvelope](t, resp)
	if list.Count != 5 {
		t.Fatalf("page 2 count = %d, want 5", list.Count)
	}
	if list.Pagination == nil || list.Pagination.Prev == nil || list.Pagination.Prev.Page != 1 {
		t.Fatalf("page 2 pagination = %+v", list.Pagination)
	}
	if list.Pagination.Next != nil {
		t.Fatalf("page 2 next = %+v, want nil", list.Pagination.Next)
	}

	// Garbage paging params fall back to the defaults.
	resp = c.get("/projects", url.Values{"page": {"banana"}, "limit": {"-4"}}, bearerHeader(admin.AccessToken))
	wantStatus(t, resp, http.StatusOK)
	list = decode[listEnvelope](t, resp)
	if list.Count != 10 {
		t.Fatalf("default page count = %d, want 10", list.Count)
	}
}

func TestBadRequestBodies(t *testing.T) {
	c := newTestAPI(t)

	resp := c.post("/companies", nil, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.post("/companies", map[string]any{
		"name":       "acme",
		"domain":     "acme.test",
		"unexpected": true,
	}, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.post("/companies", map[string]any{"name": "  ", "domain": "acme.test"}, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	env := decode[dataEnvelope](t, resp)
	if env.Success {
		t.Fatal("validation failure reported success")
	}
}

func TestUnknownRoute(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/no/such/route", nil, nil)
	wantStatus(t, resp, http.StatusNotFound)
	env := decode[dataEnvelope](t, resp)
	if env.Success {
		t.Fatal("404 envelope reported success")
	}
}
