package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/api/transport"
	boltInfra "github.com/fastygo/todo/internal/infrastructure/bolt"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	"github.com/fastygo/todo/internal/middleware"
	"github.com/fastygo/todo/internal/security"
	"github.com/fastygo/todo/pkg/httpcontext"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	authUC "github.com/fastygo/todo/usecase/auth"
	taskUC "github.com/fastygo/todo/usecase/task"
)

type testServer struct {
	handler fasthttp.RequestHandler
}

func newTestServer(t *testing.T, probe monitor.Probe) *testServer {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "todo.db"), nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := security.NewTokenManager(security.TokenConfig{Secret: "test-secret", Algorithm: "HS256", TTL: time.Hour})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	users := boltRepo.NewUserRepository(db)
	adapter := httpcontext.NewAdapter(5 * time.Second)

	mon := monitor.New(time.Minute, nil)
	if probe == nil {
		probe = func(ctx context.Context) error { return boltInfra.Ping(ctx, db) }
	}
	mon.Register("storage", probe)
	mon.Refresh(context.Background())

	handlers := Handlers{
		Auth:    apiHandler.NewAuthHandler(authUC.New(users, security.NewBcryptHasher(bcrypt.MinCost), tokens, nil), adapter, nil),
		Profile: apiHandler.NewProfileHandler(adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(boltRepo.NewTaskRepository(db), nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, adapter, nil),
	}
	requireUser := middleware.RequireUser(authUC.NewResolver(tokens, users, nil, nil), adapter, nil)

	r := New(handlers, requireUser)
	return &testServer{
		handler: middleware.Chain(r.Handler,
			middleware.AccessLog(nil),
			middleware.CORS([]string{"http://localhost:3000"}),
		),
	}
}

type request struct {
	method  string
	uri     string
	body    string
	form    url.Values
	token   string
	headers map[string]string
}

type response struct {
	status int
	header *fasthttp.ResponseHeader
	body   []byte
}

func (s *testServer) do(t *testing.T, req request) response {
	t.Helper()
	var r fasthttp.Request
	r.Header.SetMethod(req.method)
	r.SetRequestURI("http://localhost" + req.uri)
	switch {
	case req.form != nil:
		r.Header.SetContentType("application/x-www-form-urlencoded")
		r.SetBodyString(req.form.Encode())
	case req.body != "":
		r.Header.SetContentType("application/json")
		r.SetBodyString(req.body)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&r, nil, nil)
	s.handler(&ctx)

	header := &fasthttp.ResponseHeader{}
	ctx.Response.Header.CopyTo(header)
	return response{
		status: ctx.Response.StatusCode(),
		header: header,
		body:   append([]byte(nil), ctx.Response.Body()...),
	}
}

func decode[T any](t *testing.T, resp response) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.body, &out); err != nil {
		t.Fatalf("decode %q: %v", resp.body, err)
	}
	return out
}

func expectStatus(t *testing.T, resp response, want int) {
	t.Helper()
	if resp.status != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.status, resp.body)
	}
}

func (s *testServer) register(t *testing.T, email, password string) transport.UserResponse {
	t.Helper()
	resp := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/register",
		body:   fmt.Sprintf(`{"email":%q,"password":%q}`, email, password),
	})
	expectStatus(t, resp, http.StatusOK)
	return decode[transport.UserResponse](t, resp)
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/login",
		form:   url.Values{"username": {email}, "password": {password}},
	})
	expectStatus(t, resp, http.StatusOK)
	body := decode[map[string]string](t, resp)
	if body["token_type"] != "bearer" || body["access_token"] == "" {
		t.Fatalf("unexpected token response: %v", body)
	}
	return body["access_token"]
}

type taskBody struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UserID      int64   `json:"user_id"`
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, request{method: http.MethodGet, uri: "/"})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[transport.MessageResponse](t, resp).Message; got != "Welcome to the Tasks API" {
		t.Fatalf("unexpected message %q", got)
	}
	if len(resp.header.Peek(httpcontext.HeaderRequestID)) == 0 {
		t.Fatal("expected request id header")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	expectStatus(t, s.do(t, request{method: http.MethodGet, uri: "/health"}), http.StatusOK)

	down := newTestServer(t, func(context.Context) error { return errors.New("down") })
	resp := down.do(t, request{method: http.MethodGet, uri: "/health"})
	expectStatus(t, resp, http.StatusServiceUnavailable)
	if got := decode[map[string]interface{}](t, resp)["status"]; got != "degraded" {
		t.Fatalf("expected degraded status, got %v", got)
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/register",
		body:   `{"email":"alice@x.com","password":"pw1"}`,
	})
	expectStatus(t, resp, http.StatusOK)
	raw := decode[map[string]interface{}](t, resp)
	if len(raw) != 2 || raw["email"] != "alice@x.com" || raw["id"] == nil {
		t.Fatalf("unexpected user body %v", raw)
	}

	resp = s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/register",
		body:   `{"email":"alice@x.com","password":"other"}`,
	})
	expectStatus(t, resp, http.StatusConflict)
	if got := decode[transport.ErrorResponse](t, resp).Detail; got != "Email already registered" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "malformed email", body: `{"email":"not-an-email","password":"pw"}`, field: "email"},
		{name: "missing password", body: `{"email":"a@x.com"}`, field: "password"},
		{name: "wrong type", body: `{"email":5,"password":"pw"}`, field: "email"},
		{name: "malformed json", body: `{"email":`, field: "body"},
		{name: "empty body", body: "", field: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, request{method: http.MethodPost, uri: "/users/register", body: tt.body})
			expectStatus(t, resp, http.StatusUnprocessableEntity)
			body := decode[transport.ErrorResponse](t, resp)
			if body.Code != "INVALID" || len(body.Errors) == 0 || body.Errors[0].Field != tt.field {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice@x.com", "pw1")

	wrongPassword := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/login",
		form:   url.Values{"username": {"alice@x.com"}, "password": {"nope"}},
	})
	unknownEmail := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/login",
		form:   url.Values{"username": {"ghost@x.com"}, "password": {"pw1"}},
	})

	for _, resp := range []response{wrongPassword, unknownEmail} {
		expectStatus(t, resp, http.StatusUnauthorized)
		if got := string(resp.header.Peek("WWW-Authenticate")); got != "Bearer" {
			t.Fatalf("expected bearer challenge, got %q", got)
		}
	}
	if string(wrongPassword.body) != string(unknownEmail.body) {
		t.Fatalf("bodies differ: %s vs %s", wrongPassword.body, unknownEmail.body)
	}
	if got := decode[transport.ErrorResponse](t, wrongPassword).Detail; got != "Invalid credentials" {
		t.Fatalf("unexpected detail %q", got)
	}

	missing := s.do(t, request{
		method: http.MethodPost,
		uri:    "/users/login",
		form:   url.Values{"username": {"alice@x.com"}},
	})
	expectStatus(t, missing, http.StatusUnprocessableEntity)
}

func TestMe(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "alice@x.com", "pw1")
	token := s.login(t, "alice@x.com", "pw1")

	resp := s.do(t, request{method: http.MethodGet, uri: "/users/me", token: token})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[transport.UserResponse](t, resp); got != user {
		t.Fatalf("expected %+v, got %+v", user, got)
	}

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{name: "no header", detail: "Not authenticated"},
		{name: "other scheme", header: "Basic abc", detail: "Not authenticated"},
		{name: "garbage token", header: "Bearer garbage", detail: "Could not validate credentials"},
		{name: "tampered token", header: "Bearer " + token + "x", detail: "Could not validate credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp := s.do(t, request{method: http.MethodGet, uri: "/users/me", headers: headers})
			expectStatus(t, resp, http.StatusUnauthorized)
			if got := string(resp.header.Peek("WWW-Authenticate")); got != "Bearer" {
				t.Fatalf("expected bearer challenge, got %q", got)
			}
			if got := decode[transport.ErrorResponse](t, resp).Detail; got != tt.detail {
				t.Fatalf("expected %q, got %q", tt.detail, got)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice@x.com", "pw1")
	token := s.login(t, "alice@x.com", "pw1")

	resp := s.do(t, request{method: http.MethodPost, uri: "/tasks/", token: token, body: `{"title":"Buy milk"}`})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[taskBody](t, resp)
	if created.ID == "" || created.Status != "pending" || created.Description != nil || created.UserID != alice.ID {
		t.Fatalf("unexpected task %+v", created)
	}
	if _, err := time.Parse(time.RFC3339Nano, created.CreatedAt); err != nil {
		t.Fatalf("created_at not ISO-8601: %v", err)
	}

	resp = s.do(t, request{method: http.MethodPut, uri: "/tasks/" + created.ID, token: token, body: `{"status":"completed","description":"2 liters"}`})
	expectStatus(t, resp, http.StatusOK)
	updated := decode[taskBody](t, resp)
	if updated.Title != "Buy milk" || updated.Status != "completed" || updated.Description == nil || *updated.Description != "2 liters" {
		t.Fatalf("unexpected update %+v", updated)
	}

	resp = s.do(t, request{method: http.MethodPut, uri: "/tasks/" + created.ID, token: token, body: `{"description":null}`})
	expectStatus(t, resp, http.StatusOK)
	if cleared := decode[taskBody](t, resp); cleared.Description != nil || cleared.Status != "completed" {
		t.Fatalf("expected description cleared, got %+v", cleared)
	}

	resp = s.do(t, request{method: http.MethodGet, uri: "/tasks/", token: token})
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]taskBody](t, resp); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	resp = s.do(t, request{method: http.MethodDelete, uri: "/tasks/" + created.ID, token: token})
	expectStatus(t, resp, http.StatusNoContent)
	if len(resp.body) != 0 {
		t.Fatalf("expected empty body, got %q", resp.body)
	}

	resp = s.do(t, request{method: http.MethodGet, uri: "/tasks/" + created.ID, token: token})
	expectStatus(t, resp, http.StatusNotFound)
	if got := decode[transport.ErrorResponse](t, resp).Detail; got != "Task not found" {
		t.Fatalf("unexpected detail %q", got)
	}

	resp = s.do(t, request{method: http.MethodGet, uri: "/tasks/", token: token})
	expectStatus(t, resp, http.StatusOK)
	if string(resp.body) != "[]" {
		t.Fatalf("expected empty list, got %s", resp.body)
	}
}

func TestTaskValidation(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice@x.com", "pw1")
	token := s.login(t, "alice@x.com", "pw1")

	resp := s.do(t, request{method: http.MethodPost, uri: "/tasks/", token: token, body: `{"title":"ok"}`})
	expectStatus(t, resp, http.StatusCreated)
	id := decode[taskBody](t, resp).ID

	long := strconv.Quote(strings.Repeat("a", 51))
	tests := []struct {
		name   string
		method string
		uri    string
		body   string
	}{
		{name: "create missing title", method: http.MethodPost, uri: "/tasks/", body: `{"description":"x"}`},
		{name: "create empty title", method: http.MethodPost, uri: "/tasks/", body: `{"title":""}`},
		{name: "create long title", method: http.MethodPost, uri: "/tasks/", body: `{"title":` + long + `}`},
		{name: "create bad status", method: http.MethodPost, uri: "/tasks/", body: `{"title":"x","status":"archived"}`},
		{name: "update empty title", method: http.MethodPut, uri: "/tasks/" + id, body: `{"title":""}`},
		{name: "update bad status", method: http.MethodPut, uri: "/tasks/" + id, body: `{"status":"done"}`},
		{name: "list negative skip", method: http.MethodGet, uri: "/tasks/?skip=-1"},
		{name: "list non-integer limit", method: http.MethodGet, uri: "/tasks/?limit=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, request{method: tt.method, uri: tt.uri, token: token, body: tt.body})
			expectStatus(t, resp, http.StatusUnprocessableEntity)
		})
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice@x.com", "pw1")
	s.register(t, "bob@x.com", "pw2")
	aliceToken := s.login(t, "alice@x.com", "pw1")
	bobToken := s.login(t, "bob@x.com", "pw2")

	resp := s.do(t, request{method: http.MethodPost, uri: "/tasks/", token: aliceToken, body: `{"title":"secret"}`})
	expectStatus(t, resp, http.StatusCreated)
	id := decode[taskBody](t, resp).ID

	missing := s.do(t, request{method: http.MethodGet, uri: "/tasks/does-not-exist", token: bobToken})
	expectStatus(t, missing, http.StatusNotFound)

	for _, req := range []request{
		{method: http.MethodGet, uri: "/tasks/" + id},
		{method: http.MethodPut, uri: "/tasks/" + id, body: `{"title":"mine"}`},
		{method: http.MethodDelete, uri: "/tasks/" + id},
	} {
		req.token = bobToken
		resp := s.do(t, req)
		expectStatus(t, resp, http.StatusNotFound)
		if string(resp.body) != string(missing.body) {
			t.Fatalf("%s: foreign task distinguishable from missing: %s vs %s", req.method, resp.body, missing.body)
		}
	}

	resp = s.do(t, request{method: http.MethodGet, uri: "/tasks/", token: bobToken})
	expectStatus(t, resp, http.StatusOK)
	if string(resp.body) != "[]" {
		t.Fatalf("bob sees foreign tasks: %s", resp.body)
	}

	resp = s.do(t, request{method: http.MethodGet, uri: "/tasks/" + id, token: aliceToken})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[taskBody](t, resp).Title; got != "secret" {
		t.Fatalf("task modified by foreign owner: %q", got)
	}
}

func TestTaskPagination(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "alice@x.com", "pw1")
	token := s.login(t, "alice@x.com", "pw1")

	for i := 0; i < 5; i++ {
		resp := s.do(t, request{method: http.MethodPost, uri: "/tasks/", token: token, body: fmt.Sprintf(`{"title":"task-%d"}`, i)})
		expectStatus(t, resp, http.StatusCreated)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"task-0", "task-1", "task-2", "task-3", "task-4"}},
		{query: "?skip=1&limit=2", want: []string{"task-1", "task-2"}},
		{query: "?skip=4", want: []string{"task-4"}},
		{query: "?skip=10", want: []string{}},
		{query: "?limit=0", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := s.do(t, request{method: http.MethodGet, uri: "/tasks/" + tt.query, token: token})
			expectStatus(t, resp, http.StatusOK)
			list := decode[[]taskBody](t, resp)
			if len(list) != len(tt.want) {
				t.Fatalf("expected %d tasks, got %d", len(tt.want), len(list))
			}
			for i, task := range list {
				if task.Title != tt.want[i] {
					t.Fatalf("position %d: expected %q, got %q", i, tt.want[i], task.Title)
				}
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, request{
		method: http.MethodOptions,
		uri:    "/tasks/",
		headers: map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "Authorization",
		},
	})
	if resp.status >= http.StatusMultipleChoices {
		t.Fatalf("preflight status %d: %s", resp.status, resp.body)
	}
	if got := string(resp.header.Peek("Access-Control-Allow-Origin")); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := string(resp.header.Peek("Access-Control-Allow-Credentials")); got != "true" {
		t.Fatalf("unexpected allow-credentials %q", got)
	}

	actual := s.do(t, request{
		method:  http.MethodGet,
		uri:     "/",
		headers: map[string]string{"Origin": "http://localhost:3000"},
	})
	expectStatus(t, actual, http.StatusOK)
	if got := string(actual.header.Peek("Access-Control-Allow-Origin")); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin on actual request %q", got)
	}

	foreign := s.do(t, request{
		method:  http.MethodGet,
		uri:     "/",
		headers: map[string]string{"Origin": "http://evil.example"},
	})
	expectStatus(t, foreign, http.StatusOK)
	if got := foreign.header.Peek("Access-Control-Allow-Origin"); len(got) != 0 {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}

func TestEndToEnd(t *testing.T) {
	s := newTestServer(t, nil)
	start := time.Now().UTC().Add(-time.Second)

	resp := s.do(t, request{method: http.MethodPost, uri: "/users/register", body: `{"email":"a@x.com","password":"p1"}`})
	expectStatus(t, resp, http.StatusOK)
	if user := decode[transport.UserResponse](t, resp); user.ID == 0 || user.Email != "a@x.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	resp = s.do(t, request{method: http.MethodPost, uri: "/users/register", body: `{"email":"a@x.com","password":"p1"}`})
	expectStatus(t, resp, http.StatusConflict)
	if got := decode[transport.ErrorResponse](t, resp).Detail; got != "Email already registered" {
		t.Fatalf("unexpected detail %q", got)
	}

	resp = s.do(t, request{method: http.MethodPost, uri: "/users/login", form: url.Values{"username": {"a@x.com"}, "password": {"wrong"}}})
	expectStatus(t, resp, http.StatusUnauthorized)
	if got := decode[transport.ErrorResponse](t, resp).Detail; got != "Invalid credentials" {
		t.Fatalf("unexpected detail %q", got)
	}

	token := s.login(t, "a@x.com", "p1")

	resp = s.do(t, request{method: http.MethodPost, uri: "/tasks/", token: token, body: `{"title":"T"}`})
	expectStatus(t, resp, http.StatusCreated)
	task := decode[taskBody](t, resp)
	if task.Status != "pending" || task.Title != "T" {
		t.Fatalf("unexpected task %+v", task)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, task.CreatedAt)
	if err != nil || createdAt.Before(start) {
		t.Fatalf("created_at %q earlier than request (%v)", task.CreatedAt, err)
	}

	expectStatus(t, s.do(t, request{method: http.MethodDelete, uri: "/tasks/" + task.ID, token: token}), http.StatusNoContent)
	expectStatus(t, s.do(t, request{method: http.MethodGet, uri: "/tasks/" + task.ID, token: token}), http.StatusNotFound)
}
