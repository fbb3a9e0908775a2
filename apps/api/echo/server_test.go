package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/stats"
	"github.com/shepherd-app/shepherd/core/student"
	"github.com/shepherd-app/shepherd/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type insighterMock struct {
	points []stats.Point
	role   member.Role
}

func (m *insighterMock) Insight(_ context.Context, points []stats.Point, role member.Role) string {
	m.points, m.role = points, role
	return "Attendance is steady."
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "Shepherd",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			LoginRateLimitPerMin:      1000,
		},
	}
}

func setup(t *testing.T, insighter ...stats.Insighter) (*server, *testutil.Env) {
	t.Helper()

	env := testutil.NewEnv(t)
	deps := ServerDeps{
		Conf:    testConfig(),
		Logger:  env.Logger,
		Members: env.Members,
		Orgs:    env.Orgs,
		Access:  env.Access,
	}
	if len(insighter) > 0 {
		deps.Insighter = insighter[0]
	}
	return NewServer(deps).(*server), env
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, s *server, mbr member.Member) string {
	token, err := s.auth.tokenFor(mbr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, s *server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			s.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_home(t *testing.T) {
	s, _ := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Shepherd API!", rec.Body.String())
}

func TestServer_metrics(t *testing.T) {
	s, _ := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	s.ServeHTTP(rec, req)

	req, rec = newRequest(http.MethodGet, "/metrics")
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shepherd_http_requests_total{method="GET",route="/",status="200"} 1`)
}

func TestAppHTTPErrorHandler(t *testing.T) {
	s, _ := setup(t)
	var shutdown bool
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, func() { shutdown = true })

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "member not found", err: errors.Wrap(member.ErrNotFound, "retrieving"), wantCode: http.StatusNotFound, wantBody: `{"error":"member not found"}`},
		{name: "class not found", err: org.ErrClassNotFound, wantCode: http.StatusNotFound},
		{name: "student not found", err: student.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "forbidden", err: errors.Wrap(access.ErrForbidden, "updating"), wantCode: http.StatusForbidden},
		{name: "credentials", err: member.ErrInvalidCredentials, wantCode: http.StatusUnauthorized},
		{name: "already a member", err: org.ErrAlreadyMember, wantCode: http.StatusConflict},
		{
			name:     "validation error",
			err:      core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"name":"this field is required"}`,
		},
		{
			name:     "struct validation errors",
			err:      core.Validate.Struct(org.NewOrganization{}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"name":"this field is required"}`,
		},
		{name: "http error", err: echo.NewHTTPError(http.StatusTeapot, "teapot"), wantCode: http.StatusTeapot, wantBody: `{"error":"teapot"}`},
		{name: "anything else", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := s.app.NewContext(newRequest(http.MethodGet, "/"))
			s.app.HTTPErrorHandler(tt.err, ctx)
			rec := ctx.Response().Writer.(*httptest.ResponseRecorder)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
	assert.False(t, shutdown)

	ctx := s.app.NewContext(newRequest(http.MethodGet, "/"))
	s.app.HTTPErrorHandler(core.NewShutdownError("integrity issue"), ctx)
	assert.True(t, shutdown)
}

func TestServer_invalidData(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	adminToken := getToken(t, s, c.Admin)
	studentPath := "/v1/students/" + c.StudentA.ID

	tests := []struct {
		name      string
		method    string
		path      string
		token     string
		body      string
		wantField string
	}{
		{name: "register", path: "/v1/auth/register", body: `{"name": "Jane", "email": "nope", "password": "s3cure-pa55"}`, wantField: "email"},
		{name: "login", path: "/v1/auth/login", body: `{"email": "jane@church.com"}`, wantField: "password"},
		{name: "password reset", path: "/v1/auth/password-reset", body: `{"email": "nope"}`, wantField: "email"},
		{name: "password reset confirm", path: "/v1/auth/password-reset-confirm", body: `{}`, wantField: "uid"},
		{name: "update me", method: http.MethodPut, path: "/v1/me", token: getToken(t, s, c.Teacher), body: `{"profile_image": "not a url"}`, wantField: "profile_image"},
		{name: "update member", method: http.MethodPut, path: "/v1/members/" + c.Teacher.ID, token: adminToken, body: `{"email": "nope"}`, wantField: "email"},
		{name: "found organization", path: "/v1/organizations", token: getToken(t, s, c.Pending), body: `{}`, wantField: "name"},
		{name: "join organization", path: "/v1/organizations/join", token: getToken(t, s, c.Pending), body: `{"code": " "}`, wantField: "code"},
		{name: "create department", path: "/v1/departments", token: adminToken, body: `{}`, wantField: "name"},
		{name: "create class", path: "/v1/classes", token: getToken(t, s, c.DeptLeader), body: `{}`, wantField: "name"},
		{name: "create student", path: "/v1/students", token: adminToken, body: `{"class_id": "` + c.ClassA.ID + `"}`, wantField: "name"},
		{name: "update student", method: http.MethodPut, path: studentPath, token: adminToken, body: `{"name": " "}`, wantField: "name"},
		{name: "mark attendance", method: http.MethodPut, path: studentPath + "/attendance", token: adminToken, body: `{"status": "ASLEEP"}`, wantField: "status"},
		{name: "toggle attendance", path: studentPath + "/attendance/toggle", token: adminToken, body: `{"date": "05/05/2024"}`, wantField: "date"},
	}
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodPost
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, []byte(tt.body))
			s.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var fields map[string]string
			decode(t, rec, &fields)
			assert.NotEmpty(t, fields[tt.wantField], rec.Body.String())
		})
	}
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)
	l := newTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"), "bucket drained")
	assert.True(t, l.allow("5.6.7.8"), "buckets are per client")

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow("1.2.3.4"), "refilled")
	assert.False(t, l.allow("1.2.3.4"))
}

func TestServer_loginRateLimit(t *testing.T) {
	env := testutil.NewEnv(t)
	conf := testConfig()
	conf.Server.LoginRateLimitPerMin = 2
	s := NewServer(ServerDeps{Conf: conf, Logger: env.Logger, Members: env.Members, Orgs: env.Orgs, Access: env.Access})

	body := []byte(`{"email": "nobody@church.com", "password": "whatever"}`)
	var codes []int
	for i := 0; i < 3; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
		s.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

// multipartBody builds a form with one file field plus the given values.
func multipartBody(t *testing.T, filename, content string, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
