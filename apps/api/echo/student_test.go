package echoapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/stats"
	"github.com/shepherd-app/shepherd/core/student"
	"github.com/shepherd-app/shepherd/tests"
)

func newImportRequest(t *testing.T, token, filename, content string, values map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, values)
	req := httptest.NewRequest(http.MethodPost, "/v1/students/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return req, httptest.NewRecorder()
}

func Test_studentApi_query(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	testutil.CreateChurch(t, env, "HOPE1")

	tests := []struct {
		name  string
		actor member.Member
		path  string
		want  []student.Student
	}{
		{"admin", c.Admin, "/v1/students", []student.Student{c.StudentA, c.StudentB, c.StudentC}},
		{"org leader", c.Leader, "/v1/students", []student.Student{c.StudentA, c.StudentB, c.StudentC}},
		{"dept leader", c.DeptLeader, "/v1/students", []student.Student{c.StudentA, c.StudentB}},
		{"teacher", c.Teacher, "/v1/students", []student.Student{c.StudentA}},
		{"class filter", c.Admin, "/v1/students?class_id=" + c.ClassB.ID, []student.Student{c.StudentB}},
		{"class filter out of scope", c.Teacher, "/v1/students?class_id=" + c.ClassC.ID, []student.Student{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, getToken(t, s, tt.actor))
			s.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			var got []student.Student
			decode(t, rec, &got)
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	runHTTPTests(t, s, []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "pending member", path: "/v1/students", token: getToken(t, s, c.Pending), wantCode: http.StatusForbidden},
		{name: "student", path: "/v1/students/" + c.StudentA.ID, token: getToken(t, s, c.Teacher), wantData: marchallObj(t, c.StudentA)},
		{name: "student out of scope", path: "/v1/students/" + c.StudentC.ID, token: getToken(t, s, c.Teacher), wantCode: http.StatusNotFound},
		{name: "unknown student", path: "/v1/students/missing", token: getToken(t, s, c.Admin), wantCode: http.StatusNotFound},
	})
}

func Test_studentApi_create(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	teacherToken := getToken(t, s, c.Teacher)

	runHTTPTests(t, s, []httpTest{
		{
			name: "name required", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body: []byte(`{"name": "  "}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "admins name the class", method: http.MethodPost, path: "/v1/students", token: getToken(t, s, c.Admin),
			body: []byte(`{"name": "Kim"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_id": "this field is required"}),
		},
		{
			name: "class out of scope", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body: []byte(`{"name": "Kim", "class_id": "` + c.ClassC.ID + `"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_id": org.ErrClassNotFound.Error()}),
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/students", teacherToken, []byte(`{"name": " Kim ", "guardian_phone": "010-1111-2222"}`))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created student.Student
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Kim", created.Name)
	assert.Equal(t, c.ClassA.ID, created.ClassID, "teachers enroll in their own class")
	assert.Equal(t, "010-1111-2222", created.GuardianPhone)
	assert.Empty(t, created.Attendance)
}

func Test_studentApi_update(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	path := "/v1/students/" + c.StudentA.ID

	runHTTPTests(t, s, []httpTest{
		{
			name: "teacher cannot move out of scope", method: http.MethodPut, path: path, token: getToken(t, s, c.Teacher),
			body: []byte(`{"class_id": "` + c.ClassB.ID + `"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_id": org.ErrClassNotFound.Error()}),
		},
		{
			name: "blank name", method: http.MethodPut, path: path, token: getToken(t, s, c.Teacher),
			body: []byte(`{"name": " "}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "another department", method: http.MethodPut, path: "/v1/students/" + c.StudentC.ID, token: getToken(t, s, c.DeptLeader),
			body: []byte(`{"notes": "x"}`), wantCode: http.StatusNotFound,
		},
	})

	body := []byte(`{"class_id": "` + c.ClassB.ID + `", "notes": " allergic to nuts "}`)
	req, rec := newAuthRequest(http.MethodPut, path, getToken(t, s, c.DeptLeader), body)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated student.Student
	decode(t, rec, &updated)
	assert.Equal(t, c.ClassB.ID, updated.ClassID)
	assert.Equal(t, "allergic to nuts", updated.Notes)
	assert.Equal(t, c.StudentA.Name, updated.Name)
	assert.Equal(t, c.StudentA.Attendance, updated.Attendance)

	// the student left the teacher's class
	req, rec = newAuthRequest(http.MethodGet, path, getToken(t, s, c.Teacher))
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_studentApi_attendance(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	token := getToken(t, s, c.Teacher)
	path := "/v1/students/" + c.StudentA.ID

	runHTTPTests(t, s, []httpTest{
		{
			name: "invalid status", method: http.MethodPut, path: path + "/attendance", token: token,
			body: []byte(`{"date": "2024-05-12", "status": "MAYBE"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid date", method: http.MethodPut, path: path + "/attendance", token: token,
			body: []byte(`{"date": "12/05/2024", "status": "PRESENT"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "out of scope", method: http.MethodPut, path: "/v1/students/" + c.StudentC.ID + "/attendance", token: token,
			body: []byte(`{"date": "2024-05-12", "status": "PRESENT"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "invalid toggle date", method: http.MethodPost, path: path + "/attendance/toggle", token: token,
			body: []byte(`{"date": "yesterday"}`), wantCode: http.StatusBadRequest,
		},
	})

	var got student.Student
	req, rec := newAuthRequest(http.MethodPut, path+"/attendance", token, []byte(`{"date": "2024-05-12", "status": "EXCUSED"}`))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &got)
	assert.Equal(t, student.Attendance{"2024-05-05": student.StatusPresent, "2024-05-12": student.StatusExcused}, got.Attendance)

	// the roll call cycles Present, Late, Absent
	for _, want := range []student.AttendanceStatus{student.StatusLate, student.StatusAbsent, student.StatusPresent} {
		req, rec = newAuthRequest(http.MethodPost, path+"/attendance/toggle", token, []byte(`{"date": "2024-05-05"}`))
		s.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &got)
		assert.Equal(t, want, got.Attendance["2024-05-05"])
	}

	// excused restarts the cycle
	req, rec = newAuthRequest(http.MethodPost, path+"/attendance/toggle", token, []byte(`{"date": "2024-05-12"}`))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Equal(t, student.StatusPresent, got.Attendance["2024-05-12"])

	req, rec = newRequest(http.MethodGet, "/metrics")
	s.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `shepherd_attendance_marks_total{status="PRESENT"} 2`)
	assert.Contains(t, rec.Body.String(), `shepherd_attendance_marks_total{status="EXCUSED"} 1`)
}

func Test_studentApi_import(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")
	token := getToken(t, s, c.Teacher)

	tests := []struct {
		name     string
		filename string
		content  string
		values   map[string]string
		wantCode int
		wantData []byte
	}{
		{
			name: "file required", values: map[string]string{"class_id": c.ClassA.ID},
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": "this field is required"}),
		},
		{
			name: "unsupported format", filename: "roster.txt", content: "name\nKim\n",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": student.ErrUnsupportedFormat.Error()}),
		},
		{
			name: "empty roster", filename: "roster.csv",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": student.ErrEmptyRoster.Error()}),
		},
		{
			name: "class out of scope", filename: "roster.csv", content: "name\nKim\n", values: map[string]string{"class_id": c.ClassB.ID},
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"class_id": org.ErrClassNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newImportRequest(t, token, tt.filename, tt.content, tt.values)
			s.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}

	roster := "이름,연락처,비고\nKim,010-1111-2222,\n,,blank row\n Lee ,,new\n"
	req, rec := newImportRequest(t, token, "roster.csv", roster, nil)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ImportResponse
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Created)
	require.Len(t, resp.Students, 2)
	assert.Equal(t, "Kim", resp.Students[0].Name)
	assert.Equal(t, "010-1111-2222", resp.Students[0].GuardianPhone)
	assert.Equal(t, "Lee", resp.Students[1].Name)
	assert.Equal(t, "new", resp.Students[1].Notes)
	for _, st := range resp.Students {
		assert.Equal(t, c.ClassA.ID, st.ClassID)
	}

	students, err := env.Access.Students(req.Context(), c.Teacher)
	require.NoError(t, err)
	assert.Len(t, students, 3)
}

func Test_studentApi_template(t *testing.T) {
	s, env := setup(t)
	c := testutil.CreateChurch(t, env, "GRACE2024")

	req, rec := newAuthRequest(http.MethodGet, "/v1/students/import/template", getToken(t, s, c.Teacher))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="students_template.xlsx"`, rec.Header().Get(echo.HeaderContentDisposition))

	// the template reads back as a roster
	rows, err := student.ParseRows(bytes.NewReader(rec.Body.Bytes()), student.FormatXLSX)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func Test_statsApi(t *testing.T) {
	insighter := &insighterMock{}
	s, env := setup(t, insighter)
	c := testutil.CreateChurch(t, env, "GRACE2024")

	req, rec := newAuthRequest(http.MethodGet, "/v1/stats/attendance", getToken(t, s, c.DeptLeader))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var points []stats.Point
	decode(t, rec, &points)
	assert.Equal(t, []stats.Point{{Date: "2024-05-05", Present: 1, Absent: 1, Rate: 50}}, points)

	req, rec = newAuthRequest(http.MethodGet, "/v1/stats/insight", getToken(t, s, c.Admin))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp InsightResponse
	decode(t, rec, &resp)
	assert.Equal(t, "Attendance is steady.", resp.Insight)
	require.Len(t, resp.Points, 1)
	assert.Equal(t, 2, resp.Points[0].Present, "present and late count as attended")
	assert.Equal(t, member.RoleAdmin, insighter.role)
	assert.Equal(t, resp.Points, insighter.points)

	runHTTPTests(t, s, []httpTest{
		{name: "pending member", path: "/v1/stats/attendance", token: getToken(t, s, c.Pending), wantCode: http.StatusForbidden},
	})

	// without insight service
	s, env = setup(t)
	c = testutil.CreateChurch(t, env, "GRACE2024")
	req, rec = newAuthRequest(http.MethodGet, "/v1/stats/insight", getToken(t, s, c.Teacher))
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, stats.InsightNotConfigured, resp.Insight)
	assert.Equal(t, []stats.Point{{Date: "2024-05-05", Present: 1, Absent: 0, Rate: 100}}, resp.Points)
}
