package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/jihokim/haksa/core/grades"
	"github.com/jihokim/haksa/core/user"
)

func Test_gradesApi_create(t *testing.T) {
	teacher := createUser(t, "Teacher Han", "han.gr.create@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Seo Yuna", "yuna.gr.create@school.kr", user.RoleStudent, 1, true)
	st := createStudent(t, stUsr)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, stUsr)
	path := fmt.Sprintf("/v1/students/%d/grades", st.ID)

	body := func(year int, items ...grades.NewGradeItem) []byte {
		return marchallObj(t, map[string]interface{}{"school_year": year, "grades": items})
	}

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: path, token: studentToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid semester", path: path, token: teacherToken, wantCode: http.StatusBadRequest,
			body: body(2026, grades.NewGradeItem{Semester: 3, Subject: "Math", Score: 88}),
		},
		{
			name: "Unknown student", path: "/v1/students/9999/grades", token: teacherToken, wantCode: http.StatusNotFound,
			body: body(2026, grades.NewGradeItem{Semester: 1, Subject: "Math", Score: 88}),
		},
		{
			name: "Created", path: path, token: teacherToken, wantCode: http.StatusCreated,
			body: body(2026,
				grades.NewGradeItem{Semester: 1, Subject: "Math", Score: 88},
				grades.NewGradeItem{Semester: 1, Subject: "Korean", Score: 92},
			),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_gradesApi_updateAndQuery(t *testing.T) {
	teacher := createUser(t, "Teacher Han", "han.gr.update@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Jang Woojin", "woojin.gr.update@school.kr", user.RoleStudent, 1, true)
	parent := createUser(t, "Jang Hyunwoo", "hyunwoo.gr.update@school.kr", user.RoleParent, 1, true)
	st := createStudent(t, stUsr)
	if err := studentSvc.AttachParent(stUsr.ID, parent.ID); err != nil {
		t.Fatalf("attaching parent: %v", err)
	}

	teacherToken := getToken(t, teacher)
	path := fmt.Sprintf("/v1/students/%d/grades", st.ID)

	req, rec := newAuthRequest(http.MethodPost, path, teacherToken, marchallObj(t, map[string]interface{}{
		"school_year": 2026,
		"grades":      []grades.NewGradeItem{{Semester: 1, Subject: "Science", Score: 75}},
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding grades: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var seeded []grades.Grade
	if err := json.Unmarshal(rec.Body.Bytes(), &seeded); err != nil {
		t.Fatalf("decoding seeded grades: %v", err)
	}

	count := func(t *testing.T, path, token string, wantCode, wantLen int) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("code = %v; want %v (body %s)", rec.Code, wantCode, rec.Body.String())
		}
		if wantCode != http.StatusOK {
			return
		}
		var gds []grades.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &gds); err != nil {
			t.Fatalf("decoding grades: %v", err)
		}
		if len(gds) != wantLen {
			t.Errorf("len = %d; want %d", len(gds), wantLen)
		}
	}

	t.Run("teacher updates a score", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, fmt.Sprintf("/v1/grades/%d", seeded[0].ID), teacherToken,
			marchallObj(t, map[string]interface{}{"score": 81}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var gd grades.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &gd); err != nil {
			t.Fatalf("decoding grade: %v", err)
		}
		if gd.Score != 81 {
			t.Errorf("score = %d; want 81", gd.Score)
		}
	})
	t.Run("score out of range rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, fmt.Sprintf("/v1/grades/%d", seeded[0].ID), teacherToken,
			marchallObj(t, map[string]interface{}{"score": 101}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})
	t.Run("teacher by student", func(t *testing.T) {
		count(t, path+"?school_year=2026", teacherToken, http.StatusOK, 1)
	})
	t.Run("student sees own", func(t *testing.T) {
		count(t, "/v1/grades/mine?school_year=2026", getToken(t, stUsr), http.StatusOK, 1)
	})
	t.Run("parent sees child's", func(t *testing.T) {
		count(t, "/v1/grades/child?school_year=2026", getToken(t, parent), http.StatusOK, 1)
	})
	t.Run("teacher cannot use student endpoint", func(t *testing.T) {
		count(t, "/v1/grades/mine?school_year=2026", teacherToken, http.StatusForbidden, 0)
	})
}
