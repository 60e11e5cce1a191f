package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/user"
)

func Test_consultationApi(t *testing.T) {
	teacher := createUser(t, "Teacher Oh", "oh.cons@school.kr", user.RoleTeacher, 1, true)
	otherTeacher := createUser(t, "Teacher Bae", "bae.cons@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Kang Dain", "dain.cons@school.kr", user.RoleStudent, 1, true)
	parent := createUser(t, "Kang Jiho", "jiho.cons@school.kr", user.RoleParent, 1, true)
	st := createStudent(t, stUsr)

	teacherToken := getToken(t, teacher)
	parentToken := getToken(t, parent)
	scheduledAt := time.Now().Add(48 * time.Hour).UTC()

	body := marchallObj(t, map[string]interface{}{
		"student_id":   st.ID,
		"teacher_id":   teacher.ID,
		"subject":      "Midterm results",
		"content":      "I would like to discuss the math score.",
		"scheduled_at": scheduledAt,
	})

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/consultations", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken)},
		{
			name: "Parent required", method: http.MethodPost, path: "/v1/consultations", token: teacherToken,
			body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Missing subject", method: http.MethodPost, path: "/v1/consultations", token: parentToken,
			body: marchallObj(t, map[string]interface{}{
				"student_id": st.ID, "teacher_id": teacher.ID, "scheduled_at": scheduledAt,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Requested", method: http.MethodPost, path: "/v1/consultations", token: parentToken,
			body: body, wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	query := func(t *testing.T, token string, wantCode, wantLen int) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/consultations", token)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("code = %v; want %v (body %s)", rec.Code, wantCode, rec.Body.String())
		}
		if wantCode != http.StatusOK {
			return
		}
		var cs []consultation.Consultation
		if err := json.Unmarshal(rec.Body.Bytes(), &cs); err != nil {
			t.Fatalf("decoding consultations: %v", err)
		}
		if len(cs) != wantLen {
			t.Errorf("len = %d; want %d", len(cs), wantLen)
		}
	}

	t.Run("teacher sees addressed requests", func(t *testing.T) {
		query(t, teacherToken, http.StatusOK, 1)
	})
	t.Run("parent sees own requests", func(t *testing.T) {
		query(t, parentToken, http.StatusOK, 1)
	})
	t.Run("student cannot list", func(t *testing.T) {
		query(t, getToken(t, stUsr), http.StatusForbidden, 0)
	})

	// grab the created consultation for the status flow
	req, rec := newAuthRequest(http.MethodGet, "/v1/consultations", teacherToken)
	app.ServeHTTP(rec, req)
	var cs []consultation.Consultation
	if err := json.Unmarshal(rec.Body.Bytes(), &cs); err != nil {
		t.Fatalf("decoding consultations: %v", err)
	}
	path := fmt.Sprintf("/v1/consultations/%d", cs[0].ID)

	t.Run("other teacher cannot update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, otherTeacher),
			marchallObj(t, map[string]interface{}{"status": consultation.StatusApproved}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
	t.Run("invalid status rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken,
			marchallObj(t, map[string]interface{}{"status": "MAYBE"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})
	t.Run("addressed teacher approves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken,
			marchallObj(t, map[string]interface{}{"status": consultation.StatusApproved}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var c consultation.Consultation
		if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
			t.Fatalf("decoding consultation: %v", err)
		}
		if c.Status != consultation.StatusApproved {
			t.Errorf("status = %s; want %s", c.Status, consultation.StatusApproved)
		}
	})
}
