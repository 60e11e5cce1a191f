package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jihokim/haksa/core/feedback"
	"github.com/jihokim/haksa/core/user"
)

func Test_feedbackApi_create(t *testing.T) {
	teacher := createUser(t, "Teacher Park", "park.fb.create@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Kim Minji", "minji.fb.create@school.kr", user.RoleStudent, 1, true)
	st := createStudent(t, stUsr)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, stUsr)
	path := fmt.Sprintf("/v1/students/%d/feedback", st.ID)

	body := func(year int, items ...feedback.NewEntryItem) []byte {
		return marchallObj(t, map[string]interface{}{"school_year": year, "feedback": items})
	}

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: path, token: studentToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Missing inputs", path: path, token: teacherToken, body: marchallObj(t, map[string]interface{}{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid category", path: path, token: teacherToken, wantCode: http.StatusBadRequest,
			body: body(2026, feedback.NewEntryItem{Category: "VIBES", Content: "immaculate"}),
		},
		{
			name: "Duplicate category in batch", path: path, token: teacherToken, wantCode: http.StatusBadRequest,
			body: body(2026,
				feedback.NewEntryItem{Category: feedback.CategoryBehavior, Content: "a"},
				feedback.NewEntryItem{Category: feedback.CategoryBehavior, Content: "b"},
			),
		},
		{
			name: "Unknown student", path: "/v1/students/9999/feedback", token: teacherToken, wantCode: http.StatusNotFound,
			body: body(2026, feedback.NewEntryItem{Category: feedback.CategoryBehavior, Content: "a"}),
		},
		{
			name: "Created", path: path, token: teacherToken, wantCode: http.StatusCreated,
			body: body(2026,
				feedback.NewEntryItem{Category: feedback.CategoryBehavior, Content: "Respectful in class"},
				feedback.NewEntryItem{Category: feedback.CategoryAcademic, Content: "Strong in math"},
			),
		},
		{
			name: "Existing category rejected", path: path, token: teacherToken, wantCode: http.StatusBadRequest,
			body: body(2026, feedback.NewEntryItem{Category: feedback.CategoryBehavior, Content: "again"}),
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

func Test_feedbackApi_update(t *testing.T) {
	teacher := createUser(t, "Teacher Park", "park.fb.update@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Lee Junho", "junho.fb.update@school.kr", user.RoleStudent, 1, true)
	st := createStudent(t, stUsr)

	teacherToken := getToken(t, teacher)
	path := fmt.Sprintf("/v1/students/%d/feedback", st.ID)

	// seed the year's entries
	req, rec := newAuthRequest(http.MethodPost, path, teacherToken, marchallObj(t, map[string]interface{}{
		"school_year": 2026,
		"feedback": []feedback.NewEntryItem{
			{Category: feedback.CategoryBehavior, Content: "Respectful in class"},
			{Category: feedback.CategoryAcademic, Content: "Strong in math"},
		},
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding feedback: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var entries []feedback.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding seeded entries: %v", err)
	}
	tokens := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		tokens[e.Category] = e.UpdatedAt
	}

	body := func(items ...feedback.UpdateItem) []byte {
		return marchallObj(t, map[string]interface{}{"school_year": 2026, "feedback": items})
	}

	t.Run("Missing version token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken,
			body(feedback.UpdateItem{Category: feedback.CategoryBehavior, Content: "changed"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Stale token conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken, body(
			feedback.UpdateItem{Category: feedback.CategoryBehavior, Content: "ok", UpdatedAt: tokens[feedback.CategoryBehavior]},
			feedback.UpdateItem{Category: feedback.CategoryAcademic, Content: "stale", UpdatedAt: tokens[feedback.CategoryAcademic].Add(-time.Minute)},
		))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusConflict)
		}

		// nothing changed, matching item included
		req, rec = newAuthRequest(http.MethodGet, path+"?school_year=2026", teacherToken)
		app.ServeHTTP(rec, req)
		var fresh []feedback.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &fresh); err != nil {
			t.Fatalf("decoding entries: %v", err)
		}
		for _, e := range fresh {
			if e.Content == "ok" || e.Content == "stale" {
				t.Errorf("entry %s was modified by a failed batch", e.Category)
			}
		}
	})

	t.Run("Fresh tokens update the batch", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken, body(
			feedback.UpdateItem{Category: feedback.CategoryBehavior, Content: "More talkative lately", UpdatedAt: tokens[feedback.CategoryBehavior]},
			feedback.UpdateItem{Category: feedback.CategoryAcademic, Content: "Improving in writing", UpdatedAt: tokens[feedback.CategoryAcademic]},
		))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body = %s", rec.Code, rec.Body.String())
		}

		var fresh []feedback.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &fresh); err != nil {
			t.Fatalf("decoding entries: %v", err)
		}
		for _, e := range fresh {
			if !e.UpdatedAt.After(tokens[e.Category]) {
				t.Errorf("entry %s version token was not advanced", e.Category)
			}
		}
	})

	t.Run("Replayed token conflicts", func(t *testing.T) {
		// the pre-update token is now stale
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken,
			body(feedback.UpdateItem{Category: feedback.CategoryBehavior, Content: "lost update", UpdatedAt: tokens[feedback.CategoryBehavior]}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusConflict)
		}
	})
}

func Test_feedbackApi_query(t *testing.T) {
	teacher := createUser(t, "Teacher Park", "park.fb.query@school.kr", user.RoleTeacher, 1, true)
	stUsr := createUser(t, "Choi Haneul", "haneul.fb.query@school.kr", user.RoleStudent, 1, true)
	parent := createUser(t, "Choi Sungmin", "sungmin.fb.query@school.kr", user.RoleParent, 1, true)
	other := createUser(t, "Unlinked Parent", "unlinked.fb.query@school.kr", user.RoleParent, 1, true)
	st := createStudent(t, stUsr)
	if err := studentSvc.AttachParent(stUsr.ID, parent.ID); err != nil {
		t.Fatalf("attaching parent: %v", err)
	}

	teacherToken := getToken(t, teacher)
	path := fmt.Sprintf("/v1/students/%d/feedback", st.ID)

	req, rec := newAuthRequest(http.MethodPost, path, teacherToken, marchallObj(t, map[string]interface{}{
		"school_year": 2026,
		"feedback":    []feedback.NewEntryItem{{Category: feedback.CategoryAttendance, Content: "No absences"}},
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding feedback: code = %v", rec.Code)
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
		var entries []feedback.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("decoding entries: %v", err)
		}
		if len(entries) != wantLen {
			t.Errorf("len = %d; want %d", len(entries), wantLen)
		}
	}

	t.Run("teacher by student", func(t *testing.T) {
		count(t, path+"?school_year=2026", teacherToken, http.StatusOK, 1)
	})
	t.Run("other school year empty", func(t *testing.T) {
		count(t, path+"?school_year=2024", teacherToken, http.StatusOK, 0)
	})
	t.Run("student sees own", func(t *testing.T) {
		count(t, "/v1/feedback/mine?school_year=2026", getToken(t, stUsr), http.StatusOK, 1)
	})
	t.Run("parent sees child's", func(t *testing.T) {
		count(t, "/v1/feedback/child?school_year=2026", getToken(t, parent), http.StatusOK, 1)
	})
	t.Run("unlinked parent not found", func(t *testing.T) {
		count(t, "/v1/feedback/child?school_year=2026", getToken(t, other), http.StatusNotFound, 0)
	})
	t.Run("teacher cannot use student endpoint", func(t *testing.T) {
		count(t, "/v1/feedback/mine?school_year=2026", teacherToken, http.StatusForbidden, 0)
	})
}
