package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jihokim/haksa/core/user"
)

func signInBody(t *testing.T, email, pwd string) []byte {
	return marchallObj(t, map[string]string{"email": email, "password": pwd})
}

func Test_userApi_signIn(t *testing.T) {
	usr := createUser(t, "Teacher Park", "park.signin@school.kr", user.RoleTeacher, 1, true)
	naughty := createUser(t, "N Dog", "ndog.signin@school.kr", user.RoleStudent, 1, false)

	tests := []httpTest{
		{
			name: "Unknown email", body: signInBody(t, "lol@school.kr", "s3cr3tpwd"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", body: signInBody(t, usr.Email, "wrongpwd"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", body: signInBody(t, naughty.Email, "s3cr3tpwd"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Signed in", body: signInBody(t, usr.Email, "s3cr3tpwd"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/sign-in"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_tokenLifecycle(t *testing.T) {
	usr := createUser(t, "Teacher Yoon", "yoon.token@school.kr", user.RoleTeacher, 1, true)

	// sign in to obtain both tokens
	req, rec := newRequest(http.MethodPost, "/v1/users/sign-in", signInBody(t, usr.Email, "s3cr3tpwd"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var signedIn struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &signedIn); err != nil {
		t.Fatalf("decoding sign-in response: %v", err)
	}
	if signedIn.Token == "" || signedIn.RefreshToken == "" {
		t.Fatal("sign-in did not return both tokens")
	}

	refreshBody := marchallObj(t, map[string]string{"refresh_token": signedIn.RefreshToken})

	t.Run("refresh issues a new access token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token", refreshBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("garbage refresh token rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token", marchallObj(t, map[string]string{"refresh_token": "lol"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("sign-out revokes the refresh token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/sign-out", signedIn.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("sign-out: code = %v", rec.Code)
		}

		req, rec = newRequest(http.MethodPost, "/v1/users/token", refreshBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})
}

func Test_userApi_signUp(t *testing.T) {
	admin := createUser(t, "Admin Seo", "seo.signup@school.kr", user.RoleAdmin, 1, true)
	teacher := createUser(t, "Teacher Park", "park.signup@school.kr", user.RoleTeacher, 1, true)

	newUserBody := func(name, email, role string) []byte {
		return marchallObj(t, map[string]interface{}{
			"name": name, "email": email, "role": role,
			"password": "s3cr3tpwd", "password_confirm": "s3cr3tpwd",
			"school_id": 1, "grade": 1, "grade_class": 2, "number": 3,
		})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, teacher), wantCode: http.StatusForbidden,
			body:     newUserBody("Kim Minji", "minji.signup@school.kr", user.RoleStudent),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid role", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: newUserBody("Kim Minji", "minji.signup@school.kr", "JANITOR"),
		},
		{
			name: "Student created with profile", token: getToken(t, admin), wantCode: http.StatusCreated,
			body: newUserBody("Kim Minji", "minji.signup@school.kr", user.RoleStudent),
		},
		{
			name: "Duplicate email rejected", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: newUserBody("Kim Minji", "minji.signup@school.kr", user.RoleStudent),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/sign-up"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the created student owns a profile
	usr, err := usrSvc.GetByEmail("minji.signup@school.kr")
	if err != nil {
		t.Fatalf("finding created user: %v", err)
	}
	st, err := studentSvc.GetByUserID(usr.ID)
	if err != nil {
		t.Fatalf("finding student profile: %v", err)
	}
	if st.Grade != 1 || st.GradeClass != 2 || st.Number != 3 {
		t.Errorf("student profile = %+v; want grade 1, class 2, number 3", st)
	}
}

func Test_userApi_parentSignUp(t *testing.T) {
	stUsr := createUser(t, "Lee Junho", "junho.psignup@school.kr", user.RoleStudent, 1, true)
	st := createStudent(t, stUsr)

	body := func(email string, studentID uint) []byte {
		return marchallObj(t, map[string]interface{}{
			"name": "Lee Sanghoon", "email": email,
			"password": "s3cr3tpwd", "password_confirm": "s3cr3tpwd",
			"student_id": studentID,
		})
	}

	tests := []httpTest{
		{name: "Unknown student", body: body("sanghoon.psignup@school.kr", 9999), wantCode: http.StatusBadRequest},
		{name: "Registered", body: body("sanghoon.psignup@school.kr", st.ID), wantCode: http.StatusCreated},
		{name: "Duplicate email", body: body("sanghoon.psignup@school.kr", st.ID), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/parent-sign-up"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the parent is linked to the student
	parent, err := usrSvc.GetByEmail("sanghoon.psignup@school.kr")
	if err != nil {
		t.Fatalf("finding parent: %v", err)
	}
	if !parent.IsParent() {
		t.Errorf("parent role = %s; want %s", parent.Role, user.RoleParent)
	}
	linked, err := studentSvc.GetByParentUserID(parent.ID)
	if err != nil {
		t.Fatalf("finding linked student: %v", err)
	}
	if linked.ID != st.ID {
		t.Errorf("linked student = %d; want %d", linked.ID, st.ID)
	}
}

func Test_userApi_query(t *testing.T) {
	admin := createUser(t, "Admin Seo", "seo.uquery@school.kr", user.RoleAdmin, 1, true)
	createUser(t, "Teacher Hwang", "hwang.uquery@school.kr", user.RoleTeacher, 1, true)
	adminToken := getToken(t, admin)

	query := func(t *testing.T, path string) []user.User {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v (body %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var users []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("decoding users: %v", err)
		}
		return users
	}

	t.Run("admin required", func(t *testing.T) {
		teacher, err := usrSvc.GetByEmail("hwang.uquery@school.kr")
		if err != nil {
			t.Fatalf("finding teacher: %v", err)
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})
	t.Run("search is trimmed", func(t *testing.T) {
		users := query(t, "/v1/users?search=%20Hwang%20")
		if len(users) != 1 {
			t.Fatalf("len = %d; want 1", len(users))
		}
		if users[0].Email != "hwang.uquery@school.kr" {
			t.Errorf("email = %s; want hwang.uquery@school.kr", users[0].Email)
		}
	})
	t.Run("role filter is case-insensitive", func(t *testing.T) {
		users := query(t, "/v1/users?search=uquery&role=teacher")
		if len(users) != 1 {
			t.Errorf("len = %d; want 1", len(users))
		}
	})
	t.Run("no match", func(t *testing.T) {
		if users := query(t, "/v1/users?search=nobody.uquery"); len(users) != 0 {
			t.Errorf("len = %d; want 0", len(users))
		}
	})
}
