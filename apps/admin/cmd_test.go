package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core/user"
	"github.com/jihokim/haksa/storage/database/dummydb"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)

	migrateFunc = func(*gorm.DB) error { return nil }

	return &commandLine{usrRepo: usrRepo}
}

func createUser(t *testing.T, name, email, pwd string) user.User {
	t.Helper()

	usr := user.User{Name: name, Email: email, Role: user.RoleTeacher, SchoolID: 1, IsActive: true}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("setting password: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	existing := createUser(t, "Kim Minji", "minji@school.kr", "hunter22")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing school", args: []string{"adduser", "-name", "Admin", "-email", "admin@school.kr"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Admin", "-email", "admin@school.kr", "-school", "1"}, wantErr: errHelp},
		{name: "create admin", args: []string{"adduser", "-name", "Admin", "-email", "admin@school.kr", "-school", "1"}, pwd: "s3cr3tpwd"},
		{name: "promote existing", args: []string{"adduser", "-name", "Kim Minji", "-email", existing.Email, "-school", "1"}, pwd: "s3cr3tpwd"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "admin@school.kr"})
	if err != nil {
		t.Fatalf("finding created admin: %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("created user role = %s, want %s", usr.Role, user.RoleAdmin)
	}
	if err := usr.CheckPassword("s3cr3tpwd"); err != nil {
		t.Errorf("created admin password not set: %v", err)
	}

	promoted, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: existing.Email})
	if err != nil {
		t.Fatalf("finding promoted user: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Errorf("promoted user role = %s, want %s", promoted.Role, user.RoleAdmin)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "Lee Junho", "junho@school.kr", "oldpwd123")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@school.kr"}, pwd: "newpwd123", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "newpwd123"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: usr.Email})
	if err != nil {
		t.Fatalf("finding user: %v", err)
	}
	if err := usr.CheckPassword("newpwd123"); err != nil {
		t.Errorf("password was not reset: %v", err)
	}
}
