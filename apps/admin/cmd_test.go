package main

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
	emailsvc "github.com/edusphere/backend/services/email"
	logsvc "github.com/edusphere/backend/services/logger"
	inmemdb "github.com/edusphere/backend/storage/database/inmem"
)

func TestMain(m *testing.M) {
	os.Setenv("ENV", "TEST")
	core.InitConfig()
	os.Exit(m.Run())
}

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.NewDB()
	usrSvc := user.NewService(
		inmemdb.NewUserRepository(db),
		inmemdb.NewPool(),
		cache.New(),
		emailsvc.NewConsoleServiceMock(),
		logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
	)
	return &commandLine{usrSvc: usrSvc}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string   // fed to the password prompt
	wantErr error
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing names", args: []string{"adduser", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "empty password", args: []string{"adduser", "-email", "awe@test.cd", "-first", "Awe", "-last", "Some"}, wantErr: errHelp},
		{name: "ok", args: []string{"adduser", "-email", "awe@test.cd", "-first", "Awe", "-last", "Some"}, pwd: "s3cretpass"},
		{name: "student role", args: []string{"adduser", "-email", "stud@test.cd", "-first", "Stu", "-last", "Dent", "-role", "student"}, pwd: "s3cretpass"},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the created teacher account can authenticate
	usr, err := cli.usrSvc.Authenticate(context.Background(), user.Credentials{
		Email:    "awe@test.cd",
		Password: "s3cretpass",
		Role:     user.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("Authenticate() failed, %v", err)
	}
	if !usr.TeacherID.Valid {
		t.Error("expected a teacher profile")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	if _, err := cli.usrSvc.Register(context.Background(), user.NewUser{
		FirstName: "Awe",
		LastName:  "Some",
		Email:     "awe@test.cd",
		Password:  "oldpass123",
		Role:      user.RoleStudent,
	}); err != nil {
		t.Fatalf("Register() failed, %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "empty password", args: []string{"resetpassword", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "ok", args: []string{"resetpassword", "-email", "awe@test.cd"}, pwd: "newpass123"},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	creds := user.Credentials{Email: "awe@test.cd", Password: "oldpass123", Role: user.RoleStudent}
	if _, err := cli.usrSvc.Authenticate(context.Background(), creds); err != user.ErrInvalidCredentials {
		t.Errorf("Authenticate() with the old password: error = %v, want %v", err, user.ErrInvalidCredentials)
	}
	creds.Password = "newpass123"
	if _, err := cli.usrSvc.Authenticate(context.Background(), creds); err != nil {
		t.Errorf("Authenticate() with the new password failed, %v", err)
	}
}
