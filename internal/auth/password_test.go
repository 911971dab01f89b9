package auth

import (
	"strings"
	"testing"

	"github.com/mrlokans/library/internal/apperr"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "secret123", wantErr: nil},
		{name: "password too short", password: "abc", wantErr: ErrPasswordTooShort},
		{name: "password at minimum length", password: "123456", wantErr: nil},
		{name: "password too long", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
		{name: "password at maximum length", password: strings.Repeat("a", 72), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 4)
			if err != tt.wantErr {
				t.Fatalf("HashPassword() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !strings.HasPrefix(hash, "$2a$") {
				t.Errorf("HashPassword() returned %q, want a bcrypt hash", hash)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword("correct-horse", hash); err != nil {
		t.Errorf("CheckPassword() with the right password = %v, want nil", err)
	}
	if err := CheckPassword("battery-staple", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() with the wrong password = %v, want ErrInvalidPassword", err)
	}
	if err := CheckPassword("correct-horse", "not-a-hash"); err == nil || err == ErrInvalidPassword {
		t.Errorf("CheckPassword() with a malformed hash = %v, want a bcrypt error", err)
	}
}

func TestPasswordError(t *testing.T) {
	if got := apperr.MessageOf(PasswordError(ErrPasswordTooShort)); got != "Password must be at least 6 characters long" {
		t.Errorf("unexpected message %q", got)
	}
	if apperr.KindOf(PasswordError(ErrPasswordTooLong)) != apperr.KindValidation {
		t.Error("too long should be a validation error")
	}
	if apperr.KindOf(PasswordError(ErrInvalidPassword)) != apperr.KindInternal {
		t.Error("unexpected errors should be internal")
	}
}
