package utils

import (
	"strings"
	"testing"
)

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
		contains string
	}{
		{name: "valid", password: "Str0ng!Pass", wantErr: false},
		{name: "too short", password: "Ab1!", wantErr: true, contains: "at least 8 characters"},
		{name: "no uppercase", password: "weakpass1!", wantErr: true, contains: "uppercase"},
		{name: "no lowercase", password: "WEAKPASS1!", wantErr: true, contains: "lowercase"},
		{name: "no digit", password: "Weakpass!!", wantErr: true, contains: "number"},
		{name: "no symbol", password: "Weakpass11", wantErr: true, contains: "special character"},
		{name: "classic weak", password: "abc123", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tc.password)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q, got nil", tc.password)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.password, err)
			}
			if tc.contains != "" && !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.contains)
			}
		})
	}
}

func TestValidatePasswordStrength_CollectsAllViolations(t *testing.T) {
	err := ValidatePasswordStrength("abc")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"at least 8 characters", "uppercase", "number", "special character"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing violation %q", msg, want)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "Str0ng!Pass" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "Str0ng!Pass") {
		t.Fatal("CheckPassword rejected correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("CheckPassword accepted wrong password")
	}
}
