package util

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestVerifyToken(t *testing.T) {
	if !VerifyToken("abc", "abc") {
		t.Fatal("matching token rejected")
	}
	if VerifyToken("abc", "abd") {
		t.Fatal("mismatching token accepted")
	}
	if VerifyToken("", "abc") {
		t.Fatal("empty token accepted")
	}
	if VerifyToken("abc", "") {
		t.Fatal("unset admin token must reject everything")
	}
}

func TestVerifyPassword_Plain(t *testing.T) {
	if !VerifyPassword("hunter2", "hunter2", "") {
		t.Fatal("matching password rejected")
	}
	if VerifyPassword("hunter3", "hunter2", "") {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("", "hunter2", "") {
		t.Fatal("empty attempt accepted")
	}
	if VerifyPassword("anything", "", "") {
		t.Fatal("unconfigured password must reject everything")
	}
}

func TestVerifyPassword_HashWinsOverPlain(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	if !VerifyPassword("correct horse", "", string(hash)) {
		t.Fatal("matching hash rejected")
	}
	if VerifyPassword("wrong", "wrong", string(hash)) {
		t.Fatal("hash must take precedence over the plain password")
	}
}
