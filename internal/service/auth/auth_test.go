package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/PrasunaBista/zuzu/internal/config"
)

func TestVerifyCode_PlainFallback(t *testing.T) {
	svc := NewService(config.AdminConfig{Code: "letmein", JWTSecret: "test-secret"})
	ctx := context.Background()

	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "correct code", code: "letmein", wantErr: false},
		{name: "correct code with spaces", code: "  letmein  ", wantErr: false},
		{name: "wrong code", code: "wrong", wantErr: true},
		{name: "empty code", code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyCode(ctx, tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestVerifyCode_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	// 哈希配置时明文 Code 不参与比较
	svc := NewService(config.AdminConfig{
		CodeHash:  string(hash),
		Code:      "decoy",
		JWTSecret: "test-secret",
	})
	ctx := context.Background()

	if err := svc.VerifyCode(ctx, "s3cret"); err != nil {
		t.Errorf("VerifyCode with matching hash: %v", err)
	}
	if err := svc.VerifyCode(ctx, "decoy"); err != ErrInvalidCode {
		t.Errorf("VerifyCode(decoy) = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyCode_NothingConfigured(t *testing.T) {
	svc := NewService(config.AdminConfig{JWTSecret: "test-secret"})
	if err := svc.VerifyCode(context.Background(), "anything"); err != ErrInvalidCode {
		t.Errorf("VerifyCode() = %v, want ErrInvalidCode", err)
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewService(config.AdminConfig{JWTSecret: "test-secret", TokenTTL: 1})
	ctx := context.Background()

	token, expiresAt, err := svc.IssueToken(ctx)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if token == "" {
		t.Fatal("IssueToken returned empty token")
	}
	if until := time.Until(expiresAt); until <= 0 || until > time.Hour {
		t.Errorf("expiresAt = %v, want within one hour", expiresAt)
	}

	if err := svc.ValidateToken(ctx, token); err != nil {
		t.Errorf("ValidateToken: %v", err)
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := NewService(config.AdminConfig{JWTSecret: "test-secret", TokenTTL: 1})
	other := NewService(config.AdminConfig{JWTSecret: "other-secret", TokenTTL: 1})
	ctx := context.Background()

	foreign, _, err := other.IssueToken(ctx)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.ValidateToken(ctx, tt.token); err != ErrInvalidToken {
				t.Errorf("ValidateToken() = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewService_GeneratesSecretWhenMissing(t *testing.T) {
	svc := NewService(config.AdminConfig{})
	if len(svc.secret) == 0 {
		t.Fatal("secret not generated")
	}

	token, _, err := svc.IssueToken(context.Background())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := svc.ValidateToken(context.Background(), token); err != nil {
		t.Errorf("ValidateToken: %v", err)
	}
}
