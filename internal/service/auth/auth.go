// Package auth 提供管理员访问码校验和令牌签发
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrasunaBista/zuzu/internal/config"
)

var (
	// ErrInvalidCode 访问码不匹配
	ErrInvalidCode = errors.New("invalid admin code")
	// ErrInvalidToken 令牌无效或过期
	ErrInvalidToken = errors.New("invalid token")
)

// Service 管理员认证服务
type Service struct {
	cfg    config.AdminConfig
	secret []byte
}

// NewService 创建认证服务
// 未配置 JWTSecret 时生成随机密钥，重启后旧令牌失效
func NewService(cfg config.AdminConfig) *Service {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12
	}
	return &Service{cfg: cfg, secret: []byte(secret)}
}

// VerifyCode 校验管理员访问码
// 优先比较 bcrypt 哈希；哈希未配置时退回明文比较（仅开发环境）
func (s *Service) VerifyCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidCode
	}

	if s.cfg.CodeHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.CodeHash), []byte(code)); err != nil {
			return ErrInvalidCode
		}
		return nil
	}

	if s.cfg.Code == "" {
		return ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(s.cfg.Code), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

// IssueToken 签发管理员令牌
func (s *Service) IssueToken(ctx context.Context) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.TokenTTL) * time.Hour)

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken 校验管理员令牌
func (s *Service) ValidateToken(ctx context.Context, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	if role, ok := claims["role"].(string); !ok || role != "admin" {
		return ErrInvalidToken
	}
	return nil
}
