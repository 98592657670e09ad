// Package auth 提供 HS256 access/refresh token 的签发与解析
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token 无效（签名错误、过期或结构异常）
var ErrInvalidToken = errors.New("invalid token")

// Claims access token 的自定义声明
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Manager token 管理器，持有两套密钥与有效期
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewManager 创建 token 管理器
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GenerateAccessToken 签发短时效 access token
func (m *Manager) GenerateAccessToken(userID, email, name string) (string, error) {
	return generate(m.accessSecret, m.accessTTL, Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
	})
}

// GenerateRefreshToken 签发长时效 refresh token，仅携带用户 ID
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return generate(m.refreshSecret, m.refreshTTL, Claims{UserID: userID})
}

// ParseAccessToken 解析并校验 access token
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return parse(tokenString, m.accessSecret)
}

// ParseRefreshToken 解析并校验 refresh token，返回用户 ID
func (m *Manager) ParseRefreshToken(tokenString string) (string, error) {
	claims, err := parse(tokenString, m.refreshSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func generate(secret []byte, ttl time.Duration, claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
