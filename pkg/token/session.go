// Package token 提供了会话 cookie 使用的签名令牌。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionManager 负责签发和校验携带会话 ID 的 JWT。
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
}

// SessionClaims 是会话令牌中保存的数据。
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionManager 创建一个新的 SessionManager 实例。
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secretKey: []byte(secret), ttl: ttl}
}

// TTL 返回令牌有效期。
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// NewSessionID 生成新的会话 ID。
func NewSessionID() string {
	return uuid.NewString()
}

// Issue 为会话 ID 签发令牌。
func (m *SessionManager) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// Verify 校验令牌并返回其中的会话 ID。
func (m *SessionManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.SessionID != "" {
		return claims.SessionID, nil
	}
	return "", errors.New("invalid session token")
}
