package services

import (
	"errors"
	"strconv"
	"time"

	"jejuboard/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// SessionIssuer 签发和校验无状态的 HS256 令牌，服务端不保存任何会话
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Issue 令牌在 [签发时间, 过期时间) 内有效
func (s *SessionIssuer) Issue(userID uint) (*Token, error) {
	now := s.now()
	// exp 只精确到秒，向上取整以免令牌提前失效
	expiresAt := now.Add(s.ttl)
	if frac := expiresAt.Sub(expiresAt.Truncate(time.Second)); frac > 0 {
		expiresAt = expiresAt.Add(time.Second - frac)
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperr.Internal("生成令牌失败", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Verify 返回令牌中的用户 ID，调用方仍需确认用户存在
func (s *SessionIssuer) Verify(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, apperr.Auth("请先登录。")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	// jwt 要求 now < exp，到期那一刻即失效
	if errors.Is(err, jwt.ErrTokenExpired) {
		return 0, apperr.Auth("令牌已过期。")
	}
	if err != nil {
		return 0, apperr.Auth("无效的令牌。")
	}

	if claims.Subject == "" {
		return 0, apperr.Auth("令牌信息不正确。")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Auth("令牌信息不正确。")
	}
	return uint(id), nil
}
