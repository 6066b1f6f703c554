package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/repository"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	tokenIssuer       = "userboard"
)

type AuthService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	codec        *CredentialCodec
	jwtSecret    string
	jwtAlgorithm string
	sessionTTL   time.Duration
	dummyHash    string
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	codec *CredentialCodec,
	jwtSecret string,
	jwtAlgorithm string,
	sessionTTL time.Duration,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	// Verified against when the username is unknown so both failure paths
	// cost one hash derivation.
	dummyHash, err := codec.Hash("not-a-real-password")
	if err != nil {
		log.WithError(err).Warn("failed to prepare dummy credential")
	}

	return &AuthService{
		users:        users,
		sessions:     sessions,
		codec:        codec,
		jwtSecret:    jwtSecret,
		jwtAlgorithm: jwtAlgorithm,
		sessionTTL:   sessionTTL,
		dummyHash:    dummyHash,
	}
}

// SessionTTL is the lifetime of sessions created by Login.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login checks username/password and opens a session. It returns the
// signed session token to hand to the client. Failures wrap ErrAuthFailure
// as ErrNoSuchUser or ErrBadCredential.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.codec.Verify(password, s.dummyHash)
		return "", nil, ErrNoSuchUser
	}
	if err != nil {
		return "", nil, storeError("find user", err)
	}

	if !user.CheckCredential(s.codec, password) {
		return "", nil, ErrBadCredential
	}

	if s.codec.NeedsRehash(user.PasswordHash) {
		s.upgradeCredential(ctx, user, password)
	}

	session := domain.NewSession(user.ID, s.sessionTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, storeError("create session", err)
	}

	// Clean up expired sessions
	if err := s.sessions.DeleteExpired(ctx); err != nil {
		log.WithError(err).Warn("failed to delete expired sessions")
	}

	token, err := s.generateJWT(session)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Logout revokes the session behind token. Unknown, expired or malformed
// tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parseToken(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}

	err = s.sessions.Delete(ctx, claims.SessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeError("delete session", err)
	}
	return nil
}

// Authenticate resolves token to the user of a live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: session revoked", ErrAuthFailure)
	}
	if err != nil {
		return nil, storeError("find session", err)
	}

	if session.IsExpired() {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, fmt.Errorf("%w: session expired", ErrAuthFailure)
	}
	if claims.Subject != strconv.FormatInt(session.UserID, 10) {
		return nil, fmt.Errorf("%w: subject mismatch", ErrAuthFailure)
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user removed", ErrAuthFailure)
	}
	if err != nil {
		return nil, storeError("find user", err)
	}
	return user, nil
}

func (s *AuthService) upgradeCredential(ctx context.Context, user *domain.User, password string) {
	if err := user.SetCredential(s.codec, password); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("failed to rehash credential")
		return
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("failed to store rehashed credential")
		return
	}
	log.WithField("user_id", user.ID).Info("upgraded stored credential")
}

func (s *AuthService) parseToken(tokenString string, opts ...jwt.ParserOption) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if token.Method.Alg() != s.signingMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// generateJWT signs a token referencing session
func (s *AuthService) generateJWT(session *domain.Session) (string, error) {
	claims := SessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(session.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(s.signingMethod(), claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) signingMethod() jwt.SigningMethod {
	switch s.jwtAlgorithm {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// SessionClaims are the claims of a session token. Subject is the user id.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
