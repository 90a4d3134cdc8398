package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"microblog/internal/domain"

	"github.com/google/uuid"
)

// ErrInvalidSession indicates a missing, malformed, tampered or expired
// session token. Callers treat it as "anonymous", never as a server fault.
var ErrInvalidSession = errors.New("invalid session")

// sessionClaims is the signed token payload. The token is the only session
// state; there is no server-side session table.
type sessionClaims struct {
	UserID    int64  `json:"sub"`
	Username  string `json:"username"`
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// SessionService issues and validates stateless session tokens. A token is
// the JSON claims followed by an HMAC-SHA256 signature over them, the whole
// base64url-encoded. Any modification of the payload invalidates the
// signature.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a session service signing with the given secret.
// ttl is the explicit expiry window; tokens past half of it are reissued on
// access (idle renewal).
func NewSessionService(secret []byte, ttl time.Duration) *SessionService {
	return &SessionService{secret: secret, ttl: ttl}
}

// TTL returns the configured expiry window.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue binds the identity to a signed token.
func (s *SessionService) Issue(identity domain.Identity) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:    identity.ID,
		Username:  identity.Username,
		TokenID:   uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)

	return base64.RawURLEncoding.EncodeToString(append(payload, mac.Sum(nil)...)), nil
}

// Validate checks the token signature and expiry and returns the embedded
// identity. The token is parsed exactly once; when it is past half its
// lifetime a fresh replacement is also returned for the caller to reissue
// (idle renewal), empty otherwise. Returns ErrInvalidSession on any failure.
func (s *SessionService) Validate(token string) (domain.Identity, string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.Identity{}, "", err
	}
	identity := domain.Identity{ID: claims.UserID, Username: claims.Username}

	halfway := claims.IssuedAt + int64(s.ttl/time.Second)/2
	if time.Now().Unix() < halfway {
		return identity, "", nil
	}
	fresh, err := s.Issue(identity)
	if err != nil {
		// The current token is still good; skip renewal this round.
		return identity, "", nil
	}
	return identity, fresh, nil
}

func (s *SessionService) parse(token string) (sessionClaims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= sha256.Size {
		return sessionClaims{}, ErrInvalidSession
	}

	payload, sig := raw[:len(raw)-sha256.Size], raw[len(raw)-sha256.Size:]

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return sessionClaims{}, ErrInvalidSession
	}

	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return sessionClaims{}, ErrInvalidSession
	}
	if time.Now().Unix() >= claims.ExpiresAt {
		return sessionClaims{}, ErrInvalidSession
	}
	return claims, nil
}
