package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// maxTokenBytes bounds the input handed to the JWT parser.
const maxTokenBytes = 8 << 10

// Claims is the identity recovered from a verified token.
type Claims struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token has no expiry
	Issuer    string
}

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
}

// NewManager builds a Manager. The secret must be at least MinSecretBytes long.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSecretMissing
	}
	if len(cfg.Secret) < MinSecretBytes {
		return nil, ErrSecretTooShort
	}
	if cfg.TTL < 0 || cfg.ClockSkew < 0 {
		return nil, ErrConfig
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Manager{
		secret:    secret,
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
	}, nil
}

// Issue signs a token whose subject is userID.
func (m *Manager) Issue(userID int64, now time.Time) (string, error) {
	if userID <= 0 {
		return "", errors.New("token: user id must be positive")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		Issuer:   m.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature, algorithm, issuer and time claims, then extracts the subject.
// Every failure is a *VerificationError.
func (m *Manager) Verify(tokenStr string, now time.Time) (Claims, error) {
	if tokenStr == "" || len(tokenStr) > maxTokenBytes {
		return Claims{}, &VerificationError{Kind: KindMalformed}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Build a fresh parser per call; options capture now.
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var rc jwt.RegisteredClaims
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &rc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if !parsed.Valid {
		return Claims{}, &VerificationError{Kind: KindBadSignature}
	}

	uid, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return Claims{}, &VerificationError{Kind: KindInvalidClaims, Cause: errors.New("subject is not a user id")}
	}

	out := Claims{
		UserID: uid,
		Issuer: rc.Issuer,
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &VerificationError{Kind: KindMalformed, Cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerificationError{Kind: KindBadSignature, Cause: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerificationError{Kind: KindExpired, Cause: err}
	default:
		return &VerificationError{Kind: KindInvalidClaims, Cause: err}
	}
}
