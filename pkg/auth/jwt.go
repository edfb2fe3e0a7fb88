package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// Claims carry the principal's identifier space next to the registered claims.
type Claims struct {
	Kind model.PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

type TokenService interface {
	Issue(p model.Principal) (token string, expiresAt time.Time, err error)
	Parse(token string) (model.Principal, error)
}

type jwtService struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) TokenService {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &jwtService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *jwtService) Issue(p model.Principal) (string, time.Time, error) {
	if p.Empty() {
		return "", time.Time{}, fmt.Errorf("cannot issue token: %w", ErrInvalidToken)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiry)
	claims := Claims{
		Kind: p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) Parse(token string) (model.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p := model.Principal{Kind: claims.Kind, Subject: claims.Subject}
	if p.Empty() {
		return model.Principal{}, ErrInvalidToken
	}
	return p, nil
}
