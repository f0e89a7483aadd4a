package token

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer        = "credsync"
	defaultAccessExpiry  = 15 * time.Minute
	defaultRefreshExpiry = 24 * time.Hour
)

// Jwt mints and parses the HS256 tokens guarding the credential sync API.
type Jwt struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type Option func(*Jwt)

func WithIssuer(issuer string) Option {
	return func(j *Jwt) {
		j.Issuer = issuer
	}
}

func WithAccessExpiry(expiry time.Duration) Option {
	return func(j *Jwt) {
		j.AccessExpiry = expiry
	}
}

func WithRefreshExpiry(expiry time.Duration) Option {
	return func(j *Jwt) {
		j.RefreshExpiry = expiry
	}
}

func NewJwtService(secret string, opts ...Option) *Jwt {
	jwtSvc := &Jwt{
		Secret:        secret,
		Issuer:        defaultIssuer,
		AccessExpiry:  defaultAccessExpiry,
		RefreshExpiry: defaultRefreshExpiry,
	}

	for _, opt := range opts {
		opt(jwtSvc)
	}

	return jwtSvc
}

// Claims carries caller-defined claim data alongside the registered set.
type Claims struct {
	CustomClaims interface{} `json:"custom_claims,inline"`
	jwt.RegisteredClaims
}

// Token is an access/refresh pair.
type Token struct {
	AccessToken  string
	RefreshToken string
}

// TokenValue is one signed token with its expiry.
type TokenValue struct {
	Token  string
	Expiry time.Time
}

func (j Jwt) CreateTokenStr(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(j.Secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", err
	}
	return ss, nil
}

func (j Jwt) CreateToken(claimData interface{}) (Token, error) {
	accessToken, err := j.CreateAccessToken(claimData)
	if err != nil {
		slog.Error("Failed create access token!", "err", err)
		return Token{}, err
	}
	refreshToken, err := j.CreateRefreshToken(claimData)
	if err != nil {
		slog.Error("Failed create refresh token!", "err", err)
		return Token{}, err
	}
	return Token{
		AccessToken:  accessToken.Token,
		RefreshToken: refreshToken.Token,
	}, nil
}

func (j Jwt) CreateAccessToken(claimData interface{}) (TokenValue, error) {
	claims := j.newClaims(claimData, j.AccessExpiry)
	accessToken, err := j.CreateTokenStr(claims)
	return TokenValue{Token: accessToken, Expiry: claims.ExpiresAt.Time}, err
}

func (j Jwt) CreateRefreshToken(claimData interface{}) (TokenValue, error) {
	claims := j.newClaims(claimData, j.RefreshExpiry)
	refreshToken, err := j.CreateTokenStr(claims)
	return TokenValue{Token: refreshToken, Expiry: claims.ExpiresAt.Time}, err
}

func (j Jwt) newClaims(claimData interface{}, expiry time.Duration) Claims {
	now := time.Now().UTC()
	return Claims{
		claimData,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    j.Issuer,
			Subject:   j.Issuer,
			ID:        uuid.New().String(),
			Audience:  []string{"public"},
		},
	}
}

func (j Jwt) ParseTokenStr(tokenStr string) (*jwt.Token, error) {
	signingKey := []byte(j.Secret)
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		slog.Error("Failed parse JWT string!", "err", err)
		return token, err
	}
	claims := token.Claims.(jwt.MapClaims)
	customClaims := new(Claims)
	err = LoadFromMap(customClaims, claims)
	if err == nil && token.Valid {
		return token, nil
	}
	slog.Error("Failed parse token claims!", "err", err)
	return token, errors.New("failed_parse_token_claims")
}

// LoadFromMap converts parsed map claims back into a typed claims struct.
func LoadFromMap[T any](c *T, m map[string]interface{}) error {
	data, err := json.Marshal(m)
	if err == nil {
		err = json.Unmarshal(data, c)
	}
	return err
}
