package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Claims 身份提供方会话令牌声明
type Claims struct {
	jwt.RegisteredClaims
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Username       *string  `json:"username"`
	EmailAddresses []string `json:"email_addresses"`
	ImageURL       string   `json:"image_url"`
}

// Verifier 校验 HS256 会话令牌并还原 Principal
type Verifier struct {
	secret   []byte
	issuer   string
	validate *validator.Validate
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, validate: validator.New()}
}

// Verify 解析令牌；签名、过期、签发方或声明不合法均返回 ErrInvalidToken
func (v *Verifier) Verify(raw string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p := &Principal{
		ClerkID: claims.Subject,
		Profile: Profile{
			FirstName:      claims.FirstName,
			LastName:       claims.LastName,
			Username:       claims.Username,
			EmailAddresses: claims.EmailAddresses,
			ImageURL:       claims.ImageURL,
		},
	}
	if err := v.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p, nil
}

// Sign 按同样的声明格式签发令牌，供本地联调和测试使用
func (v *Verifier) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken 从 Authorization 头中取出令牌
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
