package identity

import (
	"context"
	"strings"
)

// Profile 身份提供方给出的资料快照，只有事实，不做决策
type Profile struct {
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Username       *string  `json:"username"`
	EmailAddresses []string `json:"email_addresses" validate:"dive,email"`
	ImageURL       string   `json:"image_url"`
}

// Principal 已认证的外部主体
type Principal struct {
	ClerkID string  `validate:"required"`
	Profile Profile
}

// PrimaryEmail 第一个邮箱为主邮箱
func (p Profile) PrimaryEmail() string {
	if len(p.EmailAddresses) == 0 {
		return ""
	}
	return p.EmailAddresses[0]
}

// Handle 优先使用提供方用户名，否则取主邮箱 @ 之前的部分
func (p Profile) Handle() string {
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	email := p.PrimaryEmail()
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// DisplayName 名与姓拼接后去除首尾空白
func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type principalKey struct{}

// WithPrincipal 将主体附加到 ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext 取出主体；未认证时返回 nil
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
