// Package google 通过 Google 官方库校验 ID token
package google

import (
	"context"
	"errors"

	"github.com/wyfcoding/ecommerce/internal/user/application"
	"google.golang.org/api/idtoken"
)

// Verifier 调用 Google 的公钥端点校验 ID token 签名与 audience
type Verifier struct {
	clientID string
}

// NewVerifier 创建校验器，clientID 为 OAuth 客户端 ID（audience）
func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify 校验 ID token 并提取身份信息
func (v *Verifier) Verify(ctx context.Context, token string) (*application.GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, err
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("google id token missing email claim")
	}
	name, _ := payload.Claims["name"].(string)

	return &application.GoogleIdentity{
		Subject: payload.Subject,
		Email:   email,
		Name:    name,
	}, nil
}
