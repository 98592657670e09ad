package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/pkg/auth"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CurrentUserKey gin context key：当前登录用户
const CurrentUserKey = "current_user"

// AccessTokenCookie access token cookie 名
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie refresh token cookie 名
const RefreshTokenCookie = "refreshToken"

// CurrentUser 认证后附加到请求上下文的用户信息
type CurrentUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserLoader 按 ID 加载用户，由 user 模块实现
type UserLoader interface {
	LoadUser(ctx context.Context, userID string) (*CurrentUser, error)
}

// AuthMiddleware 校验 access token（cookie 或 Authorization header）并加载用户。
// 管理端携带 Bearer header，店面端携带 httpOnly cookie，两者等价。
func AuthMiddleware(tokens *auth.Manager, loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if header := c.GetHeader("Authorization"); header != "" {
			token = strings.TrimPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
		} else if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
			token = cookie
		}

		if token == "" {
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid access token")
			return
		}

		user, err := loader.LoadUser(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			abortUnauthorized(c, "Invalid access token")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// RequireRoles 角色门禁，置于 AuthMiddleware 之后
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil {
			abortUnauthorized(c, "Authentication details not found")
			return
		}

		for _, role := range allowedRoles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		response.ErrorWithStatus(c, http.StatusForbidden, "Role '"+user.Role+"' is not authorized to access this route")
		c.Abort()
	}
}

// GetCurrentUser 读取认证中间件附加的用户，未认证时返回 nil
func GetCurrentUser(c *gin.Context) *CurrentUser {
	if v, ok := c.Get(CurrentUserKey); ok {
		if user, ok := v.(*CurrentUser); ok {
			return user
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, message string) {
	response.ErrorWithStatus(c, http.StatusUnauthorized, message)
	c.Abort()
}
