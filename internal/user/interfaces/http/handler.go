// Package http 用户模块的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/user/application"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CookiePolicy token cookie 的下发策略。
// 生产环境跨站部署要求 Secure + SameSite=None，开发环境用 Lax。
type CookiePolicy struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// UserHandler 用户 HTTP 处理器
type UserHandler struct {
	service *application.UserService
	cookies CookiePolicy
}

// NewUserHandler 创建用户处理器
func NewUserHandler(service *application.UserService, cookies CookiePolicy) *UserHandler {
	return &UserHandler{service: service, cookies: cookies}
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authed gin.HandlerFunc) {
	users := rg.Group("/user")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/google-login", h.GoogleLogin)
		users.POST("/refresh-token", h.RefreshToken)

		users.POST("/logout", authed, h.Logout)
		users.GET("/me", authed, h.Me)
		users.PATCH("/change-password", authed, h.ChangePassword)
		users.PATCH("/update-account", authed, h.UpdateAccount)
	}
}

type addressRequest struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"isDefault"`
}

func toAddresses(in []addressRequest) []domain.Address {
	out := make([]domain.Address, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Address{
			Street:    a.Street,
			City:      a.City,
			State:     a.State,
			Country:   a.Country,
			Pincode:   a.Pincode,
			IsDefault: a.IsDefault,
		})
	}
	return out
}

type registerRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	PhoneNo  string           `json:"phoneNo"`
	Address  []addressRequest `json:"address"`
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), application.RegisterCommand{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		PhoneNo:   req.PhoneNo,
		Addresses: toAddresses(req.Address),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, user, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 登录，token 对同时写入 cookie 与响应体
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.Success(c, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// GoogleLogin Google 联合登录
func (h *UserHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, pair, err := h.service.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.Success(c, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// RefreshToken 用 cookie 或请求体中的 refresh token 轮换 token 对
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	_, pair, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.Success(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

// Logout 登出并清除 cookie
func (h *UserHandler) Logout(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if err := h.service.Logout(c.Request.Context(), user.ID); err != nil {
		h.writeError(c, err)
		return
	}

	h.clearTokenCookies(c)
	response.Success(c, nil, "User logged out")
}

// Me 返回当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	current := middleware.GetCurrentUser(c)
	user, err := h.service.GetByID(c.Request.Context(), current.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user, "User fetched successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword 修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := h.service.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil, "Password changed successfully")
}

type updateAccountRequest struct {
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	PhoneNo string           `json:"phoneNo"`
	Address []addressRequest `json:"address"`
}

// UpdateAccount 更新资料
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	current := middleware.GetCurrentUser(c)
	user, err := h.service.UpdateAccount(c.Request.Context(), current.ID, application.UpdateAccountCommand{
		Name:      req.Name,
		Email:     req.Email,
		PhoneNo:   req.PhoneNo,
		Addresses: toAddresses(req.Address),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user, "Account details updated successfully")
}

func (h *UserHandler) setTokenCookies(c *gin.Context, pair *application.TokenPair) {
	sameSite := http.SameSiteLaxMode
	if h.cookies.Secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken,
		int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken,
		int(h.cookies.RefreshTTL.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *UserHandler) clearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if h.cookies.Secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrMissingFields),
		errors.Is(err, application.ErrInvalidEmail),
		errors.Is(err, application.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidPincode):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrEmailTaken):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrUserNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrInvalidRefreshToken):
		response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, application.ErrGoogleAccount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, "Internal server error")
	}
}
