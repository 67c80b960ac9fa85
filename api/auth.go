package api

import (
	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg    *config.Config
	mailer service.Mailer
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		mailer: service.NewEmailService(&cfg.Email),
	}
}

func (h *AuthHandler) svc() *service.AuthService {
	return service.NewAuthService(database.DB, h.mailer)
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100" example:"Ana Souza"`
	Email    string `json:"email" binding:"required,email,max=100" example:"ana@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"password123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 使用姓名、邮箱和密码创建账号，邮箱唯一
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} models.User "注册成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 409 {object} Problem "邮箱已注册"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc().Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} LoginResponse "登录成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 401 {object} Problem "邮箱或密码错误"
// @Failure 429 {object} Problem "登录过于频繁"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc().Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		HandleError(c, service.NewInternalError("failed to generate token", err))
		return
	}

	OK(c, LoginResponse{Token: token, User: *user})
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "获取成功"
// @Failure 401 {object} Problem "未授权"
// @Router /auth/me [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.svc().Profile(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, user)
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100" example:"Ana S."`
	Email *string `json:"email" binding:"omitempty,email,max=100" example:"ana.s@example.com"`
}

// UpdateProfile 更新当前用户资料
// @Summary 更新当前用户资料
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "资料"
// @Success 200 {object} models.User "更新成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 409 {object} Problem "邮箱已注册"
// @Router /auth/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc().UpdateProfile(c.Request.Context(), middleware.GetCurrentUserID(c), service.ProfilePatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, user)
}

// DeleteProfile 注销当前用户并删除全部数据
// @Summary 注销账号
// @Description 删除当前用户及其账户、类别、子类别、交易
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse "删除成功"
// @Failure 401 {object} Problem "未授权"
// @Router /auth/me [delete]
func (h *AuthHandler) DeleteProfile(c *gin.Context) {
	if err := h.svc().DeleteUser(c.Request.Context(), middleware.GetCurrentUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "user removed")
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required" example:"oldpassword123"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72" example:"newpassword123"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} MessageResponse "修改成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 401 {object} Problem "原密码错误"
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.svc().ChangePassword(c.Request.Context(), middleware.GetCurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "password updated")
}

// ForgotPasswordRequest 请求密码重置
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"ana@example.com"`
}

// ForgotPassword 发送密码重置验证码
// @Summary 请求密码重置
// @Description 向邮箱发送 6 位验证码，10 分钟有效。邮箱未注册时同样返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "邮箱"
// @Success 200 {object} MessageResponse "已发送"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 429 {object} Problem "请求过于频繁"
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.svc().RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "if the email is registered, a reset code has been sent")
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email" example:"ana@example.com"`
	Code        string `json:"code" binding:"required,len=6" example:"123456"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72" example:"newpassword123"`
}

// ResetPassword 使用验证码重置密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "重置信息"
// @Success 200 {object} MessageResponse "重置成功"
// @Failure 400 {object} Problem "验证码错误或已过期"
// @Failure 429 {object} Problem "错误次数过多，验证码已作废"
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.svc().ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "password reset")
}
