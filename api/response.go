package api

import (
	"errors"
	"net/http"
	"strconv"

	"fintrack/logger"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// ProblemContentType RFC 7807 响应类型
const ProblemContentType = "application/problem+json"

// Problem 错误响应结构（RFC 7807）
type Problem struct {
	Type     string `json:"type" example:"about:blank"`
	Title    string `json:"title" example:"Not Found"`
	Status   int    `json:"status" example:"404"`
	Detail   string `json:"detail,omitempty" example:"account not found"`
	Instance string `json:"instance,omitempty" example:"/accounts/42"`
}

// MessageResponse 仅包含提示信息的响应
type MessageResponse struct {
	Message string `json:"message" example:"transaction removed"`
}

// OK 200 响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 带提示信息的 200 响应
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// Error 错误响应
func Error(c *gin.Context, status int, detail string) {
	c.Header("Content-Type", ProblemContentType)
	c.AbortWithStatusJSON(status, Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request.URL.Path,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, detail string) {
	Error(c, http.StatusUnauthorized, detail)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, detail string) {
	Error(c, http.StatusInternalServerError, detail)
}

// statusOf 领域错误类型到 HTTP 状态码
func statusOf(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 将服务层错误写为 problem 响应，内部错误记录日志且不暴露细节
func HandleError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{Kind: service.KindInternal, Message: "internal server error", Err: err}
	}

	status := statusOf(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().
			Err(svcErr.Err).
			Str("path", c.Request.URL.Path).
			Msg(svcErr.Message)
		Error(c, status, SafeErrorMessage(svcErr, svcErr.Message))
		return
	}
	Error(c, status, svcErr.Message)
}

// bindError 请求体或查询参数绑定失败
func bindError(c *gin.Context, err error) {
	BadRequest(c, "invalid request: "+err.Error())
}

// parseID 解析路径中的数字 ID
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
