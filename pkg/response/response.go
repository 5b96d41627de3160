package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/pkg/constant"
)

// Response 是统一的API返回结构体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// SuccessWithStatus 成功响应，但允许自定义 HTTP 状态码，例如 201 Created。
func SuccessWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// StatusOf 将业务错误映射为 HTTP 状态码，未知错误一律视为 500
func StatusOf(err error) int {
	switch {
	case errors.Is(err, constant.ErrBadRequest),
		errors.Is(err, constant.ErrInvalidRange),
		errors.Is(err, constant.ErrInvalidResetType),
		errors.Is(err, constant.ErrResetNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, constant.ErrUnauthorized), errors.Is(err, constant.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, constant.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, constant.ErrConflict), errors.Is(err, constant.ErrTaskRunning):
		return http.StatusConflict
	case errors.Is(err, constant.ErrQueueFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FailWithError 客户端错误直接返回错误描述，服务端错误只返回 fallback，不泄露内部细节
func FailWithError(c *gin.Context, err error, fallback string) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		Fail(c, status, fallback)
		return
	}
	Fail(c, status, err.Error())
}
