/*
 * @Description: 业务标准错误定义
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrNotFound 表示资源未找到，可以由 Handler 转换为 404
	ErrNotFound = errors.New("资源未找到")

	// ErrConflict 表示资源冲突，可以由 Handler 转换为 409
	ErrConflict = errors.New("资源冲突")

	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrUnauthorized 表示未授权，可以由 Handler 转换为 401
	ErrUnauthorized = errors.New("未经授权的访问")

	// ErrInvalidToken 表示无效的令牌，可以由 Handler 转换为 401
	ErrInvalidToken = errors.New("无效令牌")

	// ErrResetNotConfirmed 表示重置操作缺少确认标记，可以由 Handler 转换为 400
	ErrResetNotConfirmed = errors.New("重置操作需要确认")

	// ErrInvalidResetType 表示未知的重置模式，可以由 Handler 转换为 400
	ErrInvalidResetType = errors.New("无效的重置模式")

	// ErrInvalidRange 表示未知的统计时间范围，可以由 Handler 转换为 400
	ErrInvalidRange = errors.New("无效的时间范围")

	// ErrTaskRunning 表示同类任务正在执行，可以由 Handler 转换为 409
	ErrTaskRunning = errors.New("任务正在执行中，请稍后再试")

	// ErrQueueFull 表示后台任务队列已满，可以由 Handler 转换为 503
	ErrQueueFull = errors.New("后台任务队列已满，请稍后再试")
)
