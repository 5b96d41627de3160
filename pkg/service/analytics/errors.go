package analytics

import (
	"fmt"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/pkg/constant"
)

// ValidationError 描述一个无效的请求字段，errors.Is(err, constant.ErrBadRequest) 为 true
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return constant.ErrBadRequest
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// EventPublisher 事件总线的发布端
type EventPublisher interface {
	Publish(topic event.Topic, payload interface{})
}
