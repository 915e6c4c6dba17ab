package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	ErrOpenState       = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests

	ErrNilContext = errors.New("xbreaker: nil context")
	ErrNilFunc    = errors.New("xbreaker: nil function")
)

// BreakerError 熔断拒绝，操作未被执行
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
}

func (e *BreakerError) Unwrap() error { return e.Err }

// wrap 只包装 gobreaker 直接返回的拒绝错误，状态由错误类型推出。
func wrap(err error, name string) error {
	switch err { //nolint:errorlint // 只识别 gobreaker 的直接返回值
	case gobreaker.ErrOpenState:
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case gobreaker.ErrTooManyRequests:
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 判断是否为熔断拒绝（Open 或 HalfOpen 限流）。
func IsOpen(err error) bool {
	var be *BreakerError
	return errors.As(err, &be)
}
