package xretry

import (
	"errors"

	retry "github.com/avast/retry-go/v5"
)

var (
	ErrNilRetryer = errors.New("xretry: nil retryer")
	ErrNilContext = errors.New("xretry: nil context")
	ErrNilFunc    = errors.New("xretry: nil function")
)

// Permanent 标记错误为不可重试，nil 原样返回。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return retry.Unrecoverable(err)
}

// IsPermanent 判断错误是否被 Permanent 标记。
func IsPermanent(err error) bool {
	return err != nil && !retry.IsRecoverable(err)
}
