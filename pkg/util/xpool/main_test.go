package xpool

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain 在所有测试完成后检测 goroutine 泄漏：每个测试都必须 join 全部 worker。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
