package goroutine

import (
	"runtime/debug"

	"github.com/avkuzmin/backoffice/internal/logger"
)

// SafeGo запускает горутину с обработкой panic: паника фоновой задачи
// логируется, а не роняет процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.Errorf("panic в горутине: %v\n%s", r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}
