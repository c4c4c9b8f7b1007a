package safe

import (
	"JProject/logger"

	"go.uber.org/zap"
)

// Go starts a goroutine that recovers from panic, so a misbehaving
// background task cannot crash the whole process.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("goroutine panic recovered",
					zap.String("task", name), zap.Any("panic", r))
			}
		}()
		f()
	}()
}
