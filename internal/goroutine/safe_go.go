package goroutine

import (
	"runtime/debug"

	"github.com/ignatzorin/ecotrack-backend/internal/logger"
)

// SafeGo запускает горутину с перехватом panic: упавшая фоновая задача
// логируется и не роняет процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.WithField("stack", string(debug.Stack())).
						Errorf("goroutine: перехвачен panic: %v", r)
				}
			}
		}()
		fn()
	}()
}
