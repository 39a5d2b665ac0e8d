package watchdog

import (
	"fmt"
	"runtime"

	log "github.com/cihub/seelog"
)

func stackTrace() string {
	buf := make([]byte, 4096)
	length := runtime.Stack(buf, false)
	return string(buf[:length])
}

// LogOnPanic logs the panic with its stack trace, flushes the logs and panics
// again. Use it as the first deferred call of a goroutine.
func LogOnPanic() {
	if err := recover(); err != nil {
		// Full print of the trace in the logs
		msg := fmt.Sprintf("%v: %s\n%s", "Unexpected error", err, stackTrace())

		log.Error(msg)
		log.Flush()
		panic(err)
	}
}

// RecoverAndLog stops a panic, logs it with its stack trace and stores it in
// errp when errp is not nil. It must be called directly by a deferred
// statement.
func RecoverAndLog(errp *error) {
	if r := recover(); r != nil {
		err := fmt.Errorf("recovered panic: %v", r)
		log.Errorf("%v: %s\n%s", "Unexpected error", r, stackTrace())
		if errp != nil {
			*errp = err
		}
	}
}
