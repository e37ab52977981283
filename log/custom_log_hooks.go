package log

// CustomLogHook is a function type for external log handling. It should return
// true if the internal logging system should be bypassed for this line.
type CustomLogHook func(header, subLoggerName, msg string) (bypassLibraryLogSystem bool)

var customLogHook CustomLogHook

// SetCustomLogHook sets a custom log hook function. Passing nil restores the
// internal writers.
func SetCustomLogHook(h CustomLogHook) {
	mu.Lock()
	customLogHook = h
	mu.Unlock()
}
