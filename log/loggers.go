package log

import (
	"fmt"
	"log"
	"time"
)

// Info takes a pointer subLogger struct and string and writes it out
func Info(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.InfoHeader, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface and writes it out
func Infoln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.InfoHeader, func() string { return fmt.Sprint(v...) })
}

// Infof takes a pointer subLogger struct, string and interface, formats and writes it out
func Infof(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.InfoHeader, func() string { return fmt.Sprintf(data, v...) })
}

// Debug takes a pointer subLogger struct and string and writes it out
func Debug(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.DebugHeader, func() string { return data })
}

// Debugln takes a pointer subLogger struct and interface and writes it out
func Debugln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.DebugHeader, func() string { return fmt.Sprint(v...) })
}

// Debugf takes a pointer subLogger struct, string and interface, formats and writes it out
func Debugf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.DebugHeader, func() string { return fmt.Sprintf(data, v...) })
}

// Warn takes a pointer subLogger struct and string and writes it out
func Warn(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.WarnHeader, func() string { return data })
}

// Warnln takes a pointer subLogger struct and interface and writes it out
func Warnln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.WarnHeader, func() string { return fmt.Sprint(v...) })
}

// Warnf takes a pointer subLogger struct, string and interface, formats and writes it out
func Warnf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.WarnHeader, func() string { return fmt.Sprintf(data, v...) })
}

// Error takes a pointer subLogger struct and string and writes it out
func Error(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.ErrorHeader, func() string { return data })
}

// Errorln takes a pointer subLogger struct and interface and writes it out
func Errorln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.ErrorHeader, func() string { return fmt.Sprint(v...) })
}

// Errorf takes a pointer subLogger struct, string and interface, formats and writes it out
func Errorf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(logger.ErrorHeader, func() string { return fmt.Sprintf(data, v...) })
}

func displayError(err error) {
	if err != nil {
		log.Printf("Logger write error: %v\n", err)
	}
}

// enabled checks if the log level is enabled
func (l *logFields) enabled(header string) bool {
	switch header {
	case l.logger.InfoHeader:
		return l.info
	case l.logger.WarnHeader:
		return l.warn
	case l.logger.ErrorHeader:
		return l.error
	case l.logger.DebugHeader:
		return l.debug
	}
	return false
}

// stage formats and writes a single line; the deferred message is only
// rendered when the level is enabled
func (l *logFields) stage(header string, deferred func() string) {
	if l == nil || l.output == nil || !l.enabled(header) {
		return
	}
	msg := deferred()
	if customLogHook != nil && customLogHook(header, l.name, msg) {
		return
	}
	line := header + l.logger.Spacer
	if l.logger.TimestampFormat != "" {
		line += time.Now().Format(l.logger.TimestampFormat) + l.logger.Spacer
	}
	if l.logger.ShowLogSystemName {
		line += l.name + l.logger.Spacer
	}
	line += msg
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}
	_, err := l.output.Write([]byte(line))
	displayError(err)
}
