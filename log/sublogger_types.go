package log

import "io"

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global     *SubLogger
	EventLoop  *SubLogger
	Broker     *SubLogger
	Venue      *SubLogger
	Portfolio  *SubLogger
	OrderMgr   *SubLogger
	Strategy   *SubLogger
	Indicators *SubLogger
	Data       *SubLogger
	Database   *SubLogger
	ConfigMgr  *SubLogger
	Server     *SubLogger
	Statistics *SubLogger
)

// SubLogger defines a named sub logger with its own levels and output
type SubLogger struct {
	name   string
	levels Levels
	output io.Writer
}

// logFields is a snapshot of sub logger state taken under the read lock so
// a concurrent reconfiguration cannot alter a line mid-write
type logFields struct {
	info   bool
	warn   bool
	debug  bool
	error  bool
	name   string
	output io.Writer
	logger Logger
}
