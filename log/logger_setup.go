package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	errSubloggerConfigIsNil       = errors.New("sublogger config is nil")
	errUnhandledOutputWriter      = errors.New("unhandled output writer")
	errFileNameNotSet             = errors.New("file output requested without a file name")
	errSubLoggerNotFound          = errors.New("sub logger not found")
	errSubLoggerAlreadyRegistered = errors.New("sub logger already registered")
	errEmptyLoggerName            = errors.New("cannot have empty logger name")
)

func boolPtr(b bool) *bool {
	return &b
}

func getWriters(s *SubLoggerConfig) (io.Writer, error) {
	if s == nil {
		return nil, errSubloggerConfigIsNil
	}
	mw, err := MultiWriter()
	if err != nil {
		return nil, err
	}
	outputWriters := strings.Split(s.Output, "|")
	for x := range outputWriters {
		var writer io.Writer
		switch strings.ToLower(strings.TrimSpace(outputWriters[x])) {
		case "stdout", "console":
			writer = os.Stdout
		case "stderr":
			writer = os.Stderr
		case "file":
			if globalLogFile == nil {
				return nil, errFileNameNotSet
			}
			writer = globalLogFile
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputWriters[x])
		}
		err = mw.Add(writer)
		if err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: boolPtr(true),
		SubLoggerConfig: SubLoggerConfig{
			Level:  allLevels,
			Output: "console",
		},
		AdvancedSettings: AdvancedSettings{
			ShowLogSystemName: boolPtr(true),
			Spacer:            spacer,
			TimeStampFormat:   timestampFormat,
			Headers: Headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
}

func newLogger(c Config) Logger {
	return Logger{
		Enabled:           c.Enabled == nil || *c.Enabled,
		ShowLogSystemName: c.AdvancedSettings.ShowLogSystemName != nil && *c.AdvancedSettings.ShowLogSystemName,
		TimestampFormat:   c.AdvancedSettings.TimeStampFormat,
		Spacer:            c.AdvancedSettings.Spacer,
		InfoHeader:        c.AdvancedSettings.Headers.Info,
		WarnHeader:        c.AdvancedSettings.Headers.Warn,
		DebugHeader:       c.AdvancedSettings.Headers.Debug,
		ErrorHeader:       c.AdvancedSettings.Headers.Error,
	}
}

// SetupGlobalLogger applies the configuration to every registered sub logger
// and then applies any individual sub logger overrides
func SetupGlobalLogger(c *Config) error {
	if c == nil {
		return errSubloggerConfigIsNil
	}
	mu.Lock()
	defer mu.Unlock()
	if globalLogFile != nil {
		displayError(globalLogFile.Close())
		globalLogFile = nil
	}
	if c.FileName != "" {
		f, err := os.OpenFile(c.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return err
		}
		globalLogFile = f
	}

	output, err := getWriters(&c.SubLoggerConfig)
	if err != nil {
		return err
	}
	levels := splitLevel(c.Level)
	for _, sl := range subLoggers {
		sl.levels = levels
		sl.output = output
	}
	for x := range c.SubLoggers {
		if err := configureSubLogger(&c.SubLoggers[x]); err != nil {
			return err
		}
	}
	logger = newLogger(*c)
	return nil
}

func configureSubLogger(s *SubLoggerConfig) error {
	sl, found := subLoggers[strings.ToUpper(s.Name)]
	if !found {
		return fmt.Errorf("%w: %v", errSubLoggerNotFound, s.Name)
	}
	output, err := getWriters(s)
	if err != nil {
		return err
	}
	sl.output = output
	sl.levels = splitLevel(s.Level)
	return nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(strings.TrimSpace(enabledLevels[x])) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := &SubLogger{
		name:   strings.ToUpper(subLogger),
		output: os.Stdout,
		levels: splitLevel(allLevels),
	}
	subLoggers[temp.name] = temp
	return temp
}

// register all loggers at package init()
func init() {
	Global = registerNewSubLogger("LOG")
	EventLoop = registerNewSubLogger("EVENTLOOP")
	Broker = registerNewSubLogger("BROKER")
	Venue = registerNewSubLogger("VENUE")
	Portfolio = registerNewSubLogger("PORTFOLIO")
	OrderMgr = registerNewSubLogger("ORDER")
	Strategy = registerNewSubLogger("STRATEGY")
	Indicators = registerNewSubLogger("INDICATORS")
	Data = registerNewSubLogger("DATA")
	Database = registerNewSubLogger("DATABASE")
	ConfigMgr = registerNewSubLogger("CONFIG")
	Server = registerNewSubLogger("SERVER")
	Statistics = registerNewSubLogger("STATISTICS")
}
