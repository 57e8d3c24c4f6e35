package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a level, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "FATAL":
		return LogLevelFatal
	default:
		return LogLevelInfo
	}
}

// Entry is a single log record
type Entry struct {
	Timestamp time.Time
	Level     LogLevel
	Component string
	Message   string
	Err       error
	Fields    map[string]interface{}
}

// Formatter renders an entry for output
type Formatter interface {
	Format(e *Entry) string
}

// TextFormatter renders entries as human-readable lines
type TextFormatter struct{}

func (f *TextFormatter) Format(e *Entry) string {
	var b strings.Builder
	b.WriteString(e.Timestamp.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, " %-5s [%s] %s", e.Level, e.Component, e.Message)

	if e.Err != nil {
		fmt.Fprintf(&b, " | error=%v", e.Err)
	}

	if len(e.Fields) > 0 {
		// Stable field order keeps log diffs readable
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// Logger provides component-scoped leveled logging to one or more sinks
type Logger struct {
	component string
	minLevel  LogLevel
	outputs   []io.Writer
	formatter Formatter
	mu        sync.Mutex
}

// NewLogger creates a logger for a component, writing to stdout
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		minLevel:  LogLevelInfo,
		outputs:   []io.Writer{os.Stdout},
		formatter: &TextFormatter{},
	}
}

// SetMinLevel sets the minimum level that will be emitted
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// AddOutput attaches an additional sink
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
	return l
}

// Named returns a logger for a sub-component sharing this logger's sinks
func (l *Logger) Named(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		component: component,
		minLevel:  l.minLevel,
		outputs:   append([]io.Writer(nil), l.outputs...),
		formatter: l.formatter,
	}
}

func (l *Logger) log(level LogLevel, msg string, err error, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	formatted := l.formatter.Format(&Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
		Err:       err,
		Fields:    fields,
	})

	for _, w := range l.outputs {
		w.Write([]byte(formatted))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) { l.log(LogLevelDebug, msg, nil, nil) }

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LogLevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Info logs an info message
func (l *Logger) Info(msg string) { l.log(LogLevelInfo, msg, nil, nil) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LogLevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warn logs a warning
func (l *Logger) Warn(msg string) { l.log(LogLevelWarn, msg, nil, nil) }

// Warnf logs a formatted warning
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LogLevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Error logs an error message with its cause
func (l *Logger) Error(msg string, err error) { l.log(LogLevelError, msg, err, nil) }

// Fatal logs a fatal error; the caller decides whether to exit
func (l *Logger) Fatal(msg string, err error) { l.log(LogLevelFatal, msg, err, nil) }

// WithFields logs at the given level with structured fields
func (l *Logger) WithFields(level LogLevel, msg string, fields map[string]interface{}) {
	l.log(level, msg, nil, fields)
}
