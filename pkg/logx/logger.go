package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fields is a map of structured data attached to a log line
type Fields map[string]interface{}

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// JSON switches output from console lines to one JSON object per line
	JSON bool

	// TimeFormat is the time format to use (defaults to RFC3339)
	TimeFormat string

	// Output is where to write logs (defaults to os.Stdout)
	Output io.Writer
}

// LoadFromEnv loads configuration from LOG_LEVEL and LOG_FORMAT
func LoadFromEnv() *Config {
	cfg := &Config{
		Level:      ParseLevel(os.Getenv("LOG_LEVEL")),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		cfg.JSON = true
	}
	return cfg
}

// Logger is the main logger instance
type Logger struct {
	mu       sync.Mutex
	config   *Config
	writer   io.Writer
	exitFunc func(int)
}

// NewLogger creates a new logger with the given config
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = LoadFromEnv()
	}
	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}
	return &Logger{
		config:   config,
		writer:   writer,
		exitFunc: os.Exit,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// WithField creates a new entry with a field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates a new entry with fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates a new entry with an error field
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// log formats and writes a single entry
func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.config.Level.Enabled(level) {
		return
	}

	ts := time.Now().Format(l.config.TimeFormat)

	var line []byte
	if l.config.JSON {
		payload := make(map[string]interface{}, len(fields)+3)
		for k, v := range fields {
			payload[k] = v
		}
		payload["time"] = ts
		payload["level"] = level.String()
		payload["message"] = msg
		encoded, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logx: failed to encode entry: %v\n", err)
			return
		}
		line = append(encoded, '\n')
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "%s [%s] %s", ts, level.String(), msg)
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
		b.WriteByte('\n')
		line = []byte(b.String())
	}

	if _, err := l.writer.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "logx: failed to write entry: %v\n", err)
	}
}

func (l *Logger) exit(code int) {
	l.exitFunc(code)
}

func sortedKeys(fields Fields) []string {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
