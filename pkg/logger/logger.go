package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Options struct {
	Level    string
	FilePath string
	// Console switches stdout to zerolog's human readable writer.
	Console bool
}

type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

var globalLogger *Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

func New(output io.Writer, level string) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{zl: zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// Init installs the process wide logger. Without options it logs info and
// above as JSON to stdout.
func Init(opts ...Options) error {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	var stdout io.Writer = os.Stdout
	if o.Console {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{stdout}
	var file *os.File
	if o.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(o.FilePath), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(o.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	l := New(zerolog.MultiLevelWriter(writers...), o.Level)
	l.file = file
	globalLogger = l
	return nil
}

// Close flushes and releases the log file, if any.
func Close() {
	if globalLogger != nil && globalLogger.file != nil {
		_ = globalLogger.file.Sync()
		_ = globalLogger.file.Close()
		globalLogger.file = nil
	}
}

// SetGlobal replaces the process wide logger. Tests use it to capture output.
func SetGlobal(l *Logger) {
	globalLogger = l
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

func (l *Logger) log(event *zerolog.Event, action string, userID *string, details map[string]interface{}, err error) {
	if userID != nil {
		event = event.Str("user_id", *userID)
	}
	if err != nil {
		event = event.Err(err)
	}
	if len(details) > 0 {
		event = event.Fields(details)
	}
	event.Str("action", action).Msg(action)
}

func Debug(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Debug(), action, nil, details, nil)
	}
}

func Info(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Info(), action, nil, details, nil)
	}
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Info(), action, &userID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Warn(), action, nil, details, nil)
	}
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Warn(), action, &userID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Error(), action, nil, details, err)
	}
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(globalLogger.zl.Error(), action, &userID, details, err)
	}
}

// Fatal logs and exits the process. It falls back to stderr when Init was
// never called so startup failures are never silent.
func Fatal(action string, err error, details map[string]interface{}) {
	if globalLogger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
		os.Exit(1)
	}
	globalLogger.log(globalLogger.zl.WithLevel(zerolog.FatalLevel), action, nil, details, err)
	Close()
	os.Exit(1)
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if userID := c.Locals("userID"); userID != nil {
		if id, ok := userID.(string); ok {
			return &id
		}
	}
	return nil
}

var sensitiveFields = []string{"password", "currentPassword", "newPassword", "token", "apiKey"}

func redactSensitiveFields(jsonMap map[string]interface{}) {
	for _, field := range sensitiveFields {
		if _, exists := jsonMap[field]; exists {
			jsonMap[field] = "[REDACTED]"
		}
	}
}

func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(body, &jsonMap); err == nil {
		redactSensitiveFields(jsonMap)
		if jsonBytes, err := json.Marshal(jsonMap); err == nil {
			if len(jsonBytes) > 200 {
				return string(jsonBytes[:200]) + "..."
			}
			return string(jsonBytes)
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	body := c.Response().Body()
	if len(body) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d bytes", len(body))
}

func GenerateRequestID() string {
	return uuid.New().String()
}
