package logging

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls the process-wide logger shared by the server, the
// migrate tool and the todo CLI
type LogConfig struct {
	Enabled    bool      // also write to a rotated file
	FilePath   string    // rotated file, relative to the working directory
	MaxSize    int       // megabytes before the file is rotated
	MaxBackups int       // rotated files kept
	MaxAge     int       // days rotated files are kept
	Compress   bool      // gzip rotated files
	Level      string    // logrus level name
	JSONFormat bool      // one JSON object per line instead of key=value text
	Console    io.Writer // stdout when nil; the CLI points this at stderr
}

// Logger is the shared logger. It is usable before InitLogger runs, which
// matters for configuration errors reported at startup.
var Logger = logrus.New()

// InitLogger replaces Logger with one built from config and returns it
func InitLogger(config *LogConfig) *logrus.Logger {
	Logger = logrus.New()
	Logger.SetFormatter(newFormatter(config.JSONFormat))

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		Logger.Warnf("Unknown log level %q, falling back to info", config.Level)
	}
	Logger.SetLevel(level)

	console := config.Console
	if console == nil {
		console = os.Stdout
	}

	if !config.Enabled || config.FilePath == "" {
		Logger.SetOutput(console)
		return Logger
	}

	Logger.SetOutput(io.MultiWriter(console, &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}))
	Logger.WithFields(logrus.Fields{
		"path":        config.FilePath,
		"max_size_mb": config.MaxSize,
		"max_backups": config.MaxBackups,
		"max_age":     config.MaxAge,
	}).Debug("Writing logs to rotated file")

	return Logger
}

func newFormatter(json bool) logrus.Formatter {
	if json {
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	}
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
}

// NewLogConfigFromEnv reads the LOG_* variables. A todo list logs little, so
// the rotation limits are small.
func NewLogConfigFromEnv() *LogConfig {
	return &LogConfig{
		Enabled:    getEnvBool("LOG_FILE_ENABLED", true),
		FilePath:   getEnv("LOG_FILE_PATH", "./logs/todo-web.log"),
		MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 10),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 14),
		Compress:   getEnvBool("LOG_COMPRESS", true),
		Level:      getEnv("LOG_LEVEL", "info"),
		JSONFormat: getEnvBool("LOG_JSON_FORMAT", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
