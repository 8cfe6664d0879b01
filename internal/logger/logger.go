package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents logging severity using slog levels
type Level slog.Level

const (
	DebugLevel Level = Level(slog.LevelDebug)
	InfoLevel  Level = Level(slog.LevelInfo)
	WarnLevel  Level = Level(slog.LevelWarn)
	ErrorLevel Level = Level(slog.LevelError)
)

// Config represents logging configuration compatible with the main config package
type Config struct {
	Enabled         bool   `toml:"enabled"`
	Directory       string `toml:"directory"`
	FilenamePattern string `toml:"filename_pattern"`
	Level           string `toml:"level"`
	MaxFiles        int    `toml:"max_files"`
	MaxSizeMB       int    `toml:"max_size_mb"`
	ConsoleOutput   bool   `toml:"console_output"`
}

// FileLogger wraps slog.Logger with rotation and file management
type FileLogger struct {
	*slog.Logger
	config      Config
	file        *os.File
	fileName    string
	fileSize    int64
	mu          sync.Mutex
	multiWriter io.Writer
}

var (
	globalLogger *FileLogger
	globalMu     sync.Mutex
)

// Initialize creates and configures the global logger instance
func Initialize(config Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	var err error
	globalLogger, err = NewFileLogger(config)
	return err
}

// Get returns the global logger, creating a console fallback if not initialized
func Get() *FileLogger {
	if globalLogger == nil {
		consoleLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		globalLogger = &FileLogger{Logger: consoleLogger}
	}
	return globalLogger
}

// NewFileLogger creates a new logger with the given configuration
func NewFileLogger(config Config) (*FileLogger, error) {
	if config.Enabled && config.FilenamePattern != "" {
		if err := ValidateFilenamePattern(config.FilenamePattern); err != nil {
			return nil, fmt.Errorf("invalid filename pattern: %w", err)
		}
	}

	logger := &FileLogger{config: config}

	writers := []io.Writer{}
	if config.ConsoleOutput {
		writers = append(writers, os.Stdout)
	}

	if config.Enabled {
		logDir := expandLogDirectory(config.Directory)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logFile, err := logger.openLogFile()
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.file = logFile
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	logger.multiWriter = io.MultiWriter(writers...)
	logger.Logger = slog.New(newHandler(logger, parseLogLevel(config.Level)))

	return logger, nil
}

// newHandler builds the shared slog text handler with custom time formatting.
// The logger itself is the writer so rotation stays in the write path.
func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02T15:04:05.000-07:00"))
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(source.File), source.Line))
				}
			}
			return a
		},
	})
}

// openLogFile creates or opens the current log file
func (l *FileLogger) openLogFile() (*os.File, error) {
	logDir := expandLogDirectory(l.config.Directory)

	fileName := generateLogFilename(l.config.FilenamePattern)
	filePath := filepath.Join(logDir, fileName)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	l.fileName = filePath
	l.fileSize = info.Size()
	return file, nil
}

// expandLogDirectory expands the log directory path with platform defaults
func expandLogDirectory(dir string) string {
	if dir == "" {
		dir = "logs"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	if dir == "logs" || strings.HasPrefix(dir, "./") {
		return dir
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Tripcast", "logs")
		}
	case "darwin", "linux":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".tripcast", "logs")
		}
	}
	return "logs"
}

// generateLogFilename creates a filename from the pattern using date tokens
func generateLogFilename(pattern string) string {
	if pattern == "" {
		pattern = "tripcast-YYYYMMDD.log"
	}

	now := time.Now()
	result := pattern
	result = strings.ReplaceAll(result, "YYYY", fmt.Sprintf("%04d", now.Year()))
	result = strings.ReplaceAll(result, "YY", fmt.Sprintf("%02d", now.Year()%100))
	result = strings.ReplaceAll(result, "MM", fmt.Sprintf("%02d", now.Month()))
	result = strings.ReplaceAll(result, "DD", fmt.Sprintf("%02d", now.Day()))
	result = strings.ReplaceAll(result, "HH", fmt.Sprintf("%02d", now.Hour()))
	return result
}

// FilenameValidationError reports an unusable log filename pattern
type FilenameValidationError struct {
	Pattern string
	Reason  string
}

func (e *FilenameValidationError) Error() string {
	return fmt.Sprintf("invalid log filename pattern '%s': %s", e.Pattern, e.Reason)
}

// ValidateFilenamePattern checks a pattern for cross-platform safety
func ValidateFilenamePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return &FilenameValidationError{Pattern: pattern, Reason: "pattern is empty"}
	}
	if filepath.IsAbs(pattern) || strings.ContainsAny(pattern, "/\\") {
		return &FilenameValidationError{Pattern: pattern, Reason: "pattern must be a bare filename, not a path"}
	}
	for _, ch := range []string{"<", ">", ":", "\"", "|", "?", "*", "\x00"} {
		if strings.Contains(pattern, ch) {
			return &FilenameValidationError{Pattern: pattern, Reason: fmt.Sprintf("contains invalid character %q", ch)}
		}
	}
	return nil
}

// parseLogLevel converts string level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a string to a log level
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// checkRotationUnsafe checks if log rotation is needed (caller holds mutex)
func (l *FileLogger) checkRotationUnsafe() error {
	if l.file == nil || !l.config.Enabled {
		return nil
	}

	maxSize := int64(l.config.MaxSizeMB) * 1024 * 1024
	if maxSize > 0 && l.fileSize >= maxSize {
		return l.rotateUnsafe()
	}

	// Date change triggers daily rotation
	currentFileName := generateLogFilename(l.config.FilenamePattern)
	if filepath.Base(l.fileName) != currentFileName {
		return l.rotateUnsafe()
	}
	return nil
}

// rotateUnsafe performs log file rotation (caller holds mutex)
func (l *FileLogger) rotateUnsafe() error {
	if l.file != nil {
		l.file.Close()
	}

	if l.fileName != "" {
		if info, err := os.Stat(l.fileName); err == nil && info.Size() > 0 {
			dir := filepath.Dir(l.fileName)
			base := filepath.Base(l.fileName)
			ext := filepath.Ext(base)
			name := strings.TrimSuffix(base, ext)
			timestamp := time.Now().Format("20060102-150405")
			archivedPath := filepath.Join(dir, fmt.Sprintf("%s-%s%s", name, timestamp, ext))
			if err := os.Rename(l.fileName, archivedPath); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to archive log file: %v\n", err)
			}
		}
	}

	file, err := l.openLogFile()
	if err != nil {
		return err
	}
	l.file = file

	writers := []io.Writer{}
	if l.config.ConsoleOutput {
		writers = append(writers, os.Stdout)
	}
	writers = append(writers, l.file)
	l.multiWriter = io.MultiWriter(writers...)
	l.Logger = slog.New(newHandler(l, parseLogLevel(l.config.Level)))

	if l.config.MaxFiles > 0 {
		go l.cleanOldFiles()
	}
	return nil
}

// cleanOldFiles removes log files beyond MaxFiles, oldest first
func (l *FileLogger) cleanOldFiles() {
	logDir := filepath.Dir(l.fileName)
	pattern := l.config.FilenamePattern
	for _, token := range []string{"YYYY", "YY", "MM", "DD", "HH"} {
		pattern = strings.ReplaceAll(pattern, token, "*")
	}

	matches, err := filepath.Glob(filepath.Join(logDir, pattern))
	if err != nil {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: match, modTime: info.ModTime()})
	}

	// Newest first
	for i := 0; i < len(files)-1; i++ {
		for j := i + 1; j < len(files); j++ {
			if files[i].modTime.Before(files[j].modTime) {
				files[i], files[j] = files[j], files[i]
			}
		}
	}

	if len(files) > l.config.MaxFiles {
		for i := l.config.MaxFiles; i < len(files); i++ {
			os.Remove(files[i].path)
		}
	}
}

// Write implements io.Writer with a rotation check after each write
func (l *FileLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err = l.multiWriter.Write(p)
	if err != nil {
		return
	}

	l.fileSize += int64(n)
	if err := l.checkRotationUnsafe(); err != nil {
		fmt.Fprintf(os.Stderr, "Log rotation error: %v\n", err)
	}
	return
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level logging functions using the global logger

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	Get().Debug(fmt.Sprintf(format, args...))
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	Get().Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	Get().Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	Get().Error(fmt.Sprintf(format, args...))
}

// Fatal logs a fatal message and exits
func Fatal(format string, args ...interface{}) {
	Get().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// LogAPIRequest logs the start of an API request with structured fields
func LogAPIRequest(method, url string, headers map[string]string) {
	fields := []any{
		"method", method,
		"url", url,
		"type", "api_request",
	}
	if userAgent := headers["User-Agent"]; userAgent != "" {
		fields = append(fields, "user_agent", userAgent)
	}

	Get().LogAttrs(context.Background(), slog.LevelInfo, "API request started", slog.Group("request", fields...))
}

// LogAPIResponse logs an API response with structured fields
func LogAPIResponse(method, url string, statusCode int, duration string, bodySize int) {
	level := slog.LevelInfo
	if statusCode >= 400 {
		level = slog.LevelWarn
	}
	if statusCode >= 500 {
		level = slog.LevelError
	}

	Get().LogAttrs(context.Background(), level, "API request completed",
		slog.Group("request",
			"method", method,
			"url", url,
			"status_code", statusCode,
			"duration", duration,
			"body_size", bodySize,
			"type", "api_response",
		),
	)
}

// LogOperationStart logs the beginning of an operation and returns a
// completion function the caller invokes with the final error
func LogOperationStart(operation string, details map[string]any) func(error) {
	startTime := time.Now()

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("type", "operation_start"),
		slog.Time("start_time", startTime),
	}
	if details != nil {
		detailAttrs := make([]any, 0, len(details)*2)
		for k, v := range details {
			detailAttrs = append(detailAttrs, k, v)
		}
		attrs = append(attrs, slog.Group("details", detailAttrs...))
	}

	Get().LogAttrs(context.Background(), slog.LevelInfo, "Operation started", attrs...)

	return func(err error) {
		duration := time.Since(startTime)
		level := slog.LevelInfo
		message := "Operation completed"

		completionAttrs := []slog.Attr{
			slog.String("operation", operation),
			slog.String("type", "operation_complete"),
			slog.Duration("duration", duration),
			slog.Bool("success", err == nil),
		}
		if err != nil {
			level = slog.LevelError
			message = "Operation failed"
			completionAttrs = append(completionAttrs, slog.String("error", err.Error()))
		}

		Get().LogAttrs(context.Background(), level, message, completionAttrs...)
	}
}
