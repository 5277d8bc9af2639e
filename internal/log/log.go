package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu       sync.Mutex
	logger   = stdlog.New(os.Stderr, "", 0)
	minLevel = LevelInfo
)

// SetLevel changes the minimum level emitted. The default is INFO.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects log output, mainly so tests can capture or
// silence it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = stdlog.New(w, "", 0)
}

func Debug(msg string, kv ...any) {
	emit(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	emit(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	emit(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	emit(LevelError, msg, extended...)
}

// emit writes one line in the form:
//
//	2026-01-01T00:00:00Z [LEVEL] msg key=value ...
func emit(level Level, msg string, kv ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled(level) {
		return
	}

	line := time.Now().Format(time.RFC3339) + " [" + string(level) + "] " + msg
	if len(kv) > 0 {
		line += formatKVs(kv...)
	}
	logger.Println(line)
}

func enabled(level Level) bool {
	switch minLevel {
	case LevelDebug:
		return true
	case LevelInfo:
		return level != LevelDebug
	case LevelWarn:
		return level == LevelWarn || level == LevelError
	case LevelError:
		return level == LevelError
	default:
		return true
	}
}

func formatKVs(kv ...any) string {
	out := ""
	// kv comes in pairs; a trailing unpaired value is ignored.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out += " " + key + "=" + fmt.Sprint(kv[i+1])
	}
	return out
}
