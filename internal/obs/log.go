package obs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

const serviceName = "oceanos-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line-oriented logger. Every line it emits is a
// self-contained JSON object.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON line for a completed HTTP request. The entry is
// stamped with timestamp and service before marshalling; caller keys win on
// collision.
func LogRequest(entry map[string]any) {
	stamped := map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"service": serviceName,
		"level":   "info",
	}
	for k, v := range entry {
		stamped[k] = v
	}
	data, err := json.Marshal(stamped)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// Warnf logs a formatted warning as a JSON line.
func Warnf(format string, args ...any) {
	data, err := json.Marshal(map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"service": serviceName,
		"level":   "warn",
		"msg":     fmt.Sprintf(format, args...),
	})
	if err != nil {
		return
	}
	Logger().Println(string(data))
}
