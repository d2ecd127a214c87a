package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string        // trigger API bind address
	LogDir     string        // logs directory
	Namespace  string        // metrics namespace
	Timeout    time.Duration // per-probe timeout
	LogTimings []string      // duration keys shipped as metrics
	APIHost    string        // status-page API base URL (empty disables incidents)
	APIKey     string        // status-page API key
	APIKeys    []string      // accepted keys for the trigger API (empty allows all)
	CloudWatch bool          // ship metrics to CloudWatch instead of the log sink
}

func FromEnv() Config {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	namespace := os.Getenv("WATCHTOWER_NAMESPACE")
	if namespace == "" {
		namespace = "Watchtower"
	}

	timeout := 5000 * time.Millisecond
	if v := os.Getenv("PROBE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	logTimings := []string{"readable", "total"}
	if v := os.Getenv("LOG_TIMINGS"); v != "" {
		logTimings = splitList(v)
	}

	cw := false
	if v := os.Getenv("CLOUDWATCH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cw = b
		}
	}

	return Config{
		Addr:       addr,
		LogDir:     logDir,
		Namespace:  namespace,
		Timeout:    timeout,
		LogTimings: logTimings,
		APIHost:    os.Getenv("STATUS_API_HOST"),
		APIKey:     os.Getenv("STATUS_API_KEY"),
		APIKeys:    splitList(os.Getenv("TRIGGER_API_KEYS")),
		CloudWatch: cw,
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
