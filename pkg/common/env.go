package common

import (
	"os"
	"strings"
	"time"
)

// EnvDefault returns the value of the environment variable key, or def when it
// is unset or blank. It is used for flag defaults.
func EnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvDuration is like EnvDefault for durations. An unparsable value falls
// back to def so the flag parser still sees a valid default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
