package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvDefault(t *testing.T) {
	t.Setenv("FRONIUS_TEST_HOST", " 192.168.1.20 ")
	assert.Equal(t, "192.168.1.20", EnvDefault("FRONIUS_TEST_HOST", "x"))

	t.Setenv("FRONIUS_TEST_HOST", "")
	assert.Equal(t, "x", EnvDefault("FRONIUS_TEST_HOST", "x"))
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("FRONIUS_TEST_INTERVAL", "30s")
	assert.Equal(t, 30*time.Second, EnvDuration("FRONIUS_TEST_INTERVAL", time.Second))

	t.Setenv("FRONIUS_TEST_INTERVAL", "soon")
	assert.Equal(t, time.Second, EnvDuration("FRONIUS_TEST_INTERVAL", time.Second))

	t.Setenv("FRONIUS_TEST_INTERVAL", "")
	assert.Equal(t, time.Second, EnvDuration("FRONIUS_TEST_INTERVAL", time.Second))
}
