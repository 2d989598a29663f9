package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldLog_RespectsConfiguredLevel(t *testing.T) {
	l := &SimpleLogger{logLevel: "warn"}

	assert.False(t, l.shouldLog("DEBUG"))
	assert.False(t, l.shouldLog("INFO"))
	assert.True(t, l.shouldLog("WARN"))
	assert.True(t, l.shouldLog("ERROR"))
	assert.True(t, l.shouldLog("FATAL"))
}

func TestShouldLog_UnknownLevelDefaultsToInfo(t *testing.T) {
	l := &SimpleLogger{logLevel: "verbose"}

	assert.False(t, l.shouldLog("DEBUG"))
	assert.True(t, l.shouldLog("INFO"))
	assert.False(t, l.shouldLog("TRACE"))
}
