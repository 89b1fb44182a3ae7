package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactAPIKey(t *testing.T) {
	logger := NewDefaultLogger(LogLevelInfo, LogFormatHuman, true)

	assert.Equal(t, "****3456", logger.RedactAPIKey("sk-ant-123456"))
	assert.Equal(t, "****", logger.RedactAPIKey("abc"))
	assert.Equal(t, "****", logger.RedactAPIKey(""))
}

func TestRedactAPIKeyDisabled(t *testing.T) {
	logger := NewDefaultLogger(LogLevelInfo, LogFormatHuman, false)
	assert.Equal(t, "sk-ant-123456", logger.RedactAPIKey("sk-ant-123456"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, ParseLogFormat("json"))
	assert.Equal(t, LogFormatHuman, ParseLogFormat("human"))
	assert.Equal(t, LogFormatHuman, ParseLogFormat(""))
}
