package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("production", "debug", &buf)

	logger.WithField("operation", "assign").Info("cell updated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cell updated", line["msg"])
	assert.Equal(t, "assign", line["operation"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewWithOutput_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("development", "loud", &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "invalid LOG_LEVEL")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("production", "info", &buf)
	entry := logger.WithField("request_id", "rid-1")

	ctx := WithLogger(context.Background(), entry)
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"rid-1"`)

	assert.NotNil(t, FromContext(context.Background()))
}
