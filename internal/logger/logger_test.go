package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/internal/logger"
)

func TestWithFieldsCarriesFieldsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger.Setup("debug", "json", &buf)
	defer logger.Setup("info", "text", nil)

	ctx := logger.WithFields(context.Background(), logrus.Fields{"learner_id": "l-1"})
	ctx = logger.WithFields(ctx, logrus.Fields{"branch": "profile"})
	logger.Warnf(ctx, "fetch failed: %s", "boom")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "l-1", line["learner_id"])
	assert.Equal(t, "profile", line["branch"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "fetch failed: boom", line["msg"])
}

func TestGetLoggerWithoutEntryFallsBackToBase(t *testing.T) {
	assert.NotNil(t, logger.GetLogger(context.Background()))
}
