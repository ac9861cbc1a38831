package tracing_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/example/linguamem/internal/tracing"
)

func TestSetupExportsSpansOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := tracing.Setup(&buf)
	require.NoError(t, err)

	_, span := otel.Tracer("tracing_test").Start(context.Background(), "build-context")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "build-context")
}
