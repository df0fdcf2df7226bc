package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	shutdown := Setup(context.Background(), Options{ServiceName: "approvals"}, zap.New(core))
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("tracing disabled: no OTLP endpoint configured").Len())
}

func TestSetup_WithEndpoint(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed
	shutdown := Setup(context.Background(), Options{ServiceName: "approvals", Endpoint: "localhost:4317", Insecure: true}, zap.NewNop())
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
