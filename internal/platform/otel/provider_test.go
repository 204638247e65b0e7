package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"survey-gateway/internal/platform/config"
	"survey-gateway/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), config.Telemetry{ServiceName: "test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := otel.Setup(context.Background(), config.Telemetry{
		OTLPEndpoint: "http://192.0.2.1:4318",
		ServiceName:  "test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
