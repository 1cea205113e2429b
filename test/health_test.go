//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fittrack/internal/health"
)

func (s *IntegrationTestSuite) TestHealth_Detailed() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	var detailed health.DetailedStatus
	s.callInto(ctx, http.MethodGet, "/health/detailed", "", nil, http.StatusOK, &detailed)
	assert.Equal(t, health.StatusOK, detailed.Status.Status)
	assert.Equal(t, "postgres", detailed.Storage)
	require.Len(t, detailed.Dependencies, 2)
	assert.Equal(t, "postgres", detailed.Dependencies[0].Name)
	assert.Equal(t, "redis", detailed.Dependencies[1].Name)

	status, _ := s.call(ctx, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestMetrics_ExposesPoolAndRequests() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, body := s.call(ctx, http.MethodGet, "/metrics", "", nil)
	require.Equal(s.T(), http.StatusOK, status)
	metrics := string(body)
	assert.True(s.T(), strings.Contains(metrics, "pgxpool_"))
	assert.True(s.T(), strings.Contains(metrics, "fittrack_api_request"))
}
