//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2beens/fittrack/internal/auth"
)

func (s *IntegrationTestSuite) token(userID string) string {
	token, err := auth.GenerateToken(testJWTSecret, testIssuer, userID, time.Hour, time.Now())
	require.NoError(s.T(), err)
	return token
}

// call sends a JSON request and returns the status code and the raw body.
func (s *IntegrationTestSuite) call(ctx context.Context, method, path, token string, body any) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) callInto(ctx context.Context, method, path, token string, body any, wantStatus int, dst any) {
	status, raw := s.call(ctx, method, path, token, body)
	require.Equal(s.T(), wantStatus, status, string(raw))
	if dst != nil {
		require.NoError(s.T(), json.Unmarshal(raw, dst))
	}
}
