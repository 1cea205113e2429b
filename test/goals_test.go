//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/goals"
)

func goalPayload(target float64) map[string]any {
	return map[string]any{
		"title":       gofakeit.Word() + " goal",
		"type":        "endurance",
		"category":    "fitness",
		"target":      target,
		"unit":        "km",
		"deadline":    "2026-12-31",
		"difficulty":  "intermediate",
		"priority":    "medium",
		"description": gofakeit.Sentence(6),
		// ignored on create
		"current":   50,
		"completed": true,
		"progress":  99,
	}
}

func (s *IntegrationTestSuite) TestGoals_ProgressLifecycle() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.token("runner-" + gofakeit.UUID())

	var created goals.Goal
	s.callInto(ctx, http.MethodPost, "/api/goals", token, goalPayload(70), http.StatusCreated, &created)
	assert.Zero(t, created.Current)
	assert.Zero(t, created.Progress)
	assert.False(t, created.Completed)

	var updated goals.Goal
	s.callInto(ctx, http.MethodPatch, "/api/goals/"+created.ID+"/progress", token, map[string]any{"current": 70}, http.StatusOK, &updated)
	assert.Equal(t, 100.0, updated.Progress)
	assert.True(t, updated.Completed)

	s.callInto(ctx, http.MethodPatch, "/api/goals/"+created.ID+"/progress", token, map[string]any{"current": 35}, http.StatusOK, &updated)
	assert.Equal(t, 50.0, updated.Progress)
	assert.False(t, updated.Completed)

	var fetched goals.Goal
	s.callInto(ctx, http.MethodGet, "/api/goals/"+created.ID, token, nil, http.StatusOK, &fetched)
	assert.Equal(t, updated.Progress, fetched.Progress)
	assert.Equal(t, created.CreatedAt.UnixMilli(), fetched.CreatedAt.UnixMilli())
}

func (s *IntegrationTestSuite) TestGoals_IsolationAndOrder() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	alice := s.token("alice")
	bob := s.token("bob")

	var first, second goals.Goal
	s.callInto(ctx, http.MethodPost, "/api/goals", alice, goalPayload(10), http.StatusCreated, &first)
	s.callInto(ctx, http.MethodPost, "/api/goals", alice, goalPayload(20), http.StatusCreated, &second)

	var aliceGoals []goals.Goal
	s.callInto(ctx, http.MethodGet, "/api/goals", alice, nil, http.StatusOK, &aliceGoals)
	require.Len(t, aliceGoals, 2)
	assert.Equal(t, first.ID, aliceGoals[0].ID)
	assert.Equal(t, second.ID, aliceGoals[1].ID)

	var bobGoals []goals.Goal
	s.callInto(ctx, http.MethodGet, "/api/goals", bob, nil, http.StatusOK, &bobGoals)
	assert.Empty(t, bobGoals)

	status, _ := s.call(ctx, http.MethodGet, "/api/goals/"+first.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestGoals_ValidationAndNotFound() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.token("validator")

	payload := goalPayload(0)
	payload["type"] = "sleep"
	payload["priority"] = "urgent"
	var errResp apierr.ErrorResponse
	s.callInto(ctx, http.MethodPost, "/api/goals", token, payload, http.StatusBadRequest, &errResp)
	assert.Equal(t, "validation failed", errResp.Error)
	assert.Len(t, errResp.Details, 3)

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, "/api/goals/nope", map[string]any{"title": "x"}},
		{http.MethodPatch, "/api/goals/nope/progress", map[string]any{"current": 1}},
		{http.MethodDelete, "/api/goals/nope", nil},
	} {
		var notFound apierr.ErrorResponse
		s.callInto(ctx, tc.method, tc.path, token, tc.body, http.StatusNotFound, &notFound)
		assert.NotEmpty(t, notFound.Error)
	}

	var created goals.Goal
	s.callInto(ctx, http.MethodPost, "/api/goals", token, goalPayload(5), http.StatusCreated, &created)
	status, body := s.call(ctx, http.MethodDelete, "/api/goals/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)
	status, _ = s.call(ctx, http.MethodGet, "/api/goals/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
