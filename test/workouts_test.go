//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fittrack/internal/workouts"
)

func (s *IntegrationTestSuite) TestWorkouts_CRUD() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.token("lifter-" + gofakeit.UUID())

	var created workouts.Workout
	s.callInto(ctx, http.MethodPost, "/api/workouts", token, map[string]any{
		"name":     "Leg day",
		"type":     "strength",
		"duration": 45,
		"calories": 320,
		"date":     "2026-03-01",
		"notes":    gofakeit.Sentence(5),
	}, http.StatusCreated, &created)
	assert.True(t, created.Completed)
	assert.Empty(t, created.Exercises)

	var updated workouts.Workout
	s.callInto(ctx, http.MethodPut, "/api/workouts/"+created.ID, token, map[string]any{
		"duration":  60,
		"exercises": []map[string]any{{"name": "squat", "sets": 5, "reps": 5}},
	}, http.StatusOK, &updated)
	assert.Equal(t, 60, updated.Duration)
	require.Len(t, updated.Exercises, 1)
	assert.Equal(t, "squat", updated.Exercises[0]["name"])

	var list []workouts.Workout
	s.callInto(ctx, http.MethodGet, "/api/workouts", token, nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	status, _ := s.call(ctx, http.MethodDelete, "/api/workouts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.call(ctx, http.MethodPut, "/api/workouts/"+created.ID, token, map[string]any{"duration": 1})
	assert.Equal(t, http.StatusNotFound, status)
}
