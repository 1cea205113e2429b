//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fittrack/internal/profile"
)

func (s *IntegrationTestSuite) TestProfile_SeededAndPatched() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.token(testSeedUser)

	var p profile.Profile
	s.callInto(ctx, http.MethodGet, "/api/profile/"+testSeedUser, token, nil, http.StatusOK, &p)
	assert.Equal(t, testSeedUser, p.UserID)

	s.callInto(ctx, http.MethodPatch, "/api/profile/"+testSeedUser+"/preferences", token, map[string]any{
		"notifications": map[string]any{"weeklyReport": false},
	}, http.StatusOK, &p)
	assert.False(t, p.Preferences.Notifications.WeeklyReport)
	assert.True(t, p.Preferences.Notifications.GoalUpdates)

	s.callInto(ctx, http.MethodPatch, "/api/profile/"+testSeedUser+"/stats", token, map[string]any{
		"totalWorkouts": 12,
	}, http.StatusOK, &p)
	assert.Equal(t, 12, p.Stats.TotalWorkouts)

	// cached read reflects the update
	var fetched profile.Profile
	s.callInto(ctx, http.MethodGet, "/api/profile/"+testSeedUser, token, nil, http.StatusOK, &fetched)
	assert.Equal(t, 12, fetched.Stats.TotalWorkouts)
	assert.False(t, fetched.Preferences.Notifications.WeeklyReport)
}

func (s *IntegrationTestSuite) TestProfile_ForeignAccessForbidden() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, _ := s.call(ctx, http.MethodGet, "/api/profile/"+testSeedUser, s.token("intruder"), nil)
	require.Equal(s.T(), http.StatusForbidden, status)

	status, _ = s.call(ctx, http.MethodGet, "/api/profile/"+testSeedUser, "", nil)
	require.Equal(s.T(), http.StatusUnauthorized, status)
}
