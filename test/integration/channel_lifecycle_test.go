//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwave-tv/airwave/internal/api"
	"github.com/airwave-tv/airwave/internal/models"
)

func doRequest(t *testing.T, env *testEnv, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestChannelLifecycle(t *testing.T) {
	env, teardown := setupTestEnv(t)
	defer teardown()

	movie := createTestMediaInDB(t, env.repos, "Feature Film", models.MediaKindMovie, 5400)
	episode := createTestMediaInDB(t, env.repos, "Pilot", models.MediaKindEpisode, 1320)

	var created api.ChannelResponse

	t.Run("CreateChannel", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/channels", map[string]interface{}{
			"number": 12,
			"name":   "Prime Time",
			"kind":   "custom",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, 12, created.Number)
		assert.Equal(t, int64(0), created.ContentVersion)
	})

	t.Run("CreateChannel_DuplicateNumber", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/channels", map[string]interface{}{
			"number": 12,
			"name":   "Also Prime Time",
		})

		assert.Equal(t, http.StatusConflict, w.Code)

		var response api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "duplicate_number", response.Error)
	})

	t.Run("ReplaceItems_GeneratesSchedule", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPut, fmt.Sprintf("/api/channels/%d/items", created.ID),
			map[string]interface{}{
				"media_ids": []string{movie.ID.String(), episode.ID.String()},
			})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated api.ChannelResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, int64(1), updated.ContentVersion)

		// Regeneration runs inline, so the guide answers immediately
		w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/now", created.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var now api.NowResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &now))
		assert.True(t, now.Airing)
		require.NotNil(t, now.Entry)
		assert.GreaterOrEqual(t, now.Offset, int64(0))
	})

	t.Run("DeleteMediaInUse", func(t *testing.T) {
		w := doRequest(t, env, http.MethodDelete, "/api/media/"+movie.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		var response api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "in_use", response.Error)
	})

	t.Run("Schedule_IsContiguous", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/schedule", created.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var schedule api.ScheduleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schedule))
		require.NotEmpty(t, schedule.Entries)

		for i := 1; i < len(schedule.Entries); i++ {
			assert.True(t, schedule.Entries[i-1].EndTime.Equal(schedule.Entries[i].StartTime),
				"gap between entries %d and %d", i-1, i)
		}
	})

	t.Run("DeleteChannel", func(t *testing.T) {
		w := doRequest(t, env, http.MethodDelete, fmt.Sprintf("/api/channels/%d", created.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d", created.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		// Media is free again once the lineup is gone
		w = doRequest(t, env, http.MethodDelete, "/api/media/"+movie.ID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGuideAcrossRegeneration(t *testing.T) {
	env, teardown := setupTestEnv(t)
	defer teardown()

	a := createTestMediaInDB(t, env.repos, "Short A", models.MediaKindMovie, 1800)
	b := createTestMediaInDB(t, env.repos, "Short B", models.MediaKindMovie, 2700)
	c := createTestMediaInDB(t, env.repos, "Short C", models.MediaKindMovie, 3600)

	w := doRequest(t, env, http.MethodPost, "/api/channels", map[string]interface{}{
		"number": 1,
		"name":   "Rotation",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var ch api.ChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))

	w = doRequest(t, env, http.MethodPut, fmt.Sprintf("/api/channels/%d/items", ch.ID),
		map[string]interface{}{"media_ids": []string{a.ID.String(), b.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code)

	// What is airing before the lineup change
	w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/now", ch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var before api.NowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	require.True(t, before.Airing)

	// Replace the lineup mid-air. The airing entry must survive untouched.
	w = doRequest(t, env, http.MethodPut, fmt.Sprintf("/api/channels/%d/items", ch.ID),
		map[string]interface{}{"media_ids": []string{c.ID.String()}})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/now", ch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var after api.NowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.True(t, after.Airing)
	assert.Equal(t, before.Entry.Title, after.Entry.Title)
	assert.True(t, before.Entry.StartTime.Equal(after.Entry.StartTime))

	// Upcoming entries come from the new lineup
	w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/upcoming?limit=3", ch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var upcoming api.UpcomingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upcoming))
	require.Greater(t, len(upcoming.Entries), 1)
	assert.Equal(t, "Short C", upcoming.Entries[1].Title)

	// Forced regeneration over an unchanged lineup is a no-op for the viewer
	w = doRequest(t, env, http.MethodPost, fmt.Sprintf("/api/channels/%d/regenerate", ch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, env, http.MethodGet, fmt.Sprintf("/api/channels/%d/now", ch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stable api.NowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stable))
	require.True(t, stable.Airing)
	assert.True(t, after.Entry.StartTime.Equal(stable.Entry.StartTime))
	assert.Equal(t, after.Entry.Title, stable.Entry.Title)
}
