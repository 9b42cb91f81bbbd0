package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adoption-followup/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_UsesTokenAndLogsResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/generate-periodic", r.URL.Path)
		assert.Equal(t, "Bearer preset", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"created":4,"checked":9,"skipped":5,"failed":0,"forms":[]}`))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Info, Format: logger.FormatJSON, Output: &buf})

	require.NoError(t, run(context.Background(), log, ts.URL, "", "", "preset", time.Second))
	assert.Contains(t, buf.String(), `"created":4`)
}

func TestRun_RequiresCredentials(t *testing.T) {
	err := run(context.Background(), logger.Nop(), "http://localhost:1", "", "", "", time.Second)
	assert.ErrorContains(t, err, "credentials required")
}

func TestRun_PropagatesForbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer ts.Close()

	err := run(context.Background(), logger.Nop(), ts.URL, "", "", "regular-token", time.Second)
	assert.ErrorContains(t, err, "status=403")
}
