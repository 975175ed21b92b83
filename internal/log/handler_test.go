package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheduleshare/event-manager/internal/middleware"
	"github.com/scheduleshare/event-manager/pkg/model"
)

func TestContextHandler_AddsCorrelationIDAndUser(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil)))

	ctx := middleware.NewContextWithCorrelationID(context.Background(), "some-correlation-id")
	ctx = model.NewContextWithUser(ctx, &model.User{ID: 123})

	logger.InfoContext(ctx, "info")

	got := make(map[string]any)
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	assert.Equal(t, "some-correlation-id", got["correlationId"])
	assert.Equal(t, float64(123), got["userId"])
}

func TestContextHandler_BareContext(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil)))

	logger.InfoContext(context.Background(), "info")

	got := make(map[string]any)
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	assert.NotContains(t, got, "correlationId")
	assert.NotContains(t, got, "userId")
	assert.Equal(t, "info", got["msg"])
}

func TestContextHandler_WithAttrsKeepsContextValues(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil))).With("component", "test")

	ctx := middleware.NewContextWithCorrelationID(context.Background(), "some-correlation-id")
	logger.InfoContext(ctx, "info")

	sc := bufio.NewScanner(&b)
	for sc.Scan() {
		got := make(map[string]any)
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got))
		assert.Equal(t, "test", got["component"])
		assert.Equal(t, "some-correlation-id", got["correlationId"])
	}
}
