package stagetrigger

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Amund211/riftlight/internal/domain"
)

const localRedisAddr = "localhost:6379"

func TestRedisStageTrigger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis tests in short mode.")
	}
	t.Parallel()

	ctx := t.Context()

	client, err := NewRedisClient(localRedisAddr)
	require.NoError(t, err)

	stream := fmt.Sprintf("riftlight-test:%s", uuid.New().String())
	t.Cleanup(func() {
		client.Del(t.Context(), stream)
	})

	trigger := NewRedisStageTrigger(client, stream)

	payloads := []domain.StageTriggerPayload{
		{StableID: "stable-1", MatchID: "NA1_1", Region: "NA1"},
		{StableID: "stable-1", MatchID: "NA1_2", Region: "NA1"},
	}
	for _, payload := range payloads {
		require.NoError(t, trigger.Publish(ctx, payload))
	}

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for i, entry := range entries {
		require.Equal(t, payloads[i].StableID, entry.Values["stableId"])
		require.Equal(t, payloads[i].MatchID, entry.Values["matchId"])
		require.Equal(t, payloads[i].Region, entry.Values["region"])
	}
}

func TestStubStageTrigger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	trigger := NewStubStageTrigger(logger)

	done := make(chan error, 1)
	go func() {
		done <- trigger.Publish(t.Context(), domain.StageTriggerPayload{
			StableID: "stable-1",
			MatchID:  "NA1_1",
			Region:   "NA1",
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish did not return")
	}
}
