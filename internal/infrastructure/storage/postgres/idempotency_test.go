package postgres

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_CompressionRoundTrip(t *testing.T) {
	store, err := NewIdempotencyStore(nil, 10*time.Minute)
	require.NoError(t, err)

	// Compressible body over the threshold.
	body := bytes.Repeat([]byte(`{"materialId":"x","quantity":30},`), 512)
	require.Greater(t, len(body), store.compressThreshold)

	compressed := store.encoder.EncodeAll(body, nil)
	assert.Less(t, len(compressed), len(body))

	replay, err := store.buildReplay(IdempotencyRecord{
		Response:    compressed,
		Compressed:  true,
		StatusCode:  201,
		ContentType: "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, body, replay.Body)
	assert.Equal(t, 201, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)
}

func TestIdempotencyStore_BuildReplayDefaults(t *testing.T) {
	store, err := NewIdempotencyStore(nil, 10*time.Minute)
	require.NoError(t, err)

	replay, err := store.buildReplay(IdempotencyRecord{
		Response: []byte(`{"ok":true}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)
	assert.Equal(t, []byte(`{"ok":true}`), replay.Body)
}

func TestIdempotencyStore_RejectsCorruptCompressedBody(t *testing.T) {
	store, err := NewIdempotencyStore(nil, 10*time.Minute)
	require.NoError(t, err)

	_, err = store.buildReplay(IdempotencyRecord{
		Response:   []byte("not zstd data"),
		Compressed: true,
	})
	assert.Error(t, err)
}
