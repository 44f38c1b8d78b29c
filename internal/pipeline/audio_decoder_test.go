package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/engine/enginetest"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

func testAudioChunk(t *testing.T, chunkType media.ChunkType) *media.EncodedAudioChunk {
	t.Helper()
	chunk, err := media.NewEncodedAudioChunk([]byte{1, 2, 3}, media.EncodedAudioChunkInit{
		Type:      chunkType,
		Timestamp: 0,
	})
	require.NoError(t, err)
	return chunk
}

func TestAudioDecoder_RejectsNonKeyframeFirstChunkAsync(t *testing.T) {
	fake := enginetest.New()
	rec := &eventRecorder{}
	dec := NewAudioDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))

	require.NoError(t, dec.Decode(testAudioChunk(t, media.ChunkTypeDelta)))

	require.Eventually(t, func() bool { return rec.errorCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, codecerr.IsKind(rec.lastError(), codecerr.KindDataError))
	assert.Empty(t, fake.PushedInputs())
	dec.Close()
}

func TestAudioDecoder_AcceptsKeyframeFirstChunk(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewAudioDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))

	require.NoError(t, dec.Decode(testAudioChunk(t, media.ChunkTypeKey)))

	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, rec.errorCount())
	dec.Close()
}
