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

func testVideoChunk(t *testing.T, chunkType media.ChunkType) *media.EncodedVideoChunk {
	t.Helper()
	chunk, err := media.NewEncodedVideoChunk([]byte{1, 2, 3}, media.EncodedVideoChunkInit{
		Type:      chunkType,
		Timestamp: 0,
	})
	require.NoError(t, err)
	return chunk
}

func TestVideoDecoder_RejectsNonKeyframeFirstChunkAsync(t *testing.T) {
	fake := enginetest.New()
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8"}))

	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeDelta)))

	require.Eventually(t, func() bool { return rec.errorCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, codecerr.IsKind(rec.lastError(), codecerr.KindDataError))
	assert.Empty(t, fake.PushedInputs())
	dec.Close()
}

func TestVideoDecoder_AcceptsKeyframeFirstChunk(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8"}))

	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))

	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, rec.errorCount())
	dec.Close()
}

func TestVideoDecoder_AllowsDeltaChunksAfterFirstKeyframe(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8"}))

	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeDelta)))

	require.Eventually(t, func() bool { return rec.outputCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, rec.errorCount())
	dec.Close()
}

func TestVideoDecoder_ReconfigureResetsFirstChunkRule(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8"}))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))
	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8"}))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeDelta)))

	require.Eventually(t, func() bool { return rec.errorCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, codecerr.IsKind(rec.lastError(), codecerr.KindDataError))
	dec.Close()
}

// TestTranslateVideoDecoderOutput_BindsDescAtCreationNotInvocation guards
// against regressing to a translator that reads a shared, mutable
// descriptor at call time: each call to translateVideoDecoderOutput
// must close over its own desc so a later reconfigure can never change
// what an earlier configuration's in-flight outputs report.
func TestTranslateVideoDecoderOutput_BindsDescAtCreationNotInvocation(t *testing.T) {
	w1, h1 := 1920, 1080
	w2, h2 := 640, 480
	older := translateVideoDecoderOutput(engine.Descriptor{DisplayWidth: w1, DisplayHeight: h1})
	newer := translateVideoDecoderOutput(engine.Descriptor{DisplayWidth: w2, DisplayHeight: h2})

	// Invoke the newer translator first, as if a reconfigure raced ahead
	// of an output still in flight from the older configuration.
	newEvent := newer(engine.Output{})
	oldEvent := older(engine.Output{})

	assert.Equal(t, w2, newEvent.Metadata["displayAspectWidth"])
	assert.Equal(t, h2, newEvent.Metadata["displayAspectHeight"])
	assert.Equal(t, w1, oldEvent.Metadata["displayAspectWidth"])
	assert.Equal(t, h1, oldEvent.Metadata["displayAspectHeight"])
}

func TestVideoDecoder_ReconfigureDoesNotLeakAspectMetadataAcrossConfigurations(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())

	w1, h1 := 1920, 1080
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8", DisplayWidth: &w1, DisplayHeight: &h1}))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))
	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)

	w2, h2 := 640, 480
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8", DisplayWidth: &w2, DisplayHeight: &h2}))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))
	require.Eventually(t, func() bool { return rec.outputCount() == 2 }, time.Second, time.Millisecond)

	rec.mu.Lock()
	first, second := rec.outputs[0].Metadata, rec.outputs[1].Metadata
	rec.mu.Unlock()
	assert.Equal(t, 1920, first["displayAspectWidth"])
	assert.Equal(t, 640, second["displayAspectWidth"])
	dec.Close()
}

func TestVideoDecoder_ForwardsDisplayAspectMetadata(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	dec := NewVideoDecoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	w, h := 1920, 1080
	require.NoError(t, dec.Configure(VideoDecoderConfig{Codec: "vp8", DisplayWidth: &w, DisplayHeight: &h}))
	require.NoError(t, dec.Decode(testVideoChunk(t, media.ChunkTypeKey)))

	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)
	rec.mu.Lock()
	meta := rec.outputs[0].Metadata
	rec.mu.Unlock()
	assert.Equal(t, 1920, meta["displayAspectWidth"])
	assert.Equal(t, 1080, meta["displayAspectHeight"])
	dec.Close()
}
