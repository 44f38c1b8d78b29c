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

func testAudioData(t *testing.T) *media.AudioData {
	t.Helper()
	data, err := media.NewAudioData(make([]byte, 48*2*4), media.AudioDataInit{
		Format:           media.SampleFormatF32,
		SampleRate:       48000,
		NumberOfFrames:   48,
		NumberOfChannels: 2,
		Timestamp:        0,
	})
	require.NoError(t, err)
	return data
}

func TestAudioEncoder_ConfigureRejectsMissingFields(t *testing.T) {
	enc := NewAudioEncoder(enginetest.Factory(enginetest.New), testQueueConfig(), Callbacks{})
	err := enc.Configure(AudioEncoderConfig{Codec: "opus"})
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestAudioEncoder_EncodeProducesChunk(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &eventRecorder{}
	enc := NewAudioEncoder(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks())
	require.NoError(t, enc.Configure(AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))

	require.NoError(t, enc.Encode(testAudioData(t)))
	require.Eventually(t, func() bool { return rec.outputCount() == 1 }, time.Second, time.Millisecond)
	enc.Close()
}

func TestIsAudioEncoderConfigSupported_NeverErrorsOnBadCodec(t *testing.T) {
	fake := enginetest.New()
	fake.IsConfigSupportedFunc = func(desc engine.Descriptor) engine.SupportReport {
		return engine.SupportReport{Supported: false}
	}
	report := IsAudioEncoderConfigSupported(enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), AudioEncoderConfig{Codec: "bogus", SampleRate: 48000, NumberOfChannels: 2})
	assert.False(t, report.Supported)
}
