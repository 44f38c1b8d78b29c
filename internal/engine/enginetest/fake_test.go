package enginetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
)

func TestFakeAdapter_DefaultConfigureTracksDescriptor(t *testing.T) {
	f := New()
	desc := engine.Descriptor{Codec: "avc1.42001e"}
	require.NoError(t, f.Configure(desc))
	assert.True(t, f.Configured())
	assert.Equal(t, desc, f.LastDescriptor())
}

func TestFakeAdapter_QueuedOutputsDrainFIFO(t *testing.T) {
	f := New()
	f.QueueOutput(engine.Output{Metadata: map[string]any{"n": 1}})
	f.QueueOutput(engine.Output{Metadata: map[string]any{"n": 2}})

	out1, ok := f.PullOutput()
	require.True(t, ok)
	assert.Equal(t, 1, out1.Metadata["n"])

	out2, ok := f.PullOutput()
	require.True(t, ok)
	assert.Equal(t, 2, out2.Metadata["n"])

	_, ok = f.PullOutput()
	assert.False(t, ok)
}

func TestFakeAdapter_ResetClearsStateAndCounts(t *testing.T) {
	f := New()
	require.NoError(t, f.Configure(engine.Descriptor{Codec: "opus"}))
	require.NoError(t, f.PushInput(engine.Input{}))

	f.Reset()

	assert.False(t, f.Configured())
	assert.Empty(t, f.PushedInputs())
	assert.Equal(t, 1, f.ResetCalls())
}

func TestFakeAdapter_OverrideHooksTakePriority(t *testing.T) {
	f := New()
	f.IsConfigSupportedFunc = func(engine.Descriptor) engine.SupportReport {
		return engine.SupportReport{Supported: false}
	}
	report := f.IsConfigSupported(engine.Descriptor{Codec: "avc1.42001e"})
	assert.False(t, report.Supported)
}

func TestFakeAdapter_FlushHonorsContextCancellation(t *testing.T) {
	f := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.Flush(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.FlushCalls())
}

func TestFactory_BuildsDistinctInstances(t *testing.T) {
	factory := Factory(New)
	a := factory(engine.KindVideoEncoder)
	b := factory(engine.KindVideoEncoder)
	assert.NotSame(t, a, b)
}
