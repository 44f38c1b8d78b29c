package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopAdapter struct{}

func (noopAdapter) Configure(Descriptor) error                { return nil }
func (noopAdapter) PushInput(Input) error                     { return nil }
func (noopAdapter) PullOutput() (Output, bool)                { return Output{}, false }
func (noopAdapter) Flush(context.Context) error               { return nil }
func (noopAdapter) Reset()                                    {}
func (noopAdapter) IsConfigSupported(Descriptor) SupportReport { return SupportReport{Supported: true} }

func TestRegisterAndLookup(t *testing.T) {
	Register("test-noop", func(PipelineKind) Adapter { return noopAdapter{} })

	factory, ok := Lookup("test-noop")
	require.True(t, ok)
	assert.NotNil(t, factory(KindVideoEncoder))
}

func TestLookup_UnknownNameNotFound(t *testing.T) {
	_, ok := Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestCanonicalizeCodec_UnrecognizedNeverErrors(t *testing.T) {
	_, ok := CanonicalizeCodec("totally-bogus-codec-string")
	assert.False(t, ok)
}
