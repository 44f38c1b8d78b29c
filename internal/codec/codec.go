// Package codec provides the codec string registry, pixel format table,
// and scalability-mode temporal layer pattern used by the pipelines in
// internal/pipeline and by VideoEncoder/VideoDecoder isConfigSupported.
package codec

import "strings"

// Kind distinguishes a video codec string from an audio one.
type Kind int

// Codec kinds.
const (
	KindVideo Kind = iota
	KindAudio
)

// Descriptor is what the registry knows about a recognized codec string
// prefix: its canonical family name and which engine kind handles it.
type Descriptor struct {
	// Family is the canonical codec family (h264, h265, vp8, vp9, av1,
	// aac, opus, vorbis, flac, pcm).
	Family string
	Kind   Kind
	// SupportsBitstreamFormat marks families whose encoders accept the
	// avc.format/hevc.format non-AnnexB bitstream option.
	SupportsBitstreamFormat bool
}

// registryEntry pairs a prefix-matcher with a Descriptor. WebCodecs
// codec strings carry profile/level suffixes (avc1.42001e, vp09.00.10.08,
// mp4a.40.2) so matching is by prefix, longest first.
type registryEntry struct {
	prefix string
	desc   Descriptor
}

var registry = []registryEntry{
	{"avc1", Descriptor{Family: "h264", Kind: KindVideo, SupportsBitstreamFormat: true}},
	{"avc3", Descriptor{Family: "h264", Kind: KindVideo, SupportsBitstreamFormat: true}},
	{"hev1", Descriptor{Family: "h265", Kind: KindVideo, SupportsBitstreamFormat: true}},
	{"hvc1", Descriptor{Family: "h265", Kind: KindVideo, SupportsBitstreamFormat: true}},
	{"vp8", Descriptor{Family: "vp8", Kind: KindVideo}},
	{"vp09", Descriptor{Family: "vp9", Kind: KindVideo}},
	{"av01", Descriptor{Family: "av1", Kind: KindVideo}},
	{"mp4a.40", Descriptor{Family: "aac", Kind: KindAudio}},
	{"mp4a.67", Descriptor{Family: "aac", Kind: KindAudio}},
	{"opus", Descriptor{Family: "opus", Kind: KindAudio}},
	{"vorbis", Descriptor{Family: "vorbis", Kind: KindAudio}},
	{"flac", Descriptor{Family: "flac", Kind: KindAudio}},
	{"ulaw", Descriptor{Family: "pcm", Kind: KindAudio}},
	{"alaw", Descriptor{Family: "pcm", Kind: KindAudio}},
	{"pcm-", Descriptor{Family: "pcm", Kind: KindAudio}},
}

// Lookup resolves a WebCodecs codec string (e.g. "avc1.42001e",
// "vp09.00.10.08", "mp4a.40.2") to a Descriptor. ok is false for
// unrecognized strings — callers must treat that as "unsupported", not
// as an error to propagate.
func Lookup(codecString string) (Descriptor, bool) {
	s := strings.ToLower(strings.TrimSpace(codecString))
	best := -1
	var bestDesc Descriptor
	for _, e := range registry {
		if strings.HasPrefix(s, e.prefix) && len(e.prefix) > best {
			best = len(e.prefix)
			bestDesc = e.desc
		}
	}
	if best < 0 {
		return Descriptor{}, false
	}
	return bestDesc, true
}

// IsVideo reports whether a recognized codec string names a video codec.
func IsVideo(codecString string) bool {
	d, ok := Lookup(codecString)
	return ok && d.Kind == KindVideo
}

// IsAudio reports whether a recognized codec string names an audio codec.
func IsAudio(codecString string) bool {
	d, ok := Lookup(codecString)
	return ok && d.Kind == KindAudio
}

// ScalabilityPattern maps a scalabilityMode identifier to its
// frame-index -> temporal-layer-id cycle. An unrecognized mode yields
// the trivial single-layer pattern [0], matching "L1T1" and the unset
// default.
func ScalabilityPattern(mode string) []int {
	switch mode {
	case "L1T2":
		return []int{0, 1}
	case "L1T3":
		return []int{0, 2, 1, 2}
	case "L1T1", "":
		return []int{0}
	default:
		return []int{0}
	}
}

// TemporalLayerID returns the svc.temporalLayerId for the frameIndex-th
// output under the given scalabilityMode, looked up by frameIndex mod
// pattern length.
func TemporalLayerID(mode string, frameIndex int) int {
	pattern := ScalabilityPattern(mode)
	if len(pattern) == 0 {
		return 0
	}
	idx := frameIndex % len(pattern)
	if idx < 0 {
		idx += len(pattern)
	}
	return pattern[idx]
}
