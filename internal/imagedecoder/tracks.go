package imagedecoder

import "sync"

// Track is one entry of an ImageTrackList: a container's encoded image
// track (most formats expose exactly one; an animated GIF's single
// track reports its frame count and loop behavior).
type Track struct {
	Animated        bool
	FrameCount      int
	RepetitionCount float64 // math.Inf(1) for "loop forever"

	mu       sync.Mutex
	selected bool
	closed   bool
}

// Selected reports whether this track is the active one.
func (t *Track) Selected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected
}

// SetSelected sets the selection state. After the owning decoder is
// closed, writes are silent no-ops.
func (t *Track) SetSelected(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.selected = v
}

func (t *Track) markClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// TrackList is the ordered, singly-selectable set of tracks a container
// exposes. WebCodecs containers modeled here always carry exactly one
// track, selected by default.
type TrackList struct {
	mu     sync.Mutex
	tracks []*Track
	ready  chan struct{}
}

func newTrackList() *TrackList {
	return &TrackList{ready: make(chan struct{})}
}

func (l *TrackList) populate(tracks []*Track) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = tracks
	if len(tracks) > 0 {
		tracks[0].selected = true
	}
	close(l.ready)
}

// Ready returns a channel that closes once every track's metadata is
// known (immediately after the decoder finishes ingesting and parsing
// its container).
func (l *TrackList) Ready() <-chan struct{} {
	return l.ready
}

// Length returns the number of tracks, or 0 before Ready closes.
func (l *TrackList) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tracks)
}

// At returns the track at index, or nil if out of range.
func (l *TrackList) At(index int) *Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.tracks) {
		return nil
	}
	return l.tracks[index]
}

// SelectedIndex returns the index of the selected track, or -1 if none.
func (l *TrackList) SelectedIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.tracks {
		if t.Selected() {
			return i
		}
	}
	return -1
}

// SelectedTrack returns the selected track, or nil if none.
func (l *TrackList) SelectedTrack() *Track {
	idx := l.SelectedIndex()
	if idx < 0 {
		return nil
	}
	return l.At(idx)
}

func (l *TrackList) markClosed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.tracks {
		t.markClosed()
	}
}
