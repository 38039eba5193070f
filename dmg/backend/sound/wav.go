package sound

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/valerio/go-dmgcore/dmg/audio"
)

const (
	// chunkPairs is how many sample pairs are buffered between writes.
	chunkPairs = 4096
	pcmFormat  = 1
)

// WAVRecorder is a sample sink writing 16 bit stereo PCM at the emulated
// sample rate. It must only be fed from the emulation goroutine, and closed
// once emulation has stopped.
type WAVRecorder struct {
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	closer io.Closer
	pairs  uint64
	err    error
}

// NewWAVRecorder encodes to w. The header is finalized on Close, so w must
// support seeking.
func NewWAVRecorder(w io.WriteSeeker) *WAVRecorder {
	return &WAVRecorder{
		enc: wav.NewEncoder(w, audio.SampleRate, 16, 2, pcmFormat),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: audio.SampleRate},
			Data:           make([]int, 0, chunkPairs*2),
			SourceBitDepth: 16,
		},
	}
}

// CreateWAV records to a new file at path.
func CreateWAV(path string) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	r := NewWAVRecorder(f)
	r.closer = f
	return r, nil
}

// Sink adapts the recorder to a SampleSink. Write errors are kept and
// returned by Close; samples after an error are dropped.
func (r *WAVRecorder) Sink() audio.SampleSink {
	return func(right, left int16) {
		if r.err != nil {
			return
		}
		r.buf.Data = append(r.buf.Data, int(left), int(right))
		r.pairs++
		if len(r.buf.Data) >= chunkPairs*2 {
			r.flush()
		}
	}
}

func (r *WAVRecorder) flush() {
	if len(r.buf.Data) == 0 {
		return
	}
	if err := r.enc.Write(r.buf); err != nil {
		r.err = fmt.Errorf("write wav: %w", err)
	}
	r.buf.Data = r.buf.Data[:0]
}

// Pairs returns the number of sample pairs recorded.
func (r *WAVRecorder) Pairs() uint64 { return r.pairs }

// Close writes any buffered samples and finalizes the header.
func (r *WAVRecorder) Close() error {
	r.flush()
	if err := r.enc.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("finalize wav: %w", err)
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
	}
	if r.err == nil {
		slog.Debug("wav recording closed", "pairs", r.pairs)
	}
	return r.err
}
