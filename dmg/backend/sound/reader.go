package sound

import (
	"encoding/binary"

	"github.com/valerio/go-dmgcore/dmg/audio"
)

// queueReader streams a sample queue as signed 16 bit little endian stereo.
// When the queue runs dry the rest of the read is silence, so the device
// never stalls waiting for emulation.
type queueReader struct {
	queue   *audio.SampleQueue
	scratch []int16
}

func newQueueReader(q *audio.SampleQueue) *queueReader {
	return &queueReader{queue: q}
}

func (r *queueReader) Read(p []byte) (int, error) {
	samples := len(p) / 2
	if cap(r.scratch) < samples {
		r.scratch = make([]int16, samples)
	}
	buf := r.scratch[:samples]

	pairs := r.queue.Pop(buf)
	clear(buf[pairs*2:])
	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return samples * 2, nil
}
