package sound

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmgcore/dmg/audio"
)

func TestQueueReaderPadsWithSilence(t *testing.T) {
	q := audio.NewSampleQueue(16)
	q.Push(-2, 1)
	q.Push(0x1234, -1)

	r := newQueueReader(q)
	p := make([]byte, 16)
	for i := range p {
		p[i] = 0xAA
	}
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	got := make([]int16, 8)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(p[i*2:]))
	}
	assert.Equal(t, []int16{1, -2, -1, 0x1234, 0, 0, 0, 0}, got)
	assert.Zero(t, q.Len())
}

func TestWAVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := CreateWAV(path)
	require.NoError(t, err)

	sink := rec.Sink()
	const pairs = chunkPairs + 10
	for i := range pairs {
		sink(int16(-i), int16(i))
	}
	assert.Equal(t, uint64(pairs), rec.Pairs())
	require.NoError(t, rec.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint32(audio.SampleRate), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	require.Len(t, buf.Data, pairs*2)
	assert.Equal(t, []int{0, 0, 1, -1, 2, -2}, buf.Data[:6])
	assert.Equal(t, []int{pairs - 1, 1 - pairs}, buf.Data[len(buf.Data)-2:])
}
