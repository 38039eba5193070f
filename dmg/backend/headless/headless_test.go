package headless

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/debug"
	"github.com/valerio/go-dmgcore/dmg/memory"
)

func newSystem(t *testing.T, r *Runner, program ...uint8) *dmg.DMG {
	t.Helper()
	rom := make([]byte, 2*memory.ROMBankSize)
	copy(rom[addr.HeaderTitle:], "HEADLESS")
	copy(rom[0x0100:], program)
	d, err := dmg.New(rom, dmg.WithFrameSink(r.Present))
	require.NoError(t, err)
	return d
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(0, 0, "", "game.gb")
	assert.Error(t, err)

	cfg, err := NewConfig(10, 0, "", "roms/game.gb")
	require.NoError(t, err)
	assert.Equal(t, Config{Frames: 10}, cfg)

	dir := filepath.Join(t.TempDir(), "shots")
	cfg, err = NewConfig(10, 5, dir, "roms/game.gb")
	require.NoError(t, err)
	assert.Equal(t, "game", cfg.ROMName)
	assert.DirExists(t, dir)
}

func TestRunSavesSnapshots(t *testing.T) {
	dir := t.TempDir()
	r := New(Config{Frames: 5, SnapshotInterval: 2, SnapshotDir: dir, ROMName: "spin"})
	d := newSystem(t, r, 0x18, 0xFE)

	require.NoError(t, r.Run(context.Background(), d))
	assert.Equal(t, 5, r.Frames())
	assert.Equal(t, uint64(5), d.Frames())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"spin_frame_2.png", "spin_frame_4.png", "spin_frame_5.png"}, names)
}

func TestRunStopsOnBreakpoint(t *testing.T) {
	r := New(Config{Frames: 1000})
	d := newSystem(t, r, 0x00, 0x00, 0x18, 0xFE)
	require.NoError(t, d.Debugger().AddBreakpoint(0x0101))

	require.NoError(t, r.Run(context.Background(), d))
	assert.Equal(t, debug.HitBreakpoint, d.Debugger().LastHit().Kind)
	assert.Equal(t, uint16(0x0101), d.CPU().PC())
	assert.Zero(t, r.Frames())
}

func TestRunReturnsExecutionError(t *testing.T) {
	r := New(Config{Frames: 3})
	d := newSystem(t, r, 0xD3)
	assert.Error(t, r.Run(context.Background(), d))
}
