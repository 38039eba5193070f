// Package savestate stores dmg.State snapshots on disk.
//
// A file is a 4 byte magic, a little endian uint32 version, then the state
// as a gzip compressed gob stream.
package savestate

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valerio/go-dmgcore/dmg"
)

const (
	magic   = "DMGS"
	version = 1
)

var (
	ErrFormat  = errors.New("not a save state")
	ErrVersion = errors.New("unsupported save state version")
)

// Save writes s to w.
func Save(w io.Writer, s dmg.State) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(version)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	gz := gzip.NewWriter(w)
	if err := gob.NewEncoder(gz).Encode(s); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress state: %w", err)
	}
	return nil
}

// Load reads a state written by Save.
func Load(r io.Reader) (dmg.State, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return dmg.State{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if string(head) != magic {
		return dmg.State{}, fmt.Errorf("%w: magic %q", ErrFormat, head)
	}
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return dmg.State{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if v != version {
		return dmg.State{}, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return dmg.State{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer gz.Close()

	var s dmg.State
	if err := gob.NewDecoder(gz).Decode(&s); err != nil {
		return dmg.State{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

// SaveFile writes s to path. The file is replaced only once the state has
// been written completely.
func SaveFile(path string, s dmg.State) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := Save(w, s); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("save state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile reads a state from path.
func LoadFile(path string) (dmg.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return dmg.State{}, fmt.Errorf("load state: %w", err)
	}
	defer f.Close()
	return Load(bufio.NewReader(f))
}
