//go:build headless

package sound

import (
	"time"

	"github.com/valerio/go-dmgcore/dmg/audio"
)

// Player drains the queue without a device, for builds without audio.
type Player struct {
	reader *queueReader
	done   chan struct{}
}

func NewPlayer(q *audio.SampleQueue) (*Player, error) {
	return &Player{reader: newQueueReader(q)}, nil
}

func (p *Player) Start() {
	if p.done != nil {
		return
	}
	p.done = make(chan struct{})
	go func() {
		buf := make([]byte, 4096)
		t := time.NewTicker(time.Second * 1024 / audio.SampleRate)
		defer t.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-t.C:
				p.reader.Read(buf)
			}
		}
	}()
}

func (p *Player) Close() error {
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	return nil
}
