//go:build !ebiten

package window

import (
	"errors"

	"github.com/valerio/go-dmgcore/dmg/backend"
)

const Available = false

var errUnavailable = errors.New("built without window support, rebuild with -tags ebiten")

func Run(*backend.Session, backend.Config, bool) error {
	return errUnavailable
}
