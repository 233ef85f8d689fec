// Package privilege toggles named privileges on the caller's own token.
package privilege

import (
	"errors"
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DebugPrivilege lets the holder open any process for inspection
const DebugPrivilege = "SeDebugPrivilege"

// ErrPrivilege is returned when the token cannot be opened or adjusted.
var ErrPrivilege = errors.New("privilege adjustment failed")

// Adjuster enables or disables a privilege on the caller's token.
type Adjuster interface {
	AdjustPrivilege(name string, enable bool) error
}

// Elevator changes privileges on the caller's token. It does not retry; the
// caller's trust level must be checked first, since an unelevated token has
// no right to adjust privileges at all.
type Elevator struct {
	adjuster Adjuster
	log      *logger.Logger
}

func NewElevator(adjuster Adjuster) *Elevator {
	return &Elevator{
		adjuster: adjuster,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "privilege")),
	}
}

// SetPrivilege enables or disables the named privilege
func (e *Elevator) SetPrivilege(name string, enable bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty privilege name", ErrPrivilege)
	}

	if err := e.adjuster.AdjustPrivilege(name, enable); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPrivilege, name, err)
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	e.log.Infoln(name, state)
	return nil
}
