package trust

import (
	"errors"
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var (
	// ErrQuery is returned when the caller's integrity label cannot be read.
	ErrQuery = errors.New("trust level query failed")

	// ErrInsufficientTrust is returned when the caller runs below High.
	ErrInsufficientTrust = errors.New("insufficient trust level")
)

// RankQuerier reads the mandatory label RID of the caller's own token.
type RankQuerier interface {
	MandatoryRank() (uint32, error)
}

// Gate reports the caller's trust level
type Gate struct {
	querier RankQuerier
	log     *logger.Logger
}

func NewGate(querier RankQuerier) *Gate {
	return &Gate{
		querier: querier,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "trust")),
	}
}

// CurrentTrustLevel returns the caller's trust level
func (g *Gate) CurrentTrustLevel() (Level, error) {
	rank, err := g.querier.MandatoryRank()
	if err != nil {
		return Untrusted, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	level := FromRank(rank)
	g.log.Debugln("mandatory label rank", fmt.Sprintf("0x%04x", rank), "maps to", level)
	return level, nil
}

// IsPrivileged reports whether the caller's trust level is privileged
func (g *Gate) IsPrivileged() (bool, error) {
	level, err := g.CurrentTrustLevel()
	if err != nil {
		return false, err
	}
	return level.IsPrivileged(), nil
}
