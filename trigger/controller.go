package trigger

import (
	"errors"
	"fmt"

	"dwmdump/minidump"
	"dwmdump/privilege"
	"dwmdump/process"
	"dwmdump/trust"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultTarget is the image-name prefix dumped when none is configured
const DefaultTarget = "dwm.exe"

type TrustGate interface {
	CurrentTrustLevel() (trust.Level, error)
}

type Elevator interface {
	SetPrivilege(name string, enable bool) error
}

type Finder interface {
	Find(prefix string, session process.SessionID) (process.ProcessRecord, bool, error)
}

type Dumper interface {
	AcquireDump(req minidump.Request) error
}

// SessionResolver returns the interactive session of the calling process
type SessionResolver interface {
	CurrentSession() (process.SessionID, error)
}

// Options select what gets dumped and where
type Options struct {
	Target    string // image-name prefix, case-sensitive
	Output    string // absolute path of the dump file
	PID       uint32 // when non-zero, dump this pid and skip the lookup
	Privilege string
}

// Controller runs the pipeline: trust check, privilege, then one dump per
// trigger firing.
type Controller struct {
	gate     TrustGate
	elevator Elevator
	finder   Finder
	dumper   Dumper
	sessions SessionResolver
	options  Options
	log      *logger.Logger

	level   trust.Level
	session process.SessionID
}

func NewController(gate TrustGate, elevator Elevator, finder Finder, dumper Dumper, sessions SessionResolver, options Options) *Controller {
	if options.Target == "" {
		options.Target = DefaultTarget
	}
	if options.Privilege == "" {
		options.Privilege = privilege.DebugPrivilege
	}
	return &Controller{
		gate:     gate,
		elevator: elevator,
		finder:   finder,
		dumper:   dumper,
		sessions: sessions,
		options:  options,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "controller")),
	}
}

// Level returns the trust level observed by the last Run
func (c *Controller) Level() trust.Level {
	return c.level
}

// Run checks the caller's trust level, enables the configured privilege and
// then waits on the source returned by open. The first firing dumps the target
// and ends the run; any failure is returned and nothing is retried.
func (c *Controller) Run(open OpenFunc) error {
	level, err := c.gate.CurrentTrustLevel()
	if err != nil {
		c.log.Warn(fmt.Sprintf("treating caller as %s: %v", trust.Untrusted, err))
		level = trust.Untrusted
	}
	c.level = level
	if !level.IsPrivileged() {
		return fmt.Errorf("%w: running at %s, need %s or above", trust.ErrInsufficientTrust, level, trust.High)
	}

	if err := c.elevator.SetPrivilege(c.options.Privilege, true); err != nil {
		return err
	}

	if c.options.PID == 0 {
		session, err := c.sessions.CurrentSession()
		if err != nil {
			return err
		}
		c.session = session
		c.log.Debugln("looking for", c.options.Target, "in session", session)
	}

	source, err := open()
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			c.log.Warn(fmt.Sprintf("closing trigger source failed: %v", err))
		}
	}()

	// Every firing either dumps or fails, so one wait is the whole loop.
	event, err := source.Wait()
	if errors.Is(err, ErrSourceClosed) {
		return fmt.Errorf("%w before any trigger fired", ErrSourceClosed)
	}
	if err != nil {
		return err
	}

	c.log.Infoln("trigger fired:", event)
	return c.fire()
}

func (c *Controller) fire() error {
	pid := c.options.PID
	if pid == 0 {
		record, ok, err := c.finder.Find(c.options.Target, c.session)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no %q in session %d", process.ErrNotFound, c.options.Target, c.session)
		}
		c.log.Infoln("found", record)
		pid = uint32(record.ProcessID)
	}

	return c.dumper.AcquireDump(minidump.NewRequest(pid, c.options.Output))
}
