// Package minidump writes a memory dump of another process to a file.
package minidump

import (
	"errors"
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ErrDump is returned when the process cannot be opened, the file cannot be
// created, or the dump writer fails.
var ErrDump = errors.New("memory dump failed")

// Handle is an opaque operating-system handle
type Handle uintptr

// System provides the platform calls behind a dump.
type System interface {
	// OpenProcess opens pid for query-information and memory-read access only.
	OpenProcess(pid uint32) (Handle, error)

	// CreateFile creates or truncates path for reading and writing.
	CreateFile(path string) (Handle, error)

	// WriteDump writes a dump of process into file.
	WriteDump(process Handle, pid uint32, file Handle, features Feature) error

	CloseHandle(h Handle) error
}

// Request describes one dump to take. Build a new one per trigger firing.
type Request struct {
	ProcessID uint32
	Path      string
	Features  Feature
}

// NewRequest returns a request for a full-featured dump of pid into path
func NewRequest(pid uint32, path string) Request {
	return Request{
		ProcessID: pid,
		Path:      path,
		Features:  FullFeatures,
	}
}

// Acquirer takes dumps through a System
type Acquirer struct {
	sys System
	log *logger.Logger
}

func NewAcquirer(sys System) *Acquirer {
	return &Acquirer{
		sys: sys,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "minidump")),
	}
}

// AcquireDump writes the dump described by req. Both handles it opens are
// closed before it returns, whatever the outcome, file first.
func (a *Acquirer) AcquireDump(req Request) error {
	if req.ProcessID == 0 {
		return fmt.Errorf("%w: refusing to dump pid 0", ErrDump)
	}
	if req.Path == "" {
		return fmt.Errorf("%w: empty destination path", ErrDump)
	}

	// This fails without debug privilege or with too low a trust level.
	process, err := a.sys.OpenProcess(req.ProcessID)
	if err != nil {
		return fmt.Errorf("%w: open process %d: %w", ErrDump, req.ProcessID, err)
	}
	defer a.release("process", process)

	file, err := a.sys.CreateFile(req.Path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrDump, req.Path, err)
	}
	defer a.release("file", file)

	a.log.Infoln("Writing dump of pid", req.ProcessID, "to", req.Path, "with", req.Features)
	if err := a.sys.WriteDump(process, req.ProcessID, file, req.Features); err != nil {
		return fmt.Errorf("%w: write dump of pid %d: %w", ErrDump, req.ProcessID, err)
	}

	return nil
}

func (a *Acquirer) release(what string, h Handle) {
	if err := a.sys.CloseHandle(h); err != nil {
		a.log.Warn(fmt.Sprintf("closing %s handle 0x%x failed: %v", what, uintptr(h), err))
	}
}
