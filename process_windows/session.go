//go:build windows

package process_windows

import (
	"fmt"

	"dwmdump/process"

	"golang.org/x/sys/windows"
)

// SessionResolver reports the session of the running process
type SessionResolver struct{}

func (SessionResolver) CurrentSession() (process.SessionID, error) {
	var session uint32
	if err := windows.ProcessIdToSessionId(windows.GetCurrentProcessId(), &session); err != nil {
		return 0, fmt.Errorf("ProcessIdToSessionId failed: %w", err)
	}
	return process.SessionID(session), nil
}
