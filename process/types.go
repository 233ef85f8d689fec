package process

import "fmt"

// IdleProcessName is reported for the record with process id 0. The kernel
// leaves that record's image name empty.
const IdleProcessName = "System Idle Process"

// ProcessID is an operating-system process identifier
type ProcessID uint32

// SessionID identifies a logon session
type SessionID uint32

// ProcessRecord is one entry of a process snapshot
type ProcessRecord struct {
	Name      string
	ProcessID ProcessID
	SessionID SessionID
}

func (r ProcessRecord) String() string {
	return fmt.Sprintf("%s (pid %d, session %d)", r.Name, r.ProcessID, r.SessionID)
}

// IsIdle reports whether r is the synthetic idle-process record
func (r ProcessRecord) IsIdle() bool {
	return r.ProcessID == 0
}
