// Package process_windows implements the platform interfaces of the dump
// pipeline on top of ntdll, advapi32, dbghelp and user32.
package process_windows

import (
	"errors"
	"fmt"
	"syscall"

	"dwmdump/process"
)

const (
	STATUS_INFO_LENGTH_MISMATCH = 0xC0000004
	STATUS_BUFFER_TOO_SMALL     = 0xC0000023

	// ERROR_INSUFFICIENT_BUFFER as returned by GetTokenInformation
	errInsufficientBuffer = syscall.Errno(122)
)

// NTStatusError is a failing NTSTATUS
type NTStatusError uint32

func (s NTStatusError) Error() string {
	return fmt.Sprintf("NTSTATUS 0x%08X", uint32(s))
}

// queryResult maps the outcome of NtQuerySystemInformation into a
// process.Querier answer. Buffer-size statuses report the needed size with
// process.ErrLengthMismatch; every other failing (negative) status is fatal.
func queryResult(status uint32, returned uint32, have int) (uint32, error) {
	switch {
	case status == STATUS_INFO_LENGTH_MISMATCH || status == STATUS_BUFFER_TOO_SMALL:
		return returned, fmt.Errorf("%w: have %d bytes, need %d", process.ErrLengthMismatch, have, returned)
	case int32(status) < 0:
		return 0, fmt.Errorf("NtQuerySystemInformation failed: %w", NTStatusError(status))
	}
	return returned, nil
}

// labelSizeError checks the sizing call of GetTokenInformation. Only
// ERROR_INSUFFICIENT_BUFFER is expected there, and it must report a size.
func labelSizeError(err error, needed uint32) error {
	if err != nil && !errors.Is(err, errInsufficientBuffer) {
		return fmt.Errorf("GetTokenInformation failed: %w", err)
	}
	if needed == 0 {
		return fmt.Errorf("GetTokenInformation returned an empty integrity label")
	}
	return nil
}
