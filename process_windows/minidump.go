//go:build windows

package process_windows

import (
	"fmt"

	"dwmdump/minidump"

	"golang.org/x/sys/windows"
)

var (
	moddbghelp            = windows.NewLazySystemDLL("dbghelp.dll")
	procMiniDumpWriteDump = moddbghelp.NewProc("MiniDumpWriteDump")
)

const (
	PROCESS_VM_READ           = 0x0010
	PROCESS_QUERY_INFORMATION = 0x0400
)

// DumpSystem implements minidump.System with kernel32 and dbghelp.
type DumpSystem struct{}

// NewAcquirer returns a minidump.Acquirer writing real dumps
func NewAcquirer() *minidump.Acquirer {
	return minidump.NewAcquirer(DumpSystem{})
}

func (DumpSystem) OpenProcess(pid uint32) (minidump.Handle, error) {
	h, err := windows.OpenProcess(PROCESS_QUERY_INFORMATION|PROCESS_VM_READ, false, pid)
	if err != nil {
		return 0, fmt.Errorf("OpenProcess failed: %w", err)
	}
	return minidump.Handle(h), nil
}

func (DumpSystem) CreateFile(path string) (minidump.Handle, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}

	h, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.CREATE_ALWAYS,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateFile failed: %w", err)
	}
	return minidump.Handle(h), nil
}

func (DumpSystem) WriteDump(process minidump.Handle, pid uint32, file minidump.Handle, features minidump.Feature) error {
	if err := procMiniDumpWriteDump.Find(); err != nil {
		return fmt.Errorf("MiniDumpWriteDump unavailable: %w", err)
	}

	ret, _, err := procMiniDumpWriteDump.Call(
		uintptr(process),
		uintptr(pid),
		uintptr(file),
		uintptr(features),
		0,
		0,
		0,
	)
	if ret == 0 {
		return fmt.Errorf("MiniDumpWriteDump failed: %w", err)
	}
	return nil
}

func (DumpSystem) CloseHandle(h minidump.Handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}
	return nil
}
