//go:build windows

package process_windows

import (
	"unsafe"

	"dwmdump/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

var (
	modntdll                     = windows.NewLazySystemDLL("ntdll.dll")
	procNtQuerySystemInformation = modntdll.NewProc("NtQuerySystemInformation")
)

const systemProcessInformation = 5

// SystemProcessQuerier reads the process table with
// NtQuerySystemInformation(SystemProcessInformation).
type SystemProcessQuerier struct {
	log *logger.Logger
}

func NewSystemProcessQuerier() *SystemProcessQuerier {
	return &SystemProcessQuerier{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "ntquery")),
	}
}

// NewEnumerator returns a process.Enumerator backed by the live process table
func NewEnumerator() *process.Enumerator {
	return process.NewEnumerator(NewSystemProcessQuerier())
}

func (q *SystemProcessQuerier) Query(buf []byte) (uint32, error) {
	var ptr unsafe.Pointer
	if len(buf) > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}

	var returned uint32
	r1, _, _ := procNtQuerySystemInformation.Call(
		uintptr(systemProcessInformation),
		uintptr(ptr),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&returned)),
	)

	size, err := queryResult(uint32(r1), returned, len(buf))
	if err == nil {
		q.log.Debugln("NtQuerySystemInformation returned", returned, "of", len(buf), "bytes")
	}
	return size, err
}
