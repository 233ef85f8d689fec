//go:build windows

package process_windows

import (
	"fmt"
	"runtime"
	"unsafe"

	"dwmdump/trigger"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

var (
	moduser32            = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey   = moduser32.NewProc("RegisterHotKey")
	procUnregisterHotKey = moduser32.NewProc("UnregisterHotKey")
	procGetMessageW      = moduser32.NewProc("GetMessageW")
	procDispatchMessageW = moduser32.NewProc("DispatchMessageW")
)

type point struct {
	x, y int32
}

type msg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// HotKeySource waits for a global hot-key. Messages for the hot-key are
// delivered to the registering thread, so the source pins the calling
// goroutine to its OS thread until Close; Wait and Close must be called from
// that same goroutine.
type HotKeySource struct {
	key        trigger.HotKey
	registered bool
	log        *logger.Logger
}

// OpenHotKey returns a trigger.OpenFunc registering key when called
func OpenHotKey(key trigger.HotKey) trigger.OpenFunc {
	return func() (trigger.Source, error) {
		return NewHotKeySource(key)
	}
}

func NewHotKeySource(key trigger.HotKey) (*HotKeySource, error) {
	runtime.LockOSThread()

	ret, _, err := procRegisterHotKey.Call(0, hotKeyID, uintptr(key.Modifiers)|MOD_NOREPEAT, uintptr(key.Key))
	if ret == 0 {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("RegisterHotKey %s failed: %w", key, err)
	}

	s := &HotKeySource{
		key:        key,
		registered: true,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "hotkey")),
	}
	s.log.Debugln("registered", key)
	return s, nil
}

func (s *HotKeySource) Wait() (trigger.Event, error) {
	if !s.registered {
		return 0, trigger.ErrSourceClosed
	}

	var m msg
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		fire, err := classifyMessage(int32(ret), callErr, m.message, m.wParam)
		if err != nil {
			return 0, err
		}
		if fire {
			return trigger.HotKeyFired, nil
		}
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *HotKeySource) Close() error {
	if !s.registered {
		return nil
	}
	s.registered = false
	defer runtime.UnlockOSThread()

	ret, _, err := procUnregisterHotKey.Call(0, hotKeyID)
	if ret == 0 {
		return fmt.Errorf("UnregisterHotKey failed: %w", err)
	}
	return nil
}
