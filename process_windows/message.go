package process_windows

import (
	"fmt"

	"dwmdump/trigger"
)

const (
	WM_HOTKEY    = 0x0312
	MOD_NOREPEAT = 0x4000

	hotKeyID = 1
)

// classifyMessage decides what Wait does with one GetMessageW result. fire is
// set for this source's WM_HOTKEY; a nil error with fire unset means the
// message is dispatched and the wait goes on.
func classifyMessage(ret int32, lastErr error, message uint32, wParam uintptr) (fire bool, err error) {
	switch ret {
	case -1:
		return false, fmt.Errorf("GetMessageW failed: %w", lastErr)
	case 0:
		// WM_QUIT
		return false, trigger.ErrSourceClosed
	}
	return message == WM_HOTKEY && wParam == hotKeyID, nil
}
