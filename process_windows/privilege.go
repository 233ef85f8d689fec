//go:build windows

package process_windows

import (
	"fmt"
	"unsafe"

	"dwmdump/privilege"

	"golang.org/x/sys/windows"
)

// TokenAdjuster toggles privileges on the current process token.
type TokenAdjuster struct{}

// NewElevator returns a privilege.Elevator over the current process token
func NewElevator() *privilege.Elevator {
	return privilege.NewElevator(TokenAdjuster{})
}

func (TokenAdjuster) AdjustPrivilege(name string, enable bool) error {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token); err != nil {
		return fmt.Errorf("OpenProcessToken failed: %w", err)
	}
	defer token.Close()

	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}

	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, namep, &luid); err != nil {
		return fmt.Errorf("LookupPrivilegeValue failed: %w", err)
	}

	var attributes uint32
	if enable {
		attributes = windows.SE_PRIVILEGE_ENABLED
	}
	privileges := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{Luid: luid, Attributes: attributes},
		},
	}

	// A privilege the token does not hold still reports success here.
	if err := windows.AdjustTokenPrivileges(token, false, &privileges, uint32(unsafe.Sizeof(privileges)), nil, nil); err != nil {
		return fmt.Errorf("AdjustTokenPrivileges failed: %w", err)
	}
	return nil
}
