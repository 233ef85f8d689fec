//go:build windows

package process_windows

import (
	"fmt"
	"unsafe"

	"dwmdump/trust"

	"golang.org/x/sys/windows"
)

// TokenQuerier reads the mandatory integrity label of the current process token.
type TokenQuerier struct{}

// NewGate returns a trust.Gate over the current process token
func NewGate() *trust.Gate {
	return trust.NewGate(TokenQuerier{})
}

// MandatoryRank returns the last sub-authority of the token's integrity SID
func (TokenQuerier) MandatoryRank() (uint32, error) {
	token := windows.GetCurrentProcessToken()

	var needed uint32
	err := windows.GetTokenInformation(token, windows.TokenIntegrityLevel, nil, 0, &needed)
	if err := labelSizeError(err, needed); err != nil {
		return 0, err
	}

	buf := make([]byte, needed)
	if err := windows.GetTokenInformation(token, windows.TokenIntegrityLevel, &buf[0], needed, &needed); err != nil {
		return 0, fmt.Errorf("GetTokenInformation failed: %w", err)
	}

	label := (*windows.Tokenmandatorylabel)(unsafe.Pointer(&buf[0]))
	sid := label.Label.Sid
	if sid == nil || !sid.IsValid() {
		return 0, fmt.Errorf("integrity label carries no valid SID")
	}

	count := sid.SubAuthorityCount()
	if count == 0 {
		return 0, fmt.Errorf("integrity SID %s has no sub-authorities", sid)
	}
	return sid.SubAuthority(uint32(count) - 1), nil
}
