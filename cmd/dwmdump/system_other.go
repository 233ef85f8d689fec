//go:build !windows

package main

import (
	"fmt"
	"runtime"
)

func getPlatform() (*platform, error) {
	return nil, fmt.Errorf("dumping is not supported on %s", runtime.GOOS)
}
