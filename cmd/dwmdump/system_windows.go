//go:build windows

package main

import (
	"dwmdump/process_windows"
)

func getPlatform() (*platform, error) {
	enumerator := process_windows.NewEnumerator()
	return &platform{
		gate:     process_windows.NewGate(),
		elevator: process_windows.NewElevator(),
		finder:   enumerator,
		dumper:   process_windows.NewAcquirer(),
		sessions: process_windows.SessionResolver{},
		lister:   enumerator,
		hotKey:   process_windows.OpenHotKey,
	}, nil
}
