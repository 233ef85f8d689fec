package minidump

import (
	"fmt"
	"strings"
)

// Feature is a MINIDUMP_TYPE flag set
type Feature uint32

const (
	WithFullMemory       Feature = 0x00000002
	WithHandleData       Feature = 0x00000004
	WithUnloadedModules  Feature = 0x00000020
	WithFullMemoryInfo   Feature = 0x00000800
	WithThreadInfo       Feature = 0x00001000
	WithTokenInformation Feature = 0x00040000
	WithAvxXStateContext Feature = 0x00200000
	WithIptTrace         Feature = 0x00400000
)

// FullFeatures favors completeness over size: dumps are analyzed offline
// after the fact, not collected routinely.
const FullFeatures = WithFullMemory |
	WithHandleData |
	WithUnloadedModules |
	WithFullMemoryInfo |
	WithThreadInfo |
	WithTokenInformation |
	WithAvxXStateContext |
	WithIptTrace

var featureNames = []struct {
	flag Feature
	name string
}{
	{WithFullMemory, "FullMemory"},
	{WithHandleData, "HandleData"},
	{WithUnloadedModules, "UnloadedModules"},
	{WithFullMemoryInfo, "FullMemoryInfo"},
	{WithThreadInfo, "ThreadInfo"},
	{WithTokenInformation, "TokenInformation"},
	{WithAvxXStateContext, "AvxXStateContext"},
	{WithIptTrace, "IptTrace"},
}

func (f Feature) String() string {
	if f == 0 {
		return "Normal"
	}
	var parts []string
	for _, fn := range featureNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
			f &^= fn.flag
		}
	}
	if f != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint32(f)))
	}
	return strings.Join(parts, "|")
}
