package process

import "math/bits"

// RecordLayout holds the byte offsets of the SYSTEM_PROCESS_INFORMATION fields
// the decoder reads. HeaderSize is the fixed part that precedes the thread array.
type RecordLayout struct {
	HeaderSize  uint64
	PointerSize uint64
	NameLength  uint64 // ImageName.Length, bytes
	NameBuffer  uint64 // ImageName.Buffer, absolute pointer
	ProcessID   uint64 // UniqueProcessId, pointer sized
	SessionID   uint64 // SessionId, uint32
}

var Layout64 = RecordLayout{
	HeaderSize:  0x100,
	PointerSize: 8,
	NameLength:  0x38,
	NameBuffer:  0x40,
	ProcessID:   0x50,
	SessionID:   0x64,
}

var Layout32 = RecordLayout{
	HeaderSize:  0xB8,
	PointerSize: 4,
	NameLength:  0x38,
	NameBuffer:  0x3C,
	ProcessID:   0x44,
	SessionID:   0x50,
}

// NativeLayout returns the layout matching the pointer width of this build.
func NativeLayout() RecordLayout {
	if bits.UintSize == 32 {
		return Layout32
	}
	return Layout64
}
