// Package process_blob provides a bounds-checked view over a byte buffer whose
// contents are addressed from a base address, such as a buffer filled by the
// kernel with structures that point back into themselves.
package process_blob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

// ErrOutOfBounds is returned when a read would touch bytes outside the blob.
var ErrOutOfBounds = errors.New("address out of bounds")

// Address is an absolute address inside the blob's address range.
type Address uint64

// Size is a byte count.
type Size uint64

type ProcessBlob struct {
	baseaddress Address
	data        []byte
}

func NewProcessBlob(baseAddress Address, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() Address {
	return p.baseaddress
}

func (p *ProcessBlob) Len() Size {
	return Size(len(p.data))
}

// Contains reports whether [addr, addr+size) lies entirely inside the blob.
// It never overflows, whatever addr and size hold.
func (p *ProcessBlob) Contains(addr Address, size Size) bool {
	if addr < p.baseaddress {
		return false
	}
	offset := uint64(addr - p.baseaddress)
	length := uint64(len(p.data))
	if offset > length {
		return false
	}
	return uint64(size) <= length-offset
}

// ReadMemory returns a sub-slice of the blob. The result aliases the blob.
func (p *ProcessBlob) ReadMemory(addr Address, size Size) ([]byte, error) {
	if !p.Contains(addr, size) {
		return nil, fmt.Errorf("%w: 0x%x+%d outside 0x%x+%d", ErrOutOfBounds, uint64(addr), uint64(size), uint64(p.baseaddress), len(p.data))
	}
	offset := uint64(addr - p.baseaddress)
	return p.data[offset : offset+uint64(size)], nil
}

// ReadUINT16 reads an unsigned 16-bit integer from the specified address
func (p *ProcessBlob) ReadUINT16(addr Address) (uint16, error) {
	data, err := p.ReadMemory(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// ReadUINT32 reads an unsigned 32-bit integer from the specified address
func (p *ProcessBlob) ReadUINT32(addr Address) (uint32, error) {
	data, err := p.ReadMemory(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadUINT64 reads an unsigned 64-bit integer from the specified address
func (p *ProcessBlob) ReadUINT64(addr Address) (uint64, error) {
	data, err := p.ReadMemory(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadPOINTER reads a pointer of ptrSize bytes (4 or 8) from the specified address
func (p *ProcessBlob) ReadPOINTER(addr Address, ptrSize Size) (Address, error) {
	switch ptrSize {
	case 4:
		v, err := p.ReadUINT32(addr)
		return Address(v), err
	case 8:
		v, err := p.ReadUINT64(addr)
		return Address(v), err
	default:
		return 0, fmt.Errorf("unsupported pointer size %d", ptrSize)
	}
}

// ReadUTF16NTS reads byteLen bytes of little-endian UTF-16 and returns the text
// before the first NUL code unit. An odd trailing byte is ignored and unpaired
// surrogates decode to U+FFFD.
func (p *ProcessBlob) ReadUTF16NTS(addr Address, byteLen Size) (string, error) {
	if byteLen < 2 {
		return "", nil
	}
	data, err := p.ReadMemory(addr, byteLen&^1)
	if err != nil {
		return "", err
	}

	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		u := binary.LittleEndian.Uint16(data[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}

// OffsetUINT16 returns an unsigned 16-bit integer at offset from the base address
func (p *ProcessBlob) OffsetUINT16(offset Size) (uint16, error) {
	return p.ReadUINT16(p.baseaddress + Address(offset))
}

// OffsetUINT32 returns an unsigned 32-bit integer at offset from the base address
func (p *ProcessBlob) OffsetUINT32(offset Size) (uint32, error) {
	return p.ReadUINT32(p.baseaddress + Address(offset))
}

// OffsetUINT64 returns an unsigned 64-bit integer at offset from the base address
func (p *ProcessBlob) OffsetUINT64(offset Size) (uint64, error) {
	return p.ReadUINT64(p.baseaddress + Address(offset))
}

// OffsetPOINTER returns a pointer value at offset from the base address
func (p *ProcessBlob) OffsetPOINTER(offset Size, ptrSize Size) (Address, error) {
	return p.ReadPOINTER(p.baseaddress+Address(offset), ptrSize)
}

// OffsetBlob returns a view of size bytes at offset. The view keeps absolute
// addressing, so pointers read through it still resolve against the parent range.
func (p *ProcessBlob) OffsetBlob(offset Size, size Size) (*ProcessBlob, error) {
	addr := p.baseaddress + Address(offset)
	data, err := p.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	return NewProcessBlob(addr, data), nil
}

// Window returns at most size bytes starting at offset, clipped to the blob end.
// It is meant for diagnostics and never fails.
func (p *ProcessBlob) Window(offset Size, size Size) []byte {
	if uint64(offset) >= uint64(len(p.data)) {
		return nil
	}
	end := uint64(offset) + uint64(size)
	if end > uint64(len(p.data)) || end < uint64(offset) {
		end = uint64(len(p.data))
	}
	return p.data[offset:end]
}
