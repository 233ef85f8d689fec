package process

import (
	"fmt"

	"dwmdump/process_blob"
)

// MalformedRecordError describes a record that could not be decoded without
// reading outside the snapshot buffer.
type MalformedRecordError struct {
	Offset uint64 // byte offset of the record within the snapshot
	Reason string
	Window []byte // raw bytes starting at the record, clipped to the buffer

	// Field and FieldSize locate the offending header field within Window.
	// FieldSize is zero when the header itself is cut short.
	Field     uint64
	FieldSize uint64
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%v: record at offset 0x%x: %s", ErrMalformedSnapshot, e.Offset, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedSnapshot
}

// Snapshot is one point-in-time copy of the system process table. Pointers
// embedded in the records are absolute and resolve against the base address
// the buffer had when the kernel filled it.
type Snapshot struct {
	blob   *process_blob.ProcessBlob
	layout RecordLayout
}

func NewSnapshot(data []byte, base uint64, layout RecordLayout) *Snapshot {
	return &Snapshot{
		blob:   process_blob.NewProcessBlob(process_blob.Address(base), data),
		layout: layout,
	}
}

// Size returns the number of bytes in the snapshot
func (s *Snapshot) Size() int {
	return len(s.blob.Data())
}

// Walk decodes the record chain in order and calls fn for each record until fn
// returns false. Every record is validated against the buffer before it is
// read; the first violation stops the walk with a *MalformedRecordError.
func (s *Snapshot) Walk(fn func(ProcessRecord) bool) error {
	size := uint64(s.Size())
	if size == 0 {
		return nil
	}

	var offset uint64
	for {
		record, next, err := s.decode(offset)
		if err != nil {
			return err
		}
		if !fn(record) {
			return nil
		}
		if next == 0 {
			return nil
		}

		// Each step moves forward by at least a header, so the chain is acyclic
		// and ends within size/HeaderSize steps.
		if next < s.layout.HeaderSize {
			return s.malformed(offset, 0, 4, fmt.Sprintf("next offset 0x%x shorter than header", next))
		}
		if next >= size-offset {
			return s.malformed(offset, 0, 4, fmt.Sprintf("next offset 0x%x past end of buffer", next))
		}
		offset += next
	}
}

// Records decodes the whole chain
func (s *Snapshot) Records() ([]ProcessRecord, error) {
	var records []ProcessRecord
	err := s.Walk(func(r ProcessRecord) bool {
		records = append(records, r)
		return true
	})
	return records, err
}

func (s *Snapshot) decode(offset uint64) (ProcessRecord, uint64, error) {
	header, err := s.blob.OffsetBlob(process_blob.Size(offset), process_blob.Size(s.layout.HeaderSize))
	if err != nil {
		return ProcessRecord{}, 0, s.malformed(offset, 0, 0, "header extends past end of buffer")
	}

	// The header fits, so these reads cannot fail.
	next, _ := header.OffsetUINT32(0)
	pid, _ := header.OffsetPOINTER(process_blob.Size(s.layout.ProcessID), process_blob.Size(s.layout.PointerSize))
	session, _ := header.OffsetUINT32(process_blob.Size(s.layout.SessionID))

	record := ProcessRecord{
		ProcessID: ProcessID(pid),
		SessionID: SessionID(session),
	}

	if record.IsIdle() {
		record.Name = IdleProcessName
		return record, uint64(next), nil
	}

	nameLength, _ := header.OffsetUINT16(process_blob.Size(s.layout.NameLength))
	nameBuffer, _ := header.OffsetPOINTER(process_blob.Size(s.layout.NameBuffer), process_blob.Size(s.layout.PointerSize))
	if nameLength == 0 || nameBuffer == 0 {
		return record, uint64(next), nil
	}

	// The name cell is reused across process lifetimes and may hold the tail of
	// a longer previous name after a NUL; ReadUTF16NTS stops at the NUL.
	name, err := s.blob.ReadUTF16NTS(nameBuffer, process_blob.Size(nameLength))
	if err != nil {
		return ProcessRecord{}, 0, s.malformed(offset, s.layout.NameBuffer, s.layout.PointerSize, fmt.Sprintf("image name 0x%x+%d outside buffer", uint64(nameBuffer), nameLength))
	}
	record.Name = name

	return record, uint64(next), nil
}

func (s *Snapshot) malformed(offset, field, fieldSize uint64, reason string) error {
	return &MalformedRecordError{
		Offset:    offset,
		Reason:    reason,
		Window:    s.blob.Window(process_blob.Size(offset), process_blob.Size(s.layout.HeaderSize)),
		Field:     field,
		FieldSize: fieldSize,
	}
}
