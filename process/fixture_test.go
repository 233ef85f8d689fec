package process

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// fixtureRecord describes one SYSTEM_PROCESS_INFORMATION entry to encode.
type fixtureRecord struct {
	pid     uint64
	session uint32
	name    string
	units   []uint16 // raw name cell contents, overrides name
	threads int      // bytes of fake thread array after the header
}

func (r fixtureRecord) cell() []uint16 {
	if r.units != nil {
		return r.units
	}
	return utf16.Encode([]rune(r.name))
}

func align8(n int) int {
	return (n + 7) &^ 7
}

func (r fixtureRecord) size(layout RecordLayout) int {
	return int(layout.HeaderSize) + align8(r.threads) + align8(len(r.cell())*2)
}

func fixtureSize(layout RecordLayout, records []fixtureRecord) int {
	total := 0
	for _, r := range records {
		total += r.size(layout)
	}
	return total
}

func putPointer(layout RecordLayout, b []byte, v uint64) {
	if layout.PointerSize == 4 {
		binary.LittleEndian.PutUint32(b, uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(b, v)
}

// buildSnapshot encodes records as the kernel would lay them out in a buffer
// located at base, padded with zeros to total bytes.
func buildSnapshot(layout RecordLayout, base uint64, records []fixtureRecord, total int) []byte {
	if need := fixtureSize(layout, records); total < need {
		total = need
	}
	buf := make([]byte, total)

	offset := 0
	for i, r := range records {
		header := buf[offset:]
		size := r.size(layout)
		if i < len(records)-1 {
			binary.LittleEndian.PutUint32(header[0:], uint32(size))
		}

		units := r.cell()
		cell := offset + int(layout.HeaderSize) + align8(r.threads)
		for j, u := range units {
			binary.LittleEndian.PutUint16(buf[cell+j*2:], u)
		}
		if len(units) > 0 {
			binary.LittleEndian.PutUint16(header[layout.NameLength:], uint16(len(units)*2))
			binary.LittleEndian.PutUint16(header[layout.NameLength+2:], uint16(len(units)*2))
			putPointer(layout, header[layout.NameBuffer:], base+uint64(cell))
		}
		putPointer(layout, header[layout.ProcessID:], r.pid)
		binary.LittleEndian.PutUint32(header[layout.SessionID:], r.session)

		offset += size
	}
	return buf
}

// fakeQuerier serves a fixture process table, optionally misreporting the
// first sizing answer or growing the table for a number of calls.
type fakeQuerier struct {
	layout     RecordLayout
	records    []fixtureRecord
	pad        int
	undercount int
	growFor    int
	failOn     int // call number that returns failErr
	failErr    error
	calls      int
	sizes      []int
}

func (f *fakeQuerier) total() int {
	return fixtureSize(f.layout, f.records) + f.pad
}

func (f *fakeQuerier) Query(buf []byte) (uint32, error) {
	f.calls++
	f.sizes = append(f.sizes, len(buf))
	if f.failOn == f.calls {
		return 0, f.failErr
	}
	if f.growFor > 0 {
		f.growFor--
		f.pad += 64
	}

	total := f.total()
	if len(buf) < total {
		reported := total
		if f.calls == 1 {
			reported -= f.undercount
		}
		return uint32(reported), fmt.Errorf("fake query: %w", ErrLengthMismatch)
	}

	copy(buf, buildSnapshot(f.layout, addressOf(buf), f.records, total))
	return uint32(total), nil
}

// sessionFixture holds two dwm.exe records, in sessions 3 and 5.
func sessionFixture() []fixtureRecord {
	return []fixtureRecord{
		{pid: 0, session: 0},
		{pid: 4, session: 0, name: "System", threads: 0x50},
		{pid: 880, session: 3, name: "dwm.exe", threads: 0xa0},
		{pid: 1200, session: 5, name: "explorer.exe"},
		{pid: 1432, session: 5, name: "dwm.exe", threads: 0x50},
		{pid: 1500, session: 5, name: "dwm.exe.local"},
	}
}
