package process

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"dwmdump/hexdump"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ExcessiveRoundTrips is how many sizing round trips pass between warnings
// about a process table that keeps changing size.
const ExcessiveRoundTrips = 16

// Querier fills buf with the system process table.
//
// It returns the number of bytes the table needs (when buf is too small, with
// an error wrapping ErrLengthMismatch) or the number of bytes written.
type Querier interface {
	Query(buf []byte) (uint32, error)
}

// Enumerator takes process snapshots through a Querier
type Enumerator struct {
	querier Querier
	layout  RecordLayout
	log     *logger.Logger
}

// NewEnumerator creates an Enumerator decoding records with the native layout
func NewEnumerator(querier Querier) *Enumerator {
	return NewEnumeratorWithLayout(querier, NativeLayout())
}

func NewEnumeratorWithLayout(querier Querier, layout RecordLayout) *Enumerator {
	return &Enumerator{
		querier: querier,
		layout:  layout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "enumerator")),
	}
}

// Snapshot queries the process table until two consecutive answers agree on
// its size. A table that keeps growing is logged, never treated as fatal.
func (e *Enumerator) Snapshot() (*Snapshot, error) {
	size, err := e.querier.Query(nil)
	if err != nil && !errors.Is(err, ErrLengthMismatch) {
		return nil, fmt.Errorf("%w: sizing query: %w", ErrSystemQuery, err)
	}

	for trips := 1; ; trips++ {
		if size == 0 {
			return nil, fmt.Errorf("%w: empty process table reported", ErrSystemQuery)
		}

		buf := make([]byte, size)
		reported, err := e.querier.Query(buf)
		switch {
		case errors.Is(err, ErrLengthMismatch):
			e.log.Debugln("process table grew from", size, "to", reported, "bytes, querying again")
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrSystemQuery, err)
		case int(reported) == len(buf):
			return NewSnapshot(buf, addressOf(buf), e.layout), nil
		default:
			e.log.Debugln("process table shrank from", size, "to", reported, "bytes, querying again")
		}

		if trips%ExcessiveRoundTrips == 0 {
			e.log.Warn(fmt.Sprintf("process table still unstable after %d round trips (last size %d bytes)", trips, reported))
		}
		size = reported
	}
}

// Enumerate returns every record of a fresh snapshot in chain order
func (e *Enumerator) Enumerate() ([]ProcessRecord, error) {
	snapshot, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	records, err := snapshot.Records()
	if err != nil {
		e.logMalformed(err)
		return nil, fmt.Errorf("%w: %w", ErrSystemQuery, err)
	}
	return records, nil
}

// Find takes a fresh snapshot and returns the first record, in chain order,
// whose name starts with prefix and whose session is session. Records after
// the match are not decoded.
func (e *Enumerator) Find(prefix string, session SessionID) (ProcessRecord, bool, error) {
	snapshot, err := e.Snapshot()
	if err != nil {
		return ProcessRecord{}, false, err
	}

	var (
		found ProcessRecord
		ok    bool
	)
	err = snapshot.Walk(func(r ProcessRecord) bool {
		if matches(r, prefix, session) {
			found, ok = r, true
			return false
		}
		return true
	})
	if err != nil {
		e.logMalformed(err)
		return ProcessRecord{}, false, fmt.Errorf("%w: %w", ErrSystemQuery, err)
	}

	return found, ok, nil
}

// Find returns the first record whose name starts with prefix (case-sensitive)
// and whose session equals session.
func Find(records []ProcessRecord, prefix string, session SessionID) (ProcessRecord, bool) {
	for _, r := range records {
		if matches(r, prefix, session) {
			return r, true
		}
	}
	return ProcessRecord{}, false
}

func matches(r ProcessRecord, prefix string, session SessionID) bool {
	return r.SessionID == session && strings.HasPrefix(r.Name, prefix)
}

func (e *Enumerator) logMalformed(err error) {
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		e.log.Debugln("rejected record:", malformed.Reason, "\n"+dumpMalformed(malformed))
	}
}

// dumpMalformed renders the rejected header with the offending field highlighted
func dumpMalformed(m *MalformedRecordError) string {
	options := hexdump.DefaultOptions()
	options.StartOffset = m.Offset
	options.HighlightStart = int(m.Field)
	options.HighlightEnd = int(m.Field + m.FieldSize)
	options.Colorize = m.FieldSize > 0
	return hexdump.Dump(m.Window, options)
}

func addressOf(buf []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
}
