package trigger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dwmdump/minidump"
	"dwmdump/privilege"
	"dwmdump/process"
	"dwmdump/trust"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRank struct {
	rank uint32
	err  error
}

func (s stubRank) MandatoryRank() (uint32, error) {
	return s.rank, s.err
}

type stubAdjuster struct {
	err   error
	calls []string
}

func (s *stubAdjuster) AdjustPrivilege(name string, enable bool) error {
	s.calls = append(s.calls, name)
	return s.err
}

type stubFinder struct {
	records []process.ProcessRecord
	err     error
	calls   int
}

func (s *stubFinder) Find(prefix string, session process.SessionID) (process.ProcessRecord, bool, error) {
	s.calls++
	if s.err != nil {
		return process.ProcessRecord{}, false, s.err
	}
	r, ok := process.Find(s.records, prefix, session)
	return r, ok, nil
}

type stubSession struct {
	session process.SessionID
	err     error
	calls   int
}

func (s *stubSession) CurrentSession() (process.SessionID, error) {
	s.calls++
	return s.session, s.err
}

// fileSystem is a minidump.System writing a marker into a real file.
type fileSystem struct {
	opened []uint32
	files  map[minidump.Handle]*os.File
	next   minidump.Handle
	closed int
}

func newFileSystem() *fileSystem {
	return &fileSystem{files: map[minidump.Handle]*os.File{}, next: 0x100}
}

func (f *fileSystem) OpenProcess(pid uint32) (minidump.Handle, error) {
	f.opened = append(f.opened, pid)
	f.next += 4
	return f.next, nil
}

func (f *fileSystem) CreateFile(path string) (minidump.Handle, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	f.next += 4
	f.files[f.next] = file
	return f.next, nil
}

func (f *fileSystem) WriteDump(proc minidump.Handle, pid uint32, file minidump.Handle, features minidump.Feature) error {
	_, err := f.files[file].WriteString("MDMP")
	return err
}

func (f *fileSystem) CloseHandle(h minidump.Handle) error {
	f.closed++
	if file, ok := f.files[h]; ok {
		delete(f.files, h)
		return file.Close()
	}
	return nil
}

type recordingSource struct {
	events []Event
	err    error
	closed int
}

func (s *recordingSource) Wait() (Event, error) {
	if s.err != nil {
		return 0, s.err
	}
	if len(s.events) == 0 {
		return 0, ErrSourceClosed
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

func (s *recordingSource) Close() error {
	s.closed++
	return nil
}

func desktopSessions() []process.ProcessRecord {
	return []process.ProcessRecord{
		{Name: process.IdleProcessName},
		{Name: "System", ProcessID: 4},
		{Name: "dwm.exe", ProcessID: 880, SessionID: 3},
		{Name: "explorer.exe", ProcessID: 1200, SessionID: 5},
		{Name: "dwm.exe", ProcessID: 1432, SessionID: 5},
	}
}

type harness struct {
	adjuster *stubAdjuster
	finder   *stubFinder
	sessions *stubSession
	system   *fileSystem
	output   string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		adjuster: &stubAdjuster{},
		finder:   &stubFinder{records: desktopSessions()},
		sessions: &stubSession{session: 5},
		system:   newFileSystem(),
		output:   filepath.Join(t.TempDir(), "dwm.dmp"),
	}
}

func (h *harness) controller(rank stubRank, options Options) *Controller {
	if options.Output == "" {
		options.Output = h.output
	}
	return NewController(
		trust.NewGate(rank),
		privilege.NewElevator(h.adjuster),
		h.finder,
		minidump.NewAcquirer(h.system),
		h.sessions,
		options,
	)
}

func immediate() (Source, error) {
	return NewImmediateSource(), nil
}

func TestRunImmediateDumpsSessionTarget(t *testing.T) {
	h := newHarness(t)
	c := h.controller(stubRank{rank: trust.RankHigh}, Options{})

	require.NoError(t, c.Run(immediate))

	assert.Equal(t, trust.High, c.Level())
	assert.Equal(t, []string{privilege.DebugPrivilege}, h.adjuster.calls)
	assert.Equal(t, []uint32{1432}, h.system.opened)
	assert.Equal(t, 2, h.system.closed)
	assert.Empty(t, h.system.files)

	data, err := os.ReadFile(h.output)
	require.NoError(t, err)
	assert.Equal(t, "MDMP", string(data))
}

func TestRunOverwritesExistingFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.output, []byte("an older and much longer dump"), 0o644))

	require.NoError(t, h.controller(stubRank{rank: trust.RankSystem}, Options{}).Run(immediate))

	data, err := os.ReadFile(h.output)
	require.NoError(t, err)
	assert.Equal(t, "MDMP", string(data))
}

func TestRunTargetNotFound(t *testing.T) {
	h := newHarness(t)
	c := h.controller(stubRank{rank: trust.RankHigh}, Options{Target: "ghost.exe"})

	err := c.Run(immediate)
	assert.ErrorIs(t, err, process.ErrNotFound)
	assert.Empty(t, h.system.opened)
	_, statErr := os.Stat(h.output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunInsufficientTrust(t *testing.T) {
	for _, rank := range []stubRank{
		{rank: trust.RankMedium},
		{rank: trust.RankMediumPlus},
		{err: errors.New("token unavailable")},
	} {
		h := newHarness(t)
		opened := false
		err := h.controller(rank, Options{}).Run(func() (Source, error) {
			opened = true
			return NewImmediateSource(), nil
		})

		assert.ErrorIs(t, err, trust.ErrInsufficientTrust)
		assert.Empty(t, h.adjuster.calls)
		assert.False(t, opened)
	}
}

func TestRunPrivilegeFailure(t *testing.T) {
	h := newHarness(t)
	h.adjuster.err = errors.New("access denied")

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(immediate)
	assert.ErrorIs(t, err, privilege.ErrPrivilege)
	assert.Zero(t, h.sessions.calls)
	assert.Zero(t, h.finder.calls)
}

func TestRunCustomPrivilege(t *testing.T) {
	h := newHarness(t)

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{Privilege: "SeBackupPrivilege"}).Run(immediate)
	require.NoError(t, err)
	assert.Equal(t, []string{"SeBackupPrivilege"}, h.adjuster.calls)
}

func TestRunSessionFailure(t *testing.T) {
	h := newHarness(t)
	h.sessions.err = errors.New("ProcessIdToSessionId failed")

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(immediate)
	assert.EqualError(t, err, "ProcessIdToSessionId failed")
	assert.Zero(t, h.finder.calls)
}

func TestRunFixedPIDSkipsLookup(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.controller(stubRank{rank: trust.RankHigh}, Options{PID: 4242}).Run(immediate))
	assert.Zero(t, h.sessions.calls)
	assert.Zero(t, h.finder.calls)
	assert.Equal(t, []uint32{4242}, h.system.opened)
}

func TestRunEnumerationFailure(t *testing.T) {
	h := newHarness(t)
	h.finder.err = process.ErrSystemQuery

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(immediate)
	assert.ErrorIs(t, err, process.ErrSystemQuery)
	assert.Empty(t, h.system.opened)
}

func TestRunHotKeySourceFiresOnce(t *testing.T) {
	h := newHarness(t)
	source := &recordingSource{events: []Event{HotKeyFired, HotKeyFired}}

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(func() (Source, error) {
		return source, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.finder.calls)
	assert.Len(t, source.events, 1)
	assert.Equal(t, 1, source.closed)
}

func TestRunSourceClosedBeforeFiring(t *testing.T) {
	h := newHarness(t)
	source := &recordingSource{}

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(func() (Source, error) {
		return source, nil
	})
	assert.ErrorIs(t, err, ErrSourceClosed)
	assert.Equal(t, 1, source.closed)
	assert.Zero(t, h.finder.calls)
}

func TestRunSourceErrors(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("RegisterHotKey failed")

	err := h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(func() (Source, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	source := &recordingSource{err: boom}
	err = h.controller(stubRank{rank: trust.RankHigh}, Options{}).Run(func() (Source, error) {
		return source, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, source.closed)
}
