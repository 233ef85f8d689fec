package process

import (
	"errors"
	"strings"
	"testing"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateSingleRoundTrip(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture()}

	records, err := NewEnumerator(q).Enumerate()
	require.NoError(t, err)

	assert.Equal(t, 2, q.calls, "sizing call plus one stable query")
	assert.Equal(t, []int{0, q.total()}, q.sizes)
	require.Len(t, records, 6)
	assert.Equal(t, ProcessRecord{Name: "dwm.exe", ProcessID: 1432, SessionID: 5}, records[4])
}

func TestEnumerateRetriesOnUndercount(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture(), undercount: 200}

	records, err := NewEnumerator(q).Enumerate()
	require.NoError(t, err)

	assert.Equal(t, 3, q.calls)
	assert.Equal(t, []int{0, q.total() - 200, q.total()}, q.sizes)
	assert.Len(t, records, 6)
}

func TestEnumerateRequeriesWhenTableShrinks(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture(), undercount: -128}

	snapshot, err := NewEnumerator(q).Snapshot()
	require.NoError(t, err)

	assert.Equal(t, 3, q.calls)
	assert.Equal(t, q.total(), snapshot.Size())
}

func TestEnumerateKeepsGoingWhileTableGrows(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture(), growFor: 3 * ExcessiveRoundTrips}

	records, err := NewEnumerator(q).Enumerate()
	require.NoError(t, err)

	assert.Equal(t, 3*ExcessiveRoundTrips+1, q.calls)
	assert.Len(t, records, 6)
}

func TestEnumerateQueryFailures(t *testing.T) {
	boom := errors.New("access denied")

	for _, failOn := range []int{1, 2} {
		q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture(), failOn: failOn, failErr: boom}

		_, err := NewEnumerator(q).Enumerate()
		assert.ErrorIs(t, err, ErrSystemQuery)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, failOn, q.calls)
	}
}

type emptyQuerier struct{}

func (emptyQuerier) Query([]byte) (uint32, error) { return 0, nil }

func TestEnumerateEmptyTable(t *testing.T) {
	_, err := NewEnumerator(emptyQuerier{}).Snapshot()
	assert.ErrorIs(t, err, ErrSystemQuery)
}

func TestFindSelectsSession(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture()}
	records, err := NewEnumerator(q).Enumerate()
	require.NoError(t, err)

	found, ok := Find(records, "dwm.exe", 5)
	require.True(t, ok)
	assert.Equal(t, ProcessID(1432), found.ProcessID)
	assert.Equal(t, SessionID(5), found.SessionID)

	found, ok = Find(records, "dwm.exe", 3)
	require.True(t, ok)
	assert.Equal(t, ProcessID(880), found.ProcessID)

	_, ok = Find(records, "ghost.exe", 5)
	assert.False(t, ok)

	_, ok = Find(records, "DWM.EXE", 5)
	assert.False(t, ok, "prefix match is case-sensitive")

	_, ok = Find(records, "dwm.exe", 7)
	assert.False(t, ok)
}

func TestEnumeratorFindTakesFreshSnapshot(t *testing.T) {
	q := &fakeQuerier{layout: NativeLayout(), records: sessionFixture()}
	e := NewEnumerator(q)

	found, ok, err := e.Find("dwm.exe", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ProcessID(1432), found.ProcessID)

	// The target restarted between firings.
	q.records[4].pid = 2020
	found, ok, err = e.Find("dwm.exe", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ProcessID(2020), found.ProcessID)
	assert.Equal(t, 4, q.calls)

	_, ok, err = e.Find("ghost.exe", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDumpMalformedHighlightsField(t *testing.T) {
	window := make([]byte, 0x20)
	for i := range window {
		window[i] = byte(i)
	}

	dump := dumpMalformed(&MalformedRecordError{Offset: 0x200, Window: window, Field: 0x10, FieldSize: 2})
	assert.True(t, strings.HasPrefix(dump, "00000200  00 01"))
	assert.Contains(t, dump, coloransi.Color(coloransi.Red, coloransi.ColorOrange, "10"))
	assert.Contains(t, dump, coloransi.Color(coloransi.Red, coloransi.ColorOrange, "11"))
	assert.NotContains(t, dump, coloransi.Color(coloransi.Red, coloransi.ColorOrange, "12"))

	truncated := dumpMalformed(&MalformedRecordError{Offset: 0x200, Window: window[:8]})
	assert.NotContains(t, truncated, "\033[")
}
