// Package proctable renders a process snapshot as a table, marking the
// record a dump would select.
package proctable

import (
	"fmt"
	"io"
	"strconv"

	"dwmdump/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

const marker = "*"

// Render writes records in snapshot order. Of the records matching prefix in
// session, the one a dump would pick is marked, and colored when colorize is set.
func Render(w io.Writer, records []process.ProcessRecord, prefix string, session process.SessionID, colorize bool) error {
	selected, found := process.Find(records, prefix, session)

	table := NewTable(
		ColumnSpec{Header: "PID", AlignRight: true, MinWidth: 6},
		ColumnSpec{Header: "SESSION", AlignRight: true},
		ColumnSpec{Header: " ", BlankValue: " "},
		ColumnSpec{Header: "NAME"},
	)

	for _, r := range records {
		mark, name := "", r.Name
		if found && r.ProcessID == selected.ProcessID {
			mark = marker
			if colorize {
				name = coloransi.Color(coloransi.Red, coloransi.ColorOrange, name)
			}
		}
		table.AddRow(
			strconv.FormatUint(uint64(r.ProcessID), 10),
			strconv.FormatUint(uint64(r.SessionID), 10),
			mark,
			name,
		)
	}

	if err := table.Render(w); err != nil {
		return err
	}

	if !found {
		_, err := fmt.Fprintf(w, "no %q in session %d\n", prefix, session)
		return err
	}
	_, err := fmt.Fprintf(w, "%s marks %s\n", marker, selected)
	return err
}
