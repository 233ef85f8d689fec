package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// HexDumpOptions defines options for customizing the hexdump output
type HexDumpOptions struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize defines the grouping of bytes (usually 1, 2, 4, or 8)
	GroupSize int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is the value printed in the offset column for the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// HighlightStart and HighlightEnd mark a byte range [start, end) relative to
	// the data. The range is only rendered when Colorize is set.
	HighlightStart int
	HighlightEnd   int

	// Colorize enables ANSI colors for the highlighted range
	Colorize bool
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() HexDumpOptions {
	return HexDumpOptions{
		BytesPerLine: 16,
		GroupSize:    1,
		ShowASCII:    true,
		OffsetWidth:  8,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options HexDumpOptions) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options HexDumpOptions) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		formatLine(writer, data[offset:end], offset, options)
	}
}

// formatLine formats a single line of the hex dump. base is the index of the
// line's first byte within the whole dump.
func formatLine(writer io.Writer, data []byte, base int, options HexDumpOptions) {
	fmt.Fprintf(writer, "%0*x  ", options.OffsetWidth, options.StartOffset+uint64(base))

	var hex strings.Builder
	for i, b := range data {
		if i > 0 && i%options.GroupSize == 0 {
			hex.WriteByte(' ')
		}
		value := fmt.Sprintf("%02x", b)
		if options.Colorize && highlighted(base+i, options) {
			value = coloransi.Color(coloransi.Red, coloransi.ColorOrange, value)
		}
		hex.WriteString(value)
	}
	fmt.Fprint(writer, hex.String())

	// Keep the ASCII column aligned on short lines.
	if pad := hexWidth(options.BytesPerLine, options.GroupSize) - hexWidth(len(data), options.GroupSize); pad > 0 {
		fmt.Fprint(writer, strings.Repeat(" ", pad))
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " |", formatASCII(data), "|")
	}

	fmt.Fprintln(writer)
}

func highlighted(pos int, options HexDumpOptions) bool {
	return pos >= options.HighlightStart && pos < options.HighlightEnd
}

// hexWidth is the printed width of n bytes split into groups of groupSize.
func hexWidth(n, groupSize int) int {
	if n == 0 {
		return 0
	}
	groups := (n + groupSize - 1) / groupSize
	return n*2 + groups - 1
}

func formatASCII(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 0x20 && b < 0x7f {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
