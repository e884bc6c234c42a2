package render

import (
	"strconv"
	"strings"
)

const (
	ESC   = "\x1b"
	CSI   = ESC + "["
	Reset = CSI + "0m"
)

// MoveTo positions the cursor at row, col (1-based).
func MoveTo(row, col int) string {
	return CSI + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

// EnterScreen switches to the alternate screen, hides the cursor and
// clears it.
func EnterScreen() string {
	return CSI + "?1049h" + CSI + "?25l" + CSI + "2J"
}

// LeaveScreen restores the cursor and the primary screen.
func LeaveScreen() string {
	return Reset + CSI + "?25h" + CSI + "?1049l"
}

// WriteCellSGR writes a single cell's full SGR + character to the builder.
// Uses combined SGR to avoid state leakage between cells.
func WriteCellSGR(sb *strings.Builder, c Cell) {
	if c.Bold {
		sb.WriteString("\x1b[0;1;38;2;")
	} else {
		sb.WriteString("\x1b[0;38;2;")
	}
	writeRGB(sb, c.FgR, c.FgG, c.FgB)
	sb.WriteString(";48;2;")
	writeRGB(sb, c.BgR, c.BgG, c.BgB)
	sb.WriteByte('m')
	sb.WriteRune(c.Ch)
}

// Background returns the SGR sequence for a truecolor background.
func Background(r, g, b uint8) string {
	var sb strings.Builder
	sb.WriteString(CSI + "48;2;")
	writeRGB(&sb, r, g, b)
	sb.WriteByte('m')
	return sb.String()
}

func writeRGB(sb *strings.Builder, r, g, b uint8) {
	sb.WriteString(strconv.Itoa(int(r)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(g)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(b)))
}
