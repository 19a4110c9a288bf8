// Package ui renders records for the --debug console.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/reslog/internal/model"
)

// Console prints each record as a panel. It runs synchronously inside the
// sampler loop, so it only formats and writes.
type Console struct {
	w     io.Writer
	clear bool
}

// NewConsole writes to f, clearing the screen between records when f is a
// terminal.
func NewConsole(f *os.File) *Console {
	return &Console{w: f, clear: term.IsTerminal(int(f.Fd()))}
}

// Show renders rec. Write errors are ignored; the console is best-effort.
func (c *Console) Show(rec model.Record) {
	var b strings.Builder
	if c.clear {
		b.WriteString("\033[H\033[J")
	}
	b.WriteString(Render(rec))
	b.WriteByte('\n')
	_, _ = io.WriteString(c.w, b.String())
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

// Render lays out one record as cards.
func Render(rec model.Record) string {
	header := titleStyle.Render("reslog") + "  " +
		subtleStyle.Render(fmt.Sprintf("t+%ds", rec.Offset))

	cpuCard := card("CPU", gaugeBar(centi(rec.CPUCenti), 28))
	memCard := card("Memory", gaugeBar(centi(rec.RAMCenti), 28))
	thermalCard := card("Thermal", fmt.Sprintf("%d °C  fan %d RPM", rec.Temp, rec.Fan))
	battCard := card("Battery",
		fmt.Sprintf("%s  %d mA  %.2f W",
			gaugeBar(centi(rec.ChargeCenti), 16), rec.Drain, centi(rec.PowerCenti)))
	ioCard := card("IO / NET",
		fmt.Sprintf("Net down/up: %s / %s   Disk R/W: %d / %d sectors/s",
			byteRate(rec.Down), byteRate(rec.Up), rec.Read, rec.Write))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, memCard)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, thermalCard, battCard)
	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2, ioCard)
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %6.2f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func centi(v uint64) float64 { return float64(v) / 100 }

func byteRate(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B/s", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB/s", float64(b)/float64(div), "KMGTPE"[exp])
}
