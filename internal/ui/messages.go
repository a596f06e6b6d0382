package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	SuccessSymbol    = "✓"
	ErrorSymbol      = "✗"
	InfoSymbol       = "ℹ"
	WarningSymbol    = "⚠"
	ArrowRightSymbol = "→"
)

// PrintLogo prints the polytree banner.
func PrintLogo() {
	if TerminalWidth() < 80 {
		fmt.Println(TitleStyle.Render("polytree"))
		return
	}

	logo := `█▀█ █▀█ █░░ █▄█ ▀█▀ █▀█ █▀▀ █▀▀
█▀▀ █▄█ █▄▄ ░█░ ░█░ █▀▄ ██▄ ██▄`

	colors := []string{SecondaryColor, InfoColor}
	for i, line := range strings.Split(logo, "\n") {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Render(line))
	}
	fmt.Println(CenterText(SubtitleStyle.Render("\nCross-language tree calls")))
}

func PrintSuccess(message string) {
	fmt.Println(SuccessStyle.Bold(true).Render(SuccessSymbol + " " + message))
}

// PrintError prints an error message in a box.
func PrintError(message string) {
	errorBox := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ErrorColor)).
		Padding(0, 1).
		Render(ErrorStyle.Bold(true).Render(ErrorSymbol + " Error: " + message))

	fmt.Println(errorBox)
}

func PrintWarning(message string) {
	fmt.Println(WarningStyle.Bold(true).Render(WarningSymbol + " " + message))
}

// PrintInfo prints a label and value.
func PrintInfo(label, value string) {
	fmt.Printf("%s %s\n",
		DimStyle.Bold(true).Render(label+":"),
		InfoStyle.Render(value))
}

// PrintEmptyState shows a message when no data is available.
func PrintEmptyState(message string) {
	fmt.Println(DimStyle.Render(InfoSymbol + " " + message))
}

// Table represents a formatted table with headers and rows.
type Table struct {
	Headers     []string
	Rows        [][]string
	ColumnWidth []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	columnWidth := make([]int, len(headers))
	for i, h := range headers {
		columnWidth[i] = len(h) + 4
	}
	return &Table{
		Headers:     headers,
		ColumnWidth: columnWidth,
	}
}

// AddRow adds a row; missing cells are left empty and extra ones dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.Headers))
	copy(row, values)

	for i, v := range row {
		if w := lipgloss.Width(v) + 4; w > t.ColumnWidth[i] {
			t.ColumnWidth[i] = w
		}
	}
	t.Rows = append(t.Rows, row)
}

// RenderTable renders the table without a border.
func RenderTable(table *Table) string {
	format := ""
	for i, width := range table.ColumnWidth {
		format += fmt.Sprintf("%%-%ds", width)
		if i < len(table.ColumnWidth)-1 {
			format += " "
		}
	}

	header := fmt.Sprintf(format, toInterfaceSlice(table.Headers)...)
	rows := []string{
		TableHeaderStyle.Render(header),
		DimStyle.Render(strings.Repeat("─", len(header))),
	}

	for i, row := range table.Rows {
		style := TableRowStyle
		if i%2 == 1 {
			style = style.Background(lipgloss.Color(AlternatingRowDark))
		}
		rows = append(rows, style.Render(fmt.Sprintf(format, toInterfaceSlice(row)...)))
	}

	return fmt.Sprintf("\n%s\n", lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func toInterfaceSlice(ss []string) []interface{} {
	is := make([]interface{}, len(ss))
	for i, s := range ss {
		is[i] = s
	}
	return is
}
