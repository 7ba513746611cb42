package lang

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true).Padding(0, 1)
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Display renders a value for human consumption. Scalars render as their
// plain text; arrays and tables render as bordered tables whose cells hold
// the plain text of each element.
func Display(v Value) string {
	switch v := v.(type) {
	case Array:
		rows := make([][]string, len(v))
		for i, e := range v {
			rows[i] = []string{strconv.Itoa(i), e.String()}
		}

		return table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "value").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case col == 0:
					return indexStyle
				default:
					return cellStyle.Align(lipgloss.Right)
				}
			}).
			String()

	case Table:
		rows := make([][]string, len(v.rows))
		for r, row := range v.rows {
			rows[r] = make([]string, len(row))
			for c, e := range row {
				rows[r][c] = e.String()
			}
		}

		return table.New().
			Border(lipgloss.NormalBorder()).
			Headers(v.columns...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}

				return cellStyle
			}).
			String()

	case nil:
		return Unit{}.String()

	default:
		return v.String()
	}
}
