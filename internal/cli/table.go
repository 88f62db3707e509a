package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// TableRowDataInsertor fills a table with rows, the list commands
// pass one that walks their API results
type TableRowDataInsertor func(*Table) error

type NewTableOpts struct {
	Headers     []string
	Rows        TableRowDataInsertor
	IsFullWidth bool
}

func NewTable(opts NewTableOpts) *Table {
	t := &Table{Rows: opts.Rows}
	t.table = tablewriter.NewWriter(&t.data)
	t.table.Options(tablewriter.WithHeaderAlignment(tw.AlignLeft))
	t.table.Configure(func(cfg *tablewriter.Config) {
		width, _, _ := term.GetSize(int(os.Stdout.Fd()))
		if opts.IsFullWidth {
			cfg.Widths.Global = width
		} else {
			cfg.MaxWidth = width
		}
		cfg.Row.Padding.Global.Top = " "
		cfg.Row.Padding.Global.Bottom = " "
	})
	t.table.Header(opts.Headers)
	return t
}

type Table struct {
	data  bytes.Buffer
	table *tablewriter.Table

	Rows TableRowDataInsertor
}

func (t *Table) Render() *Table {
	t.Rows(t)
	return t
}

// NewRow appends one row, formatting each cell for a terminal
// reader: booleans as check or cross marks, string slices as their
// quoted elements
func (t *Table) NewRow(values ...any) error {
	row := make([]string, 0, len(values))
	for _, value := range values {
		var cell string
		switch v := value.(type) {
		case string:
			cell = v
		case bool:
			cell = "✅"
			if !v {
				cell = "❌"
			}
		case []string:
			cell = fmt.Sprintf(`["%s"]`, strings.Join(v, `", "`))
		default:
			cell = fmt.Sprintf("%v", v)
		}
		row = append(row, cell)
	}
	return t.table.Append(row)
}

func (t *Table) GetString() string {
	t.table.Render()
	return t.data.String()
}
