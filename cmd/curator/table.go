package main

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"curator/internal/backup"
	"curator/internal/processor"
)

// reportTable renders the per-file outcomes of a batch run. Paths are
// shortened to base names; errors and warnings share the notes column.
func reportTable(results []processor.Result) string {
	tw := newTableWriter(table.Row{"Status", "Original", "New Name", "Notes"})
	for _, res := range results {
		notes := make([]string, 0, len(res.Errors)+len(res.Warnings))
		notes = append(notes, res.Errors...)
		notes = append(notes, res.Warnings...)
		tw.AppendRow(table.Row{
			statusLabel(res),
			filepath.Base(res.OriginalPath),
			filepath.Base(displayPath(res)),
			strings.Join(notes, "; "),
		})
	}
	return tw.Render()
}

// backupTable renders backup index entries with byte counts right-aligned.
func backupTable(entries []backup.Entry) string {
	tw := newTableWriter(table.Row{"Created", "Original", "Backup", "Bytes"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for _, entry := range entries {
		tw.AppendRow(table.Row{
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.OriginalPath,
			entry.BackupPath,
			strconv.FormatInt(entry.Size, 10),
		})
	}
	return tw.Render()
}

// displayPath is the path a result is reported under: the new path once the
// rename happened, the original otherwise.
func displayPath(res processor.Result) string {
	if res.NewPath != "" {
		return res.NewPath
	}
	return res.OriginalPath
}

func newTableWriter(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	return tw
}
