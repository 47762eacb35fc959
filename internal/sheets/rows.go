package sheets

import (
	"fmt"
	"strings"
)

// RowsFromValues converts a values matrix into keyed rows.
//
// The first non-blank row is the header. Header cells that are blank are named
// "__EMPTY", repeated names get a "_1", "_2", ... suffix (so the second blank
// header is "__EMPTY_1"). Every data row carries every header; missing cells
// default to "". Fully blank data rows are dropped.
func RowsFromValues(values [][]any) []Row {
	start := 0
	for start < len(values) && blankRow(values[start]) {
		start++
	}
	if start >= len(values) {
		return nil
	}

	width := 0
	for _, row := range values[start:] {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := headerNames(values[start], width)

	out := make([]Row, 0, len(values)-start-1)
	for _, raw := range values[start+1:] {
		if blankRow(raw) {
			continue
		}
		row := make(Row, width)
		for i, h := range headers {
			if i < len(raw) && raw[i] != nil {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		out = append(out, row)
	}
	return out
}

// StringMatrix adapts a [][]string (xlsx, csv) to RowsFromValues input.
func StringMatrix(in [][]string) [][]any {
	out := make([][]any, len(in))
	for i, row := range in {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func headerNames(raw []any, width int) []string {
	seen := make(map[string]int, width)
	out := make([]string, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(raw) && raw[i] != nil {
			name = strings.TrimSpace(fmt.Sprint(raw[i]))
		}
		if name == "" {
			name = "__EMPTY"
		}
		base := name
		if n, dup := seen[base]; dup {
			for {
				name = fmt.Sprintf("%s_%d", base, n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		} else {
			seen[base] = 1
		}
		seen[name] = max(seen[name], 1)
		out[i] = name
	}
	return out
}

func blankRow(row []any) bool {
	for _, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
