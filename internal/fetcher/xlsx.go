package fetcher

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readXLSXZIPs returns the trimmed, non-blank values of the first column of
// the first sheet. A leading header row (any first cell containing a letter,
// such as "ZIP" or "Zip Code") is skipped.
func readXLSXZIPs(path string) ([]string, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open workbook %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, eris.Errorf("fetcher: workbook %s has no sheets", path)
	}

	var zips []string
	for i, row := range wb.Sheets[0].Rows {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		v := strings.TrimSpace(row.Cells[0].String())
		if v == "" {
			continue
		}
		if i == 0 && isHeaderCell(v) {
			continue
		}
		zips = append(zips, v)
	}
	return zips, nil
}

func isHeaderCell(v string) bool {
	return strings.IndexFunc(v, unicode.IsLetter) >= 0
}
