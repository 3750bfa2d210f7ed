package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RosterRow is one student line in a class roster export.
type RosterRow struct {
	RollNumber string
	Name       string
	Email      string
}

var rosterColumns = []string{"Roll Number", "Name", "Email"}

// RosterCSV renders a class roster. The column set is fixed; rows keep
// the order the caller assembled them in.
func RosterCSV(rows []RosterRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(rosterColumns); err != nil {
		return nil, fmt.Errorf("write roster header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.RollNumber, row.Name, row.Email}); err != nil {
			return nil, fmt.Errorf("write roster row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush roster csv: %w", err)
	}
	return buf.Bytes(), nil
}
