package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterCSVWritesFixedColumns(t *testing.T) {
	payload, err := RosterCSV([]RosterRow{
		{RollNumber: "7", Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob, Jr.", Email: "bob@example.com"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Roll Number,Name,Email", lines[0])
	assert.Equal(t, `,"Bob, Jr.",bob@example.com`, lines[2])
}

func TestRosterCSVEmptyRoster(t *testing.T) {
	payload, err := RosterCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Roll Number,Name,Email\n", string(payload))
}

func TestReportCardPDFRenders(t *testing.T) {
	payload, err := ReportCardPDF("Alice", []ReportCardLine{
		{Subject: "Math", Term: "T1", Score: "A"},
	}, AttendanceSummary{Present: 10, Absent: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
