package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ReportCardLine is one graded subject entry on a report card.
type ReportCardLine struct {
	Subject string
	Term    string
	Score   string
}

// AttendanceSummary totals a student's attendance marks for the
// report-card footer.
type AttendanceSummary struct {
	Present int
	Absent  int
	Late    int
}

// ReportCardPDF renders a student's report card: a grade table with an
// attendance summary underneath.
func ReportCardPDF(studentName string, lines []ReportCardLine, attendance AttendanceSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Report Card - %s", studentName), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	const colWidth = 190.0 / 3
	pdf.SetFont("Arial", "B", 10)
	for _, column := range []string{"Subject", "Term", "Score"} {
		pdf.CellFormat(colWidth, 8, column, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range lines {
		pdf.CellFormat(colWidth, 7, line.Subject, "1", 0, "", false, 0, "")
		pdf.CellFormat(colWidth, 7, line.Term, "1", 0, "", false, 0, "")
		pdf.CellFormat(colWidth, 7, line.Score, "1", 0, "", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 9)
	summary := fmt.Sprintf("Attendance: present %d, absent %d, late %d", attendance.Present, attendance.Absent, attendance.Late)
	pdf.CellFormat(0, 7, summary, "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report card: %w", err)
	}
	return buf.Bytes(), nil
}
