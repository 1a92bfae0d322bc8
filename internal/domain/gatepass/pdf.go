package gatepass

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"leavegate/internal/domain/leave"
)

// RenderPDF produces a printable A4 gate pass with the request details and
// the QR image embedded. The PNG must be the pass rendered for this record.
func RenderPDF(req leave.Request, png []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Gate Pass")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Student: %s (%s)", req.StudentName, req.StudentID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Branch/Batch: %s / %s", req.Branch, req.Batch))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Leave: %s to %s (%d day(s))",
		req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout), req.LeaveDays))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Approved by: %s", req.Teacher))
	pdf.Ln(10)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("gatepass", opts, bytes.NewReader(png))
	pdf.ImageOptions("gatepass", 10, pdf.GetY(), 90, 90, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render gate pass pdf: %w", err)
	}
	return buf.Bytes(), nil
}
