package accounts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/goliatone/go-errors"
)

// UsersPDFExporter renders the active user list as a simple tabular PDF,
// one row per user with the same redacted fields the list endpoint returns.
type UsersPDFExporter struct {
	Title string
}

func NewUsersPDFExporter() *UsersPDFExporter {
	return &UsersPDFExporter{
		Title: "Users Report",
	}
}

// Render produces the PDF document bytes for the given users.
func (e *UsersPDFExporter) Render(users []*User) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(e.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, e.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{15, 45, 45, 35, 50}
	headers := []string{"ID", "Name", "Last Name", "Phone", "Email"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, user := range users {
		if user == nil {
			continue
		}
		cells := []string{
			fmt.Sprintf("%d", user.ID),
			user.Name,
			user.LastName,
			user.Phone,
			user.Email,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(users) == 0 {
		pdf.CellFormat(0, 8, "No active users", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to render users PDF")
	}

	return buf.Bytes(), nil
}
