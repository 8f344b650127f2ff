package printview

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the document as an A4 PDF to w.
func WritePDF(d Document, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+d.Invoice.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	to := d.BillTo()
	from := partyLines("From:", d.Issuer.Name, d.Issuer.Address)
	toLines := partyLines("To:", to.Name, to.Address, to.Email, to.Phone)
	pdf.SetFont("Arial", "", 11)
	for i := 0; i < max(len(from), len(toLines)); i++ {
		pdf.CellFormat(95, 6, tr(at(from, i)), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, tr(at(toLines, i)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	inv := d.Invoice
	for _, kv := range [][2]string{
		{"Invoice Number:", inv.InvoiceNumber},
		{"Invoice Date:", Date(inv.InvoiceDate)},
		{"Due Date:", Date(inv.DueDate)},
	} {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 6, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{10, 85, 25, 35, 35}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range []string{"#", "Description", "Quantity", "Rate", "Amount"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	for _, l := range d.Lines() {
		cells := []string{fmt.Sprint(l.Index), tr(l.Description), l.Quantity, l.Rate, l.Amount}
		for i, c := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 8, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	s := d.Summary()
	for _, kv := range [][2]string{{"Subtotal:", s.SubTotal}, {s.TaxLabel + ":", s.TaxAmount}, {"Total:", s.Total}} {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(155, 7, kv[0], "", 0, "R", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(35, 7, kv[1], "", 1, "R", false, 0, "")
	}
	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.MultiCell(0, 6, tr("Notes: "+inv.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Export writes the document to dir/FileName() and returns the path.
func Export(d Document, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, d.FileName())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePDF(d, file); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
