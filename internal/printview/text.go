package printview

import (
	"fmt"
	"strings"
)

// Text renders the document as plain text no wider than width columns.
func Text(d Document, width int) string {
	if width < 50 {
		width = 50
	}
	var b strings.Builder
	center(&b, "INVOICE", width)
	b.WriteString("\n")

	to := d.BillTo()
	left := partyLines("From:", d.Issuer.Name, d.Issuer.Address)
	right := partyLines("To:", to.Name, to.Address, to.Email, to.Phone)
	half := width / 2
	for i := 0; i < max(len(left), len(right)); i++ {
		b.WriteString(pad(at(left, i), half))
		b.WriteString(at(right, i))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	inv := d.Invoice
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "Invoice Date:   %s\n", Date(inv.InvoiceDate))
	fmt.Fprintf(&b, "Due Date:       %s\n", Date(inv.DueDate))
	if inv.Status != "" {
		fmt.Fprintf(&b, "Status:         %s\n", inv.Status)
	}
	b.WriteString("\n")

	const numW, qtyW, rateW, amtW = 4, 8, 12, 12
	descW := width - numW - qtyW - rateW - amtW - 4
	row := func(n, desc, qty, rate, amt string) {
		fmt.Fprintf(&b, "%-*s %-*s %*s %*s %*s\n",
			numW, n, descW, clip(desc, descW), qtyW, qty, rateW, rate, amtW, amt)
	}
	row("#", "Description", "Quantity", "Rate", "Amount")
	b.WriteString(strings.Repeat("-", width))
	b.WriteString("\n")
	lines := d.Lines()
	if len(lines) == 0 {
		b.WriteString("  (no line items)\n")
	}
	for _, l := range lines {
		row(fmt.Sprint(l.Index), l.Description, l.Quantity, l.Rate, l.Amount)
	}
	b.WriteString(strings.Repeat("-", width))
	b.WriteString("\n")

	s := d.Summary()
	for _, kv := range [][2]string{{"Subtotal:", s.SubTotal}, {s.TaxLabel + ":", s.TaxAmount}, {"Total:", s.Total}} {
		fmt.Fprintf(&b, "%*s %*s\n", width-amtW-1, kv[0], amtW, kv[1])
	}
	if notes := strings.TrimSpace(inv.Notes); notes != "" {
		b.WriteString("\nNotes: ")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

func partyLines(title string, fields ...string) []string {
	out := []string{title}
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 1 {
		return nil
	}
	return out
}

func center(b *strings.Builder, s string, width int) {
	if n := (width - len(s)) / 2; n > 0 {
		b.WriteString(strings.Repeat(" ", n))
	}
	b.WriteString(s)
	b.WriteString("\n")
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width-1]) + " "
	}
	return s + strings.Repeat(" ", width-len(r))
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
