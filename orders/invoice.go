package orders

import (
	"bytes"
	"fmt"
	"strings"

	"freshcart/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// InvoiceQRPayload is what the invoice QR code encodes.
func InvoiceQRPayload(o *models.Order) string {
	return fmt.Sprintf("%s|%s", o.OrderID, o.User)
}

// RenderInvoice draws a one-page A4 invoice for the order.
func RenderInvoice(v *models.OrderView) ([]byte, error) {
	qrPNG, err := qrcode.Encode(InvoiceQRPayload(&v.Order), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Order: "+v.OrderID)
	pdf.Ln(8)
	pdf.Cell(0, 8, "Date: "+v.CreatedAt.Format("02 Jan 2006"))
	pdf.Ln(8)
	pdf.Cell(0, 8, "Status: "+v.Status)
	pdf.Ln(8)
	if v.UserDetail != nil {
		name := v.UserDetail.Name
		if name == "" {
			name = v.UserDetail.Phone
		}
		pdf.Cell(0, 8, "Customer: "+name)
		pdf.Ln(8)
	}
	pdf.MultiCell(120, 6, "Ship to: "+formatAddress(v.ShippingAddress), "", "L", false)
	pdf.Ln(6)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, line := range v.OrderItems {
		name := line.Product
		if line.ProductDetail != nil {
			name = line.ProductDetail.Name
		}
		pdf.CellFormat(90, 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", line.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", line.Price*float64(line.Quantity)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 10, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, fmt.Sprintf("%.2f", v.TotalPrice), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAddress(a models.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
