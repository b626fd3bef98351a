// Package receipts renders order receipts as PDF with a signed QR code.
package receipts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"agrimart/admin"
	"agrimart/models"
	"agrimart/orders"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var ErrInvalidCode = errors.New("invalid receipt code")

type Renderer struct {
	secret []byte
}

func NewRenderer(secret []byte) *Renderer {
	return &Renderer{secret: secret}
}

func (r *Renderer) sign(data string) string {
	h := hmac.New(sha256.New, r.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Code returns the QR payload for an order: orderID|docID|signature.
func (r *Renderer) Code(o models.Order) string {
	data := o.ID + "|" + o.DocID
	return data + "|" + r.sign(data)
}

// Verify checks a payload produced by Code and returns the store id it names.
func (r *Renderer) Verify(code string) (orderID, docID string, err error) {
	parts := strings.Split(code, "|")
	if len(parts) != 3 {
		return "", "", ErrInvalidCode
	}
	expected := r.sign(parts[0] + "|" + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return "", "", ErrInvalidCode
	}
	return parts[0], parts[1], nil
}

// Render writes the receipt PDF for o to w.
func (r *Renderer) Render(w io.Writer, o models.Order) error {
	qrPNG, err := qrcode.Encode(r.Code(o), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Order: %s", o.ID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Placed: %s", admin.FormatIfValid(o.PlacedAt(), admin.DateTimeLayout)))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Customer: %s", o.CustomerName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s", o.Status))
	pdf.Ln(8)
	if from, to, ok := orders.DeliveryEstimate(o); ok {
		pdf.Cell(0, 10, fmt.Sprintf("Estimated delivery: %s - %s", from.Format(admin.DayLayout), to.Format(admin.DayLayout)))
		pdf.Ln(8)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "B", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(90, 8, it.Name, "", 0, "", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("Rs. %.2f", it.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("Rs. %.2f", it.Subtotal()), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(145, 10, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 10, fmt.Sprintf("Rs. %.2f", o.Amount()), "T", 1, "R", false, 0, "")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
