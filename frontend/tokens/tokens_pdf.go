package tokens

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
)

func renderQRPNG(payload qrPayload, size int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	code, err := qr.Encode(string(data), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return scaledPNG(code, size, size)
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode code128: %w", err)
	}
	return scaledPNG(code, width, height)
}

func scaledPNG(code barcode.Barcode, width, height int) ([]byte, error) {
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// renderTicketPDF lays out a receipt-sized ticket: short token, service,
// position and wait, the QR code and a Code128 of the full token.
func renderTicketPDF(view TokenView, payload qrPayload, printedAt time.Time) ([]byte, error) {
	if strings.TrimSpace(view.Token) == "" {
		return nil, fmt.Errorf("no token to print")
	}

	qrPNG, err := renderQRPNG(payload, 400)
	if err != nil {
		return nil, err
	}
	barPNG, err := renderCode128PNG(view.Token, 900, 220)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 80, Ht: 160},
	})
	pdf.SetTitle("Queue Ticket "+view.ShortToken, false)
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 10

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Your Token Number", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 36)
	pdf.CellFormat(contentW, 16, view.ShortToken, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, view.Token, "", 1, "C", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	if name := strings.TrimSpace(view.Name); name != "" {
		pdf.CellFormat(contentW, 6, name, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, view.Service, "", 1, "C", false, 0, "")
	if view.Position > 0 {
		pdf.CellFormat(contentW, 6, fmt.Sprintf("Position #%d  |  Wait %s", view.Position, view.Wait), "", 1, "C", false, 0, "")
	}

	qrName := "qr-" + view.Token
	pdf.RegisterImageOptionsReader(qrName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrSize := 45.0
	pdf.ImageOptions(qrName, (pageW-qrSize)/2, pdf.GetY()+3, qrSize, qrSize, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 5)

	barName := "code128-" + view.Token
	pdf.RegisterImageOptionsReader(barName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(barPNG))
	pdf.ImageOptions(barName, 5, pdf.GetY(), contentW, 16, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(pdf.GetY() + 18)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, "Show this ticket to the service representative", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, "Printed "+printedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
