package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"energyshare/internal/models"
)

// Generator renders printable documents. It is an interface so handlers can
// be tested without rendering.
type Generator interface {
	TokenReceipt(data ReceiptData) ([]byte, error)
}

// ReceiptGenerator renders token receipts with gofpdf. With an empty
// FontPath the built-in Helvetica is used, which covers Latin text only.
type ReceiptGenerator struct {
	FontPath string
	Brand    string
	fontName string
}

type ReceiptData struct {
	Token    models.Token
	Customer string
	Email    string
	MeterNo  string
	IssuedAt time.Time
}

func NewReceiptGenerator(brand, fontPath string) *ReceiptGenerator {
	g := &ReceiptGenerator{FontPath: fontPath, Brand: brand, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	if g.Brand == "" {
		g.Brand = "EnergyShare"
	}
	return g
}

// Filename is the download name of a token's receipt.
func Filename(t models.Token) string {
	return fmt.Sprintf("token_%d.pdf", t.ID)
}

// FormatToken groups a meter token in blocks of four digits, the way it is
// typed into the meter keypad.
func FormatToken(token string) string {
	token = strings.ReplaceAll(token, " ", "")
	var b strings.Builder
	for i, r := range token {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (g *ReceiptGenerator) TokenReceipt(data ReceiptData) ([]byte, error) {
	if data.Token.Token == "" {
		return nil, fmt.Errorf("receipt: token %d has no code", data.Token.ID)
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s token receipt #%d", g.Brand, data.Token.ID), false)
	pdf.SetAuthor(g.Brand, false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addFont(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, g.Brand, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 12)
	pdf.CellFormat(0, 7, "Electricity token receipt", "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Token")
	pdf.SetFont(g.fontName, "B", 20)
	pdf.CellFormat(0, 14, FormatToken(data.Token.Token), "1", 1, "C", false, 0, "")
	pdf.Ln(2)
	g.kvLine(pdf, "Units", fmt.Sprintf("%s kWh", data.Token.Units))
	g.kvLine(pdf, "Source", source(data.Token))
	if data.Token.LoanID != "" {
		g.kvLine(pdf, "Loan", data.Token.LoanID)
	}
	status := "Unused"
	if data.Token.IsUsed {
		status = "Used"
	}
	g.kvLine(pdf, "Status", status)
	if data.Token.CreatedAt != "" {
		g.kvLine(pdf, "Issued", data.Token.CreatedAt)
	}
	pdf.Ln(2)
	g.hr(pdf)

	if data.Customer != "" || data.Email != "" || data.MeterNo != "" {
		g.sectionTitle(pdf, "Customer")
		if data.Customer != "" {
			g.kvLine(pdf, "Name", data.Customer)
		}
		if data.Email != "" {
			g.kvLine(pdf, "Email", data.Email)
		}
		if data.MeterNo != "" {
			g.kvLine(pdf, "Meter", data.MeterNo)
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 5, "Enter the token on your meter keypad. Each token can be used once.", "", "L", false)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, "Printed "+data.IssuedAt.Format("02 Jan 2006 15:04"), "", 0, "C", false, 0, "")
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func source(t models.Token) string {
	if t.SourceDisplay != "" {
		return t.SourceDisplay
	}
	if t.Source != "" {
		return t.Source
	}
	return "-"
}

func (g *ReceiptGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReceiptGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReceiptGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReceiptGenerator) addFont(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
