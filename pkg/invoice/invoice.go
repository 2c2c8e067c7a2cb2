package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/example/homelyeats/pkg/models"
	"github.com/go-pdf/fpdf"
)

// Line is one invoice row: the order item joined with the dish name snapshot.
type Line struct {
	Name        string
	Quantity    int32
	PriceAtTime int64 // minor units
}

type Renderer struct {
	title   string
	tagline string
}

func NewRenderer() *Renderer {
	return &Renderer{
		title:   "Homely Eats",
		tagline: "Your Favorite Home-Cooked Meals, Delivered",
	}
}

// Render produces the PDF invoice for a finalized order. Pure function of its
// inputs; tolerates a missing payment method and empty special instructions.
func (r *Renderer) Render(order *models.Order, lines []Line) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header with tagline
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, r.title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, r.tagline, "", 1, "C", false, 0, "")

	pdf.SetDrawColor(242, 113, 33)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 35, 190, 35)

	pdf.SetFont("Helvetica", "", 20)
	pdf.Text(20, 50, "Invoice")

	paymentMethod := strings.ToUpper(string(order.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = "N/A"
	}

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(20, 65, fmt.Sprintf("Order #%s", order.ID))
	pdf.Text(20, 72, fmt.Sprintf("Date: %s", order.CreatedAt.Format("Jan 2, 2006 3:04 PM")))
	pdf.Text(20, 79, fmt.Sprintf("Status: %s", strings.ToUpper(order.Status.String())))
	pdf.Text(20, 86, fmt.Sprintf("Payment Method: %s", paymentMethod))

	// Item table header
	pdf.SetFillColor(242, 113, 33)
	pdf.Rect(20, 95, 170, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(25, 102, "Item")
	pdf.Text(95, 102, "Quantity")
	pdf.Text(130, 102, "Unit Price")
	pdf.Text(170, 102, "Total")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)

	y := 110.0
	for i, l := range lines {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
			pdf.Rect(20, y-5, 170, 10, "F")
		}
		pdf.Text(25, y, l.Name)
		pdf.Text(95, y, fmt.Sprintf("%d", l.Quantity))
		pdf.Text(130, y, formatAmount(l.PriceAtTime))
		pdf.Text(170, y, formatAmount(int64(l.Quantity)*l.PriceAtTime))
		y += 10
	}

	// Total box
	pdf.SetFillColor(255, 240, 230)
	pdf.Rect(120, y, 70, 12, "F")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(125, y+8, "Total Amount:")
	pdf.Text(170, y+8, formatAmount(order.TotalAmount))

	// Delivery block
	y += 30
	pdf.Text(20, y, "Delivery Information")
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(20, y+10, "Address:")
	pdf.Text(60, y+10, order.DeliveryAddress)
	pdf.Text(20, y+17, "Contact:")
	pdf.Text(60, y+17, order.ContactNumber)
	if order.SpecialInstructions != "" {
		pdf.Text(20, y+24, "Special Instructions:")
		pdf.Text(60, y+24, order.SpecialInstructions)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
