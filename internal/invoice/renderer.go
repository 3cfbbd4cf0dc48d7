package invoice

import (
	"fmt"
	"net/url"
	"strings"

	domain "github.com/sabaishop/api/internal/domain"
)

const (
	colorBrand    = "#00C851"
	colorDanger   = "#FF4444"
	colorHeading  = "#333333"
	colorLabel    = "#555555"
	colorValue    = "#111111"
	colorMuted    = "#666666"
	colorFootnote = "#999999"
	colorWhite    = "#FFFFFF"
)

// Renderer turns orders into invoice cards. The only configuration is the
// externally hosted payment page the call-to-action button points at.
type Renderer struct {
	paymentBaseURL string
}

// NewRenderer constructs a Renderer for the given payment page base URL.
func NewRenderer(paymentBaseURL string) *Renderer {
	return &Renderer{paymentBaseURL: strings.TrimSpace(paymentBaseURL)}
}

// Render produces the invoice card for an order. The output depends only on
// the order value; the expiry line is a projection of the stored ExpiresAt,
// never of the current clock.
func (r *Renderer) Render(order domain.Order) Document {
	return Document{
		Type:    "flex",
		AltText: fmt.Sprintf("ใบแจ้งหนี้ #%d - ยอดรวม %s", order.Number, FormatBahtWords(order.Total)),
		Contents: Card{
			Type:   "bubble",
			Size:   "kilo",
			Header: r.header(order),
			Body:   r.body(order),
			Footer: r.footer(order),
		},
	}
}

// RenderCancellation produces the fixed-layout cancellation notice. It
// carries the order number and no computed fields.
func (r *Renderer) RenderCancellation(orderNumber int64) Document {
	return Document{
		Type:    "flex",
		AltText: fmt.Sprintf("คำสั่งซื้อ #%d ถูกยกเลิกแล้ว", orderNumber),
		Contents: Card{
			Type: "bubble",
			Size: "micro",
			Header: &Node{
				Type:            nodeBox,
				Layout:          layoutVertical,
				BackgroundColor: colorDanger,
				PaddingAll:      "20px",
				Contents: []Node{
					{Type: nodeText, Text: "❌ ยกเลิกคำสั่งซื้อ", Weight: "bold", Size: "lg", Color: colorWhite, Align: "center"},
				},
			},
			Body: &Node{
				Type:       nodeBox,
				Layout:     layoutVertical,
				PaddingAll: "20px",
				Contents: []Node{
					{Type: nodeText, Text: fmt.Sprintf("คำสั่งซื้อ #%d", orderNumber), Weight: "bold", Size: "md", Color: colorHeading, Align: "center"},
					{Type: nodeText, Text: "ถูกยกเลิกโดยทางร้าน", Size: "sm", Color: colorMuted, Align: "center", Margin: "sm"},
					separator("lg"),
					{Type: nodeText, Text: "หากมีข้อสงสัยกรุณาติดต่อทางร้าน", Size: "sm", Color: colorMuted, Align: "center", Margin: "lg", Wrap: true},
				},
			},
		},
	}
}

func (r *Renderer) header(order domain.Order) *Node {
	return &Node{
		Type:            nodeBox,
		Layout:          layoutVertical,
		BackgroundColor: colorBrand,
		PaddingAll:      "20px",
		Contents: []Node{
			{
				Type:   nodeBox,
				Layout: layoutHorizontal,
				Contents: []Node{
					{Type: nodeText, Text: "🧾", Size: "xl", Flex: flexOf(0)},
					{Type: nodeText, Text: "ใบแจ้งหนี้", Weight: "bold", Size: "xl", Color: colorWhite, Margin: "md"},
				},
			},
			{Type: nodeText, Text: fmt.Sprintf("เลขที่: #%d", order.Number), Size: "sm", Color: colorWhite, Margin: "sm"},
		},
	}
}

func (r *Renderer) body(order domain.Order) *Node {
	contents := []Node{
		{Type: nodeText, Text: "รายการสินค้า", Weight: "bold", Size: "md", Color: colorHeading},
		separator("md"),
		{
			Type:     nodeBox,
			Layout:   layoutVertical,
			Margin:   "lg",
			Spacing:  "sm",
			Contents: lineRows(order.Lines),
		},
	}

	if order.ShippingFee > 0 {
		contents = append(contents,
			separator("xl"),
			Node{
				Type:   nodeBox,
				Layout: layoutHorizontal,
				Margin: "lg",
				Contents: []Node{
					{Type: nodeText, Text: "ค่าจัดส่ง", Size: "sm", Color: colorLabel},
					{Type: nodeText, Text: FormatBaht(order.ShippingFee), Size: "sm", Color: colorValue, Align: "end"},
				},
			},
		)
	}

	contents = append(contents,
		separator("xl"),
		Node{
			Type:   nodeBox,
			Layout: layoutHorizontal,
			Margin: "lg",
			Contents: []Node{
				{Type: nodeText, Text: "ยอดรวมทั้งสิ้น", Size: "md", Weight: "bold", Color: colorBrand},
				{Type: nodeText, Text: FormatBaht(order.Total), Size: "md", Weight: "bold", Color: colorBrand, Align: "end"},
			},
		},
		separator("xl"),
		Node{
			Type:   nodeBox,
			Layout: layoutVertical,
			Margin: "lg",
			Contents: []Node{
				{Type: nodeText, Text: "⏰ หมดอายุ", Size: "xs", Color: colorDanger, Weight: "bold"},
				{Type: nodeText, Text: FormatExpiry(order.ExpiresAt), Size: "xs", Color: colorMuted, Margin: "xs"},
			},
		},
	)

	return &Node{
		Type:       nodeBox,
		Layout:     layoutVertical,
		PaddingAll: "20px",
		Contents:   contents,
	}
}

func (r *Renderer) footer(order domain.Order) *Node {
	return &Node{
		Type:       nodeBox,
		Layout:     layoutVertical,
		Spacing:    "md",
		PaddingAll: "20px",
		Contents: []Node{
			{
				Type:   nodeButton,
				Style:  "primary",
				Height: "md",
				Color:  colorBrand,
				Action: &Action{
					Type:  "uri",
					Label: "💳 ชำระเงิน",
					URI:   r.paymentURL(order.ID),
				},
			},
			{
				Type:   nodeBox,
				Layout: layoutHorizontal,
				Contents: []Node{
					{Type: nodeText, Text: "💡 กดปุ่มข้างต้นเพื่อดูข้อมูลการชำระเงิน", Size: "xs", Color: colorFootnote, Wrap: true, Align: "center"},
				},
			},
		},
	}
}

// lineRows builds one row per order line with separators strictly between
// consecutive rows, never trailing.
func lineRows(lines []domain.OrderLine) []Node {
	rows := make([]Node, 0, 2*len(lines))
	for i, line := range lines {
		if i > 0 {
			rows = append(rows, separator("md"))
		}
		rows = append(rows, Node{
			Type:   nodeBox,
			Layout: layoutHorizontal,
			Contents: []Node{
				{Type: nodeText, Text: line.Name, Size: "sm", Color: colorLabel, Flex: flexOf(0)},
				{Type: nodeText, Text: fmt.Sprintf("×%d", line.Quantity), Size: "sm", Color: colorValue, Align: "end", Flex: flexOf(0), Margin: "md"},
				{Type: nodeText, Text: FormatBaht(domain.LineTotal(line)), Size: "sm", Color: colorValue, Align: "end"},
			},
		})
	}
	return rows
}

func (r *Renderer) paymentURL(orderID string) string {
	base, err := url.Parse(r.paymentBaseURL)
	if err != nil || r.paymentBaseURL == "" {
		return r.paymentBaseURL
	}
	query := base.Query()
	query.Set("orderId", orderID)
	base.RawQuery = query.Encode()
	return base.String()
}
