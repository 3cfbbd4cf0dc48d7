// Package invoice renders orders into structured visual documents for the
// messaging channel. Rendering is pure: identical orders produce identical
// documents, and the only timestamp shown is the expiry already stored on
// the order.
package invoice

// Node is a single element of the visual layout tree. The model is
// transport-neutral: nodes are boxes, texts, separators, and buttons with
// style attributes, serialised to whatever the push channel expects.
type Node struct {
	Type            string  `json:"type"`
	Layout          string  `json:"layout,omitempty"`
	Contents        []Node  `json:"contents,omitempty"`
	Text            string  `json:"text,omitempty"`
	Size            string  `json:"size,omitempty"`
	Color           string  `json:"color,omitempty"`
	Weight          string  `json:"weight,omitempty"`
	Align           string  `json:"align,omitempty"`
	Margin          string  `json:"margin,omitempty"`
	Spacing         string  `json:"spacing,omitempty"`
	Flex            *int    `json:"flex,omitempty"`
	Wrap            bool    `json:"wrap,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	PaddingAll      string  `json:"paddingAll,omitempty"`
	Height          string  `json:"height,omitempty"`
	Style           string  `json:"style,omitempty"`
	Action          *Action `json:"action,omitempty"`
}

// Action describes the behaviour of an interactive node, currently only
// opening a URI.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

// Card is the bubble-shaped container holding the rendered sections.
type Card struct {
	Type   string `json:"type"`
	Size   string `json:"size,omitempty"`
	Header *Node  `json:"header,omitempty"`
	Body   *Node  `json:"body,omitempty"`
	Footer *Node  `json:"footer,omitempty"`
}

// Document is a complete renderable message: the card plus the plain-text
// summary used by accessibility and chat-preview contexts.
type Document struct {
	Type     string `json:"type"`
	AltText  string `json:"altText"`
	Contents Card   `json:"contents"`
}

const (
	nodeBox       = "box"
	nodeText      = "text"
	nodeSeparator = "separator"
	nodeButton    = "button"

	layoutHorizontal = "horizontal"
	layoutVertical   = "vertical"
)

func flexOf(v int) *int { return &v }

func separator(margin string) Node {
	return Node{Type: nodeSeparator, Margin: margin}
}
