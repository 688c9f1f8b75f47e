package core

type (
	// ElementType tells the renderer how to interpret Element.Content.
	ElementType string

	// Orientation of the printed certificate.
	Orientation string

	// Canvas describes the page the elements are positioned on.
	Canvas struct {
		Width           float64     `json:"width" validate:"gt=0"`
		Height          float64     `json:"height" validate:"gt=0"`
		BackgroundColor string      `json:"backgroundColor"`
		BackgroundImage string      `json:"backgroundImage,omitempty"`
		Orientation     Orientation `json:"orientation" validate:"oneof=landscape portrait"`
	}

	// Style holds optional visual attributes. Zero values mean "renderer default".
	// Image and qrcode elements ignore the text fields.
	Style struct {
		FontFamily    string   `json:"fontFamily,omitempty"`
		FontSize      float64  `json:"fontSize,omitempty" validate:"gte=0"`
		FontWeight    string   `json:"fontWeight,omitempty"`
		FontStyle     string   `json:"fontStyle,omitempty"`
		Color         string   `json:"color,omitempty"`
		TextAlign     string   `json:"textAlign,omitempty" validate:"omitempty,oneof=left center right justify"`
		Opacity       *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
		TextTransform string   `json:"textTransform,omitempty" validate:"omitempty,oneof=none uppercase lowercase capitalize"`
		LetterSpacing float64  `json:"letterSpacing,omitempty"`
		LineHeight    float64  `json:"lineHeight,omitempty" validate:"gte=0"`
	}

	// Element is a positioned item on the canvas. X and Y are the anchor
	// (centre) point in canvas space; zoom never leaks into them.
	Element struct {
		ID      string      `json:"id" validate:"required"`
		Type    ElementType `json:"type" validate:"oneof=text image variable qrcode"`
		Content string      `json:"content"`
		X       float64     `json:"x"`
		Y       float64     `json:"y"`
		Width   *float64    `json:"width,omitempty" validate:"omitempty,gte=0"`
		Height  *float64    `json:"height,omitempty" validate:"omitempty,gte=0"`
		Style   Style       `json:"style"`
	}

	// TemplateConfig is the versioned snapshot of a certificate template.
	// Elements are painted in slice order: later elements are drawn on top.
	TemplateConfig struct {
		Canvas   Canvas    `json:"canvas"`
		Elements []Element `json:"elements" validate:"dive"`
	}
)

const (
	ElementText     ElementType = "text"
	ElementImage    ElementType = "image"
	ElementVariable ElementType = "variable"
	ElementQRCode   ElementType = "qrcode"

	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Placeholder tokens understood by the certificate renderer. They are stored
// verbatim; resolution happens at issuance time, elsewhere.
const (
	PlaceholderStudentName    = "{student_name}"
	PlaceholderCourseName     = "{course_name}"
	PlaceholderCompletionDate = "{completion_date}"
	PlaceholderInstructorName = "{instructor_name}"
	PlaceholderCertificateID  = "{certificate_id}"
)

// Placeholders lists the placeholder vocabulary in display order.
var Placeholders = []string{
	PlaceholderStudentName,
	PlaceholderCourseName,
	PlaceholderCompletionDate,
	PlaceholderInstructorName,
	PlaceholderCertificateID,
}

// IsPlaceholder reports whether token belongs to the placeholder vocabulary.
func IsPlaceholder(token string) bool {
	for _, p := range Placeholders {
		if p == token {
			return true
		}
	}
	return false
}

// Editable reports whether the element's content can be edited inline.
func (t ElementType) Editable() bool {
	return t == ElementText || t == ElementVariable
}

// DefaultConfig returns an empty A4 landscape template at 96 dpi.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		Canvas: Canvas{
			Width:           1123,
			Height:          794,
			BackgroundColor: "#ffffff",
			Orientation:     Landscape,
		},
		Elements: []Element{},
	}
}

// IndexOf returns the position of the element with the given id, or -1.
func (c TemplateConfig) IndexOf(id string) int {
	for i := range c.Elements {
		if c.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Element returns the element with the given id.
func (c TemplateConfig) Element(id string) (Element, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return Element{}, false
	}
	return c.Elements[i], true
}

// WithElement returns a copy of c with el appended on top. An element whose
// id is empty or already present leaves c unchanged.
func (c TemplateConfig) WithElement(el Element) TemplateConfig {
	if el.ID == "" || c.IndexOf(el.ID) >= 0 {
		return c
	}
	elements := make([]Element, len(c.Elements), len(c.Elements)+1)
	copy(elements, c.Elements)
	c.Elements = append(elements, el)
	return c
}

// WithoutElement returns a copy of c without the element with the given id.
func (c TemplateConfig) WithoutElement(id string) TemplateConfig {
	i := c.IndexOf(id)
	if i < 0 {
		return c
	}
	elements := make([]Element, 0, len(c.Elements)-1)
	elements = append(elements, c.Elements[:i]...)
	c.Elements = append(elements, c.Elements[i+1:]...)
	return c
}

// UpdateElement returns a copy of c with patch merged into the element with
// the given id. Order and every other element are preserved.
func (c TemplateConfig) UpdateElement(id string, patch ElementPatch) TemplateConfig {
	i := c.IndexOf(id)
	if i < 0 {
		return c
	}
	elements := make([]Element, len(c.Elements))
	copy(elements, c.Elements)
	elements[i] = patch.Apply(elements[i])
	c.Elements = elements
	return c
}

// WithCanvas returns a copy of c with patch merged into the canvas.
func (c TemplateConfig) WithCanvas(patch CanvasPatch) TemplateConfig {
	c.Canvas = patch.Apply(c.Canvas)
	return c
}

// BringToFront moves the element to the end of the paint order.
func (c TemplateConfig) BringToFront(id string) TemplateConfig {
	i := c.IndexOf(id)
	if i < 0 || i == len(c.Elements)-1 {
		return c
	}
	el := c.Elements[i]
	c = c.WithoutElement(id)
	c.Elements = append(c.Elements, el)
	return c
}

// SendToBack moves the element to the start of the paint order.
func (c TemplateConfig) SendToBack(id string) TemplateConfig {
	i := c.IndexOf(id)
	if i <= 0 {
		return c
	}
	elements := make([]Element, 0, len(c.Elements))
	elements = append(elements, c.Elements[i])
	elements = append(elements, c.Elements[:i]...)
	c.Elements = append(elements, c.Elements[i+1:]...)
	return c
}
