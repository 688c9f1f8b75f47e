package core

type (
	// StylePatch is a merge-patch for Style. Nil fields are left unchanged.
	StylePatch struct {
		FontFamily    *string  `json:"fontFamily,omitempty"`
		FontSize      *float64 `json:"fontSize,omitempty" validate:"omitempty,gte=0"`
		FontWeight    *string  `json:"fontWeight,omitempty"`
		FontStyle     *string  `json:"fontStyle,omitempty"`
		Color         *string  `json:"color,omitempty"`
		TextAlign     *string  `json:"textAlign,omitempty" validate:"omitempty,oneof=left center right justify"`
		Opacity       *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
		TextTransform *string  `json:"textTransform,omitempty" validate:"omitempty,oneof=none uppercase lowercase capitalize"`
		LetterSpacing *float64 `json:"letterSpacing,omitempty"`
		LineHeight    *float64 `json:"lineHeight,omitempty" validate:"omitempty,gte=0"`
	}

	// ElementPatch is a merge-patch for Element. The id and type are fixed
	// for the lifetime of an element and cannot be patched.
	ElementPatch struct {
		Content *string     `json:"content,omitempty"`
		X       *float64    `json:"x,omitempty"`
		Y       *float64    `json:"y,omitempty"`
		Width   *float64    `json:"width,omitempty" validate:"omitempty,gte=0"`
		Height  *float64    `json:"height,omitempty" validate:"omitempty,gte=0"`
		Style   *StylePatch `json:"style,omitempty"`
	}

	// CanvasPatch is a merge-patch for Canvas.
	CanvasPatch struct {
		Width           *float64     `json:"width,omitempty" validate:"omitempty,gt=0"`
		Height          *float64     `json:"height,omitempty" validate:"omitempty,gt=0"`
		BackgroundColor *string      `json:"backgroundColor,omitempty"`
		BackgroundImage *string      `json:"backgroundImage,omitempty"`
		Orientation     *Orientation `json:"orientation,omitempty" validate:"omitempty,oneof=landscape portrait"`
	}
)

// Position builds a patch that moves an element to (x, y).
func Position(x, y float64) ElementPatch {
	return ElementPatch{X: &x, Y: &y}
}

// ContentPatch builds a patch that replaces an element's content.
func ContentPatch(content string) ElementPatch {
	return ElementPatch{Content: &content}
}

// Apply returns s with the non-nil fields of p merged in.
func (p StylePatch) Apply(s Style) Style {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		s.FontStyle = *p.FontStyle
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.TextAlign != nil {
		s.TextAlign = *p.TextAlign
	}
	if p.Opacity != nil {
		opacity := *p.Opacity
		s.Opacity = &opacity
	}
	if p.TextTransform != nil {
		s.TextTransform = *p.TextTransform
	}
	if p.LetterSpacing != nil {
		s.LetterSpacing = *p.LetterSpacing
	}
	if p.LineHeight != nil {
		s.LineHeight = *p.LineHeight
	}
	return s
}

// Apply returns el with the non-nil fields of p merged in.
func (p ElementPatch) Apply(el Element) Element {
	if p.Content != nil {
		el.Content = *p.Content
	}
	if p.X != nil {
		el.X = *p.X
	}
	if p.Y != nil {
		el.Y = *p.Y
	}
	if p.Width != nil {
		w := *p.Width
		el.Width = &w
	}
	if p.Height != nil {
		h := *p.Height
		el.Height = &h
	}
	if p.Style != nil {
		el.Style = p.Style.Apply(el.Style)
	}
	return el
}

// Apply returns c with the non-nil fields of p merged in. Switching
// orientation swaps the page dimensions unless the patch sets them.
func (p CanvasPatch) Apply(c Canvas) Canvas {
	if p.Orientation != nil && *p.Orientation != c.Orientation {
		c.Orientation = *p.Orientation
		if p.Width == nil && p.Height == nil {
			c.Width, c.Height = c.Height, c.Width
		}
	}
	if p.Width != nil {
		c.Width = *p.Width
	}
	if p.Height != nil {
		c.Height = *p.Height
	}
	if p.BackgroundColor != nil {
		c.BackgroundColor = *p.BackgroundColor
	}
	if p.BackgroundImage != nil {
		c.BackgroundImage = *p.BackgroundImage
	}
	return c
}
