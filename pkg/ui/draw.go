package ui

// Default stroke widths.
const (
	DefaultWidth     = 1
	CharDefaultWidth = 2
)

// Screen is the client screen geometry in pixels.
type Screen struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultScreen is the resolution of the client.
var DefaultScreen = Screen{Width: 1920, Height: 1080}

// W returns the horizontal position of fraction f of the width.
func (s Screen) W(f float32) float32 {
	return float32(s.Width) * f
}

// H returns the vertical position of fraction f of the height.
func (s Screen) H(f float32) float32 {
	return float32(s.Height) * f
}

// Pixel converts a coordinate into the 11-bit field, clamping at both ends.
func Pixel(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= MaxPixel {
		return MaxPixel
	}
	return uint16(v)
}

// Line creates a line from (x1, y1) to (x2, y2).
func Line(name string, op Operation, layer Layer, color Color, width uint16, x1, y1, x2, y2 float32) Graphic {
	return Graphic{
		Name:   NameOf(name),
		Op:     op,
		Type:   TypeLine,
		Layer:  layer,
		Color:  color,
		Width:  width,
		StartX: Pixel(x1),
		StartY: Pixel(y1),
		EndX:   Pixel(x2),
		EndY:   Pixel(y2),
	}
}

// Rectangle creates a rectangle with opposite corners (x1, y1) and (x2, y2).
func Rectangle(name string, op Operation, layer Layer, color Color, width uint16, x1, y1, x2, y2 float32) Graphic {
	g := Line(name, op, layer, color, width, x1, y1, x2, y2)
	g.Type = TypeRectangle
	return g
}

// Circle creates a circle centered at (x, y).
func Circle(name string, op Operation, layer Layer, color Color, width uint16, x, y float32, radius uint16) Graphic {
	return Graphic{
		Name:   NameOf(name),
		Op:     op,
		Type:   TypeCircle,
		Layer:  layer,
		Color:  color,
		Width:  width,
		StartX: Pixel(x),
		StartY: Pixel(y),
		Radius: radius,
	}
}

// Arc creates an arc from startAngle to endAngle in degrees, centered at (x, y)
// with semi-axes rx and ry.
func Arc(name string, op Operation, layer Layer, color Color, startAngle, endAngle, width uint16, x, y float32, rx, ry uint16) Graphic {
	return Graphic{
		Name:       NameOf(name),
		Op:         op,
		Type:       TypeArc,
		Layer:      layer,
		Color:      color,
		StartAngle: startAngle,
		EndAngle:   endAngle,
		Width:      width,
		StartX:     Pixel(x),
		StartY:     Pixel(y),
		EndX:       rx,
		EndY:       ry,
	}
}

// Text creates a label at (x, y). Text longer than TextSize is truncated.
func Text(name string, op Operation, layer Layer, color Color, fontSize, width uint16, x, y float32, text string) Label {
	l := Label{Graphic: Graphic{
		Name:       NameOf(name),
		Op:         op,
		Type:       TypeChar,
		Layer:      layer,
		Color:      color,
		StartAngle: fontSize,
		Width:      width,
		StartX:     Pixel(x),
		StartY:     Pixel(y),
	}}
	l.EndAngle = uint16(copy(l.Text[:], text))
	return l
}
