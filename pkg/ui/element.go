// Package ui models the client UI elements drawn through the referee link.
package ui

import (
	"encoding/binary"
	"fmt"
)

// Operation is the graphic operation.
type Operation uint8

// Graphic operations.
const (
	OpNop Operation = iota
	OpAdd
	OpRewrite
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpNop:
		return "nop"
	case OpAdd:
		return "add"
	case OpRewrite:
		return "rewrite"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// GraphicType is the shape of a graphic.
type GraphicType uint8

// Graphic types.
const (
	TypeLine GraphicType = iota
	TypeRectangle
	TypeCircle
	TypeEllipse
	TypeArc
	TypeFloat
	TypeInt
	TypeChar
)

// Layer is the display layer, 0 to 9.
type Layer uint8

// Layers used by the refresh rotation.
const (
	LayerConst Layer = iota
	LayerChassis
	LayerCap
	LayerGimbal
	LayerLauncher
	LayerCmd
)

// Color is the graphic color.
type Color uint8

// Colors.
const (
	ColorMain Color = iota
	ColorYellow
	ColorGreen
	ColorOrange
	ColorPurple
	ColorPink
	ColorCyan
	ColorBlack
	ColorWhite
)

// Encoded sizes.
const (
	NameSize    = 3
	GraphicSize = 15
	TextSize    = 30
	LabelSize   = GraphicSize + TextSize
	DeleteSize  = 2
)

// Bit limits of the packed fields.
const (
	MaxAngle  = 1<<9 - 1
	MaxWidth  = 1<<10 - 1
	MaxRadius = 1<<10 - 1
	MaxPixel  = 1<<11 - 1
)

// Name is the element identifier. Elements with the same name on
// the client are replaced by rewrites.
// Its width is fixed by the 3-byte graphic_name field of the wire element.
type Name [NameSize]byte

// NameOf converts a string to Name, truncating extra bytes.
func NameOf(s string) (n Name) {
	copy(n[:], s)
	return
}

// String implements fmt.Stringer.
func (n Name) String() string {
	l := 0
	for l < len(n) && n[l] != 0 {
		l++
	}
	return string(n[:l])
}

// Graphic is a single graphic element.
type Graphic struct {
	Name       Name
	Op         Operation
	Type       GraphicType
	Layer      Layer
	Color      Color
	StartAngle uint16
	EndAngle   uint16
	Width      uint16
	StartX     uint16
	StartY     uint16
	Radius     uint16
	EndX       uint16
	EndY       uint16
}

// IsZero returns true for an inert element.
func (g *Graphic) IsZero() bool {
	return *g == Graphic{}
}

// Encode writes the wire form into b which must hold GraphicSize bytes.
func (g *Graphic) Encode(b []byte) {
	_ = b[GraphicSize-1]
	copy(b[:NameSize], g.Name[:])
	w1 := uint32(g.Op&0x7) |
		uint32(g.Type&0x7)<<3 |
		uint32(g.Layer&0xf)<<6 |
		uint32(g.Color&0xf)<<10 |
		uint32(g.StartAngle&MaxAngle)<<14 |
		uint32(g.EndAngle&MaxAngle)<<23
	w2 := uint32(g.Width&MaxWidth) |
		uint32(g.StartX&MaxPixel)<<10 |
		uint32(g.StartY&MaxPixel)<<21
	w3 := uint32(g.Radius&MaxRadius) |
		uint32(g.EndX&MaxPixel)<<10 |
		uint32(g.EndY&MaxPixel)<<21
	binary.LittleEndian.PutUint32(b[3:], w1)
	binary.LittleEndian.PutUint32(b[7:], w2)
	binary.LittleEndian.PutUint32(b[11:], w3)
}

// Decode parses the wire form.
func (g *Graphic) Decode(b []byte) error {
	if len(b) < GraphicSize {
		return fmt.Errorf("graphic requires %d bytes, got %d", GraphicSize, len(b))
	}
	copy(g.Name[:], b[:NameSize])
	w1 := binary.LittleEndian.Uint32(b[3:])
	w2 := binary.LittleEndian.Uint32(b[7:])
	w3 := binary.LittleEndian.Uint32(b[11:])
	g.Op = Operation(w1 & 0x7)
	g.Type = GraphicType((w1 >> 3) & 0x7)
	g.Layer = Layer((w1 >> 6) & 0xf)
	g.Color = Color((w1 >> 10) & 0xf)
	g.StartAngle = uint16((w1 >> 14) & MaxAngle)
	g.EndAngle = uint16((w1 >> 23) & MaxAngle)
	g.Width = uint16(w2 & MaxWidth)
	g.StartX = uint16((w2 >> 10) & MaxPixel)
	g.StartY = uint16((w2 >> 21) & MaxPixel)
	g.Radius = uint16(w3 & MaxRadius)
	g.EndX = uint16((w3 >> 10) & MaxPixel)
	g.EndY = uint16((w3 >> 21) & MaxPixel)
	return nil
}

// Label is a character graphic with its text.
// Graphic.StartAngle holds the font size and Graphic.EndAngle the text length.
type Label struct {
	Graphic
	Text [TextSize]byte
}

// TextString returns the text as a string.
func (l *Label) TextString() string {
	n := int(l.EndAngle)
	if n > TextSize {
		n = TextSize
	}
	return string(l.Text[:n])
}

// Encode writes the wire form into b which must hold LabelSize bytes.
func (l *Label) Encode(b []byte) {
	_ = b[LabelSize-1]
	l.Graphic.Encode(b)
	copy(b[GraphicSize:LabelSize], l.Text[:])
}

// Decode parses the wire form.
func (l *Label) Decode(b []byte) error {
	if len(b) < LabelSize {
		return fmt.Errorf("label requires %d bytes, got %d", LabelSize, len(b))
	}
	l.Graphic.Decode(b)
	copy(l.Text[:], b[GraphicSize:LabelSize])
	return nil
}

// DeleteOp selects what a Delete removes.
type DeleteOp uint8

// Delete operations.
const (
	DelNop DeleteOp = iota
	DelLayer
	DelAll
)

// Delete removes a layer or everything from the client.
type Delete struct {
	Op    DeleteOp
	Layer Layer
}

// Encode writes the wire form into b which must hold DeleteSize bytes.
func (d *Delete) Encode(b []byte) {
	b[0], b[1] = byte(d.Op), byte(d.Layer)
}

// Decode parses the wire form.
func (d *Delete) Decode(b []byte) error {
	if len(b) < DeleteSize {
		return fmt.Errorf("delete requires %d bytes, got %d", DeleteSize, len(b))
	}
	d.Op, d.Layer = DeleteOp(b[0]), Layer(b[1])
	return nil
}
