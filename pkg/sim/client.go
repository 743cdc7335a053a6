package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/ui"
)

// Element is a graphic shown on the operator client.
type Element struct {
	Name    string     `json:"name"`
	Graphic ui.Graphic `json:"graphic"`
	Text    string     `json:"text,omitempty"`
}

// Change actions.
const (
	ActionReset  = "reset"
	ActionObject = "object"
	ActionRemove = "remove"
)

// Change is an update of the client screen.
type Change struct {
	Action   string   `json:"action"`
	Element  *Element `json:"element,omitempty"`
	RemoveID string   `json:"id,omitempty"`
}

// ChangeListener receives screen changes.
type ChangeListener interface {
	ScreenChanged(changes []Change)
}

// ScreenChangedFunc is the func form of ChangeListener.
type ScreenChangedFunc func([]Change)

// ScreenChanged implements ChangeListener.
func (f ScreenChangedFunc) ScreenChanged(changes []Change) {
	f(changes)
}

// ClientStats counts UI frames received.
type ClientStats struct {
	Frames  uint64 `json:"frames"`
	Errors  uint64 `json:"errors"`
	Rejects uint64 `json:"rejects"`
}

// Client emulates the operator client rendering UI frames.
type Client struct {
	// Receiver filters frames by receiver id, 0 accepts all.
	Receiver uint16

	lock      sync.Mutex
	elements  map[ui.Name]Element
	stats     ClientStats
	listeners []ChangeListener
}

// NewClient creates an empty Client.
func NewClient() *Client {
	return &Client{elements: make(map[ui.Name]Element)}
}

// Subscribe registers ln for screen changes.
func (c *Client) Subscribe(ln ChangeListener) {
	c.lock.Lock()
	c.listeners = append(c.listeners, ln)
	c.lock.Unlock()
}

// HandleFrame applies one CmdInterRobot frame to the screen.
func (c *Client) HandleFrame(b []byte) error {
	f, err := referee.ParseUIFrame(b)
	c.lock.Lock()
	if err != nil {
		c.stats.Errors++
		c.lock.Unlock()
		return err
	}
	if c.Receiver != 0 && f.Receiver != c.Receiver {
		c.stats.Rejects++
		c.lock.Unlock()
		return nil
	}
	c.stats.Frames++
	var changes []Change
	switch f.SubCmd {
	case referee.SubCmdDelete:
		var d ui.Delete
		if err = d.Decode(f.Payload); err == nil {
			changes = c.delete(d)
		}
	case referee.SubCmdDraw1, referee.SubCmdDraw2, referee.SubCmdDraw5, referee.SubCmdDraw7:
		var graphics []ui.Graphic
		if graphics, err = f.Graphics(); err == nil {
			for _, g := range graphics {
				if g.IsZero() {
					continue
				}
				if ch, ok := c.apply(Element{Name: g.Name.String(), Graphic: g}); ok {
					changes = append(changes, ch)
				}
			}
		}
	case referee.SubCmdString:
		var l ui.Label
		if err = l.Decode(f.Payload); err == nil {
			if ch, ok := c.apply(Element{Name: l.Name.String(), Graphic: l.Graphic, Text: l.TextString()}); ok {
				changes = append(changes, ch)
			}
		}
	default:
		err = fmt.Errorf("unknown sub cmd 0x%04x", uint16(f.SubCmd))
	}
	if err != nil {
		c.stats.Errors++
	}
	listeners := c.listeners
	c.lock.Unlock()
	if len(changes) > 0 {
		for _, ln := range listeners {
			ln.ScreenChanged(changes)
		}
	}
	return err
}

// apply updates the screen, rewriting a missing element is ignored.
func (c *Client) apply(e Element) (Change, bool) {
	_, exist := c.elements[e.Graphic.Name]
	switch e.Graphic.Op {
	case ui.OpDelete:
		delete(c.elements, e.Graphic.Name)
		return Change{Action: ActionRemove, RemoveID: e.Name}, exist
	case ui.OpRewrite:
		if !exist {
			return Change{}, false
		}
	case ui.OpAdd:
	default:
		return Change{}, false
	}
	c.elements[e.Graphic.Name] = e
	return Change{Action: ActionObject, Element: &e}, true
}

func (c *Client) delete(d ui.Delete) (changes []Change) {
	switch d.Op {
	case ui.DelAll:
		c.elements = make(map[ui.Name]Element)
		return []Change{{Action: ActionReset}}
	case ui.DelLayer:
		for name, e := range c.elements {
			if e.Graphic.Layer == d.Layer {
				delete(c.elements, name)
				changes = append(changes, Change{Action: ActionRemove, RemoveID: e.Name})
			}
		}
	}
	return
}

// Element returns the element named name.
func (c *Client) Element(name string) (Element, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.elements[ui.NameOf(name)]
	return e, ok
}

// Elements returns all elements sorted by name.
func (c *Client) Elements() []Element {
	c.lock.Lock()
	elements := make([]Element, 0, len(c.elements))
	for _, e := range c.elements {
		elements = append(elements, e)
	}
	c.lock.Unlock()
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].Name < elements[j].Name
	})
	return elements
}

// Stats returns the frame counters.
func (c *Client) Stats() ClientStats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}
