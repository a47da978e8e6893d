package compare

// DefaultPinColor is used when a pin is placed without an explicit color.
const DefaultPinColor = "#FF2E97"

// Cursor tracks the hovered and pinned x positions shared by every chart.
//
// The hovered position is transient and follows the pointer. The pinned
// position persists until it is cleared or moved. A pin that no longer
// appears in the current x values is kept as is; callers can detect that
// case with Stale.
type Cursor struct {
	hovered     XValue
	hasHover    bool
	pinned      XValue
	hasPin      bool
	pinnedColor string
}

// Hover sets the transient hover position.
func (c *Cursor) Hover(x XValue) {
	c.hovered = x
	c.hasHover = true
}

// ClearHover drops the hover position, e.g. when the pointer leaves a plot.
func (c *Cursor) ClearHover() {
	c.hovered = XValue{}
	c.hasHover = false
}

// Hovered returns the hover position if any.
func (c *Cursor) Hovered() (XValue, bool) {
	return c.hovered, c.hasHover
}

// Pin fixes the pinned position, keeping the current pin color.
func (c *Cursor) Pin(x XValue) {
	c.pinned = x
	c.hasPin = true
	if c.pinnedColor == "" {
		c.pinnedColor = DefaultPinColor
	}
}

// PinWithColor fixes the pinned position and its marker color.
func (c *Cursor) PinWithColor(x XValue, color string) {
	c.Pin(x)
	if color != "" {
		c.pinnedColor = color
	}
}

// Unpin clears the pinned position.
func (c *Cursor) Unpin() {
	c.pinned = XValue{}
	c.hasPin = false
}

// Pinned returns the pinned position if any.
func (c *Cursor) Pinned() (XValue, bool) {
	return c.pinned, c.hasPin
}

// PinnedColor returns the marker color of the pin.
func (c *Cursor) PinnedColor() string {
	if c.pinnedColor == "" {
		return DefaultPinColor
	}
	return c.pinnedColor
}

// ShowPinLabel reports whether the pin label should be drawn, which is only
// while the hover sits on the pin.
func (c *Cursor) ShowPinLabel() bool {
	return c.hasPin && c.hasHover && c.hovered == c.pinned
}

// PinnedIndex returns the index of the pin within xs, or -1.
func (c *Cursor) PinnedIndex(xs []XValue) int {
	if !c.hasPin {
		return -1
	}
	for i, x := range xs {
		if x == c.pinned {
			return i
		}
	}
	return -1
}

// Stale reports a pin that is set but absent from xs.
func (c *Cursor) Stale(xs []XValue) bool {
	return c.hasPin && c.PinnedIndex(xs) < 0
}

// Prev moves the pin one position left. No-op at the first position or
// when nothing in xs is pinned.
func (c *Cursor) Prev(xs []XValue) bool {
	p := c.PinnedIndex(xs)
	if p <= 0 {
		return false
	}
	c.Pin(xs[p-1])
	return true
}

// Next moves the pin one position right, pinning the first value when
// nothing in xs is pinned yet. No-op at the last position.
func (c *Cursor) Next(xs []XValue) bool {
	p := c.PinnedIndex(xs)
	if p == -1 {
		if len(xs) == 0 {
			return false
		}
		c.Pin(xs[0])
		return true
	}
	if p >= len(xs)-1 {
		return false
	}
	c.Pin(xs[p+1])
	return true
}
