package style

// Category10 is the ten-color categorical scheme used for unconfigured keys.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Palette is an ordinal color scale: each new key takes the next color,
// cycling after the last. The same sequence of keys always yields the same
// colors.
type Palette struct {
	colors []string
	seen   map[string]string
	next   int
}

// NewPalette returns a palette over colors, or Category10 when colors is empty.
func NewPalette(colors ...string) *Palette {
	if len(colors) == 0 {
		colors = Category10
	}
	return &Palette{colors: colors, seen: make(map[string]string)}
}

// Color returns the color assigned to key, assigning one on first use.
func (p *Palette) Color(key string) string {
	if c, ok := p.seen[key]; ok {
		return c
	}
	c := p.colors[p.next%len(p.colors)]
	p.next++
	p.seen[key] = c
	return c
}

// Len returns the number of keys assigned so far.
func (p *Palette) Len() int { return len(p.seen) }
