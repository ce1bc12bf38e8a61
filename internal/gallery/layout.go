package gallery

// Container is the realized geometry of one grid cell, in rows relative to
// the top of the visible area.
type Container struct {
	Index  int
	Top    float64
	Bottom float64
}

// Viewport answers visibility questions about realized containers
type Viewport interface {
	// ContainerFromIndex returns the container for a realized index
	ContainerFromIndex(i int) (Container, bool)
	// ContainerFromItem returns the container of an item in the current view
	ContainerFromItem(it *Item) (Container, bool)
	IsFullyOrPartiallyVisible(c Container) bool
	// ItemHeight is the height of one row of cells
	ItemHeight() float64
}

// GridLayout places cells in fixed-size rows scrolled by whole rows
type GridLayout struct {
	Columns    int
	CellHeight int
	Height     int // visible lines
	ScrollRow  int // first visible grid row
	Count      func() int
}

func (l *GridLayout) columns() int {
	if l.Columns < 1 {
		return 1
	}
	return l.Columns
}

func (l *GridLayout) ContainerFromIndex(i int) (Container, bool) {
	if l.Count == nil || i < 0 || i >= l.Count() {
		return Container{}, false
	}
	row := i / l.columns()
	top := float64((row - l.ScrollRow) * l.CellHeight)
	return Container{Index: i, Top: top, Bottom: top + float64(l.CellHeight)}, true
}

func (l *GridLayout) ContainerFromItem(it *Item) (Container, bool) {
	if it == nil {
		return Container{}, false
	}
	return l.ContainerFromIndex(it.Index())
}

func (l *GridLayout) IsFullyOrPartiallyVisible(c Container) bool {
	return c.Bottom > 0 && c.Top < float64(l.Height)
}

func (l *GridLayout) ItemHeight() float64 {
	return float64(l.CellHeight)
}

// Rows returns the number of grid rows needed for n cells
func (l *GridLayout) Rows(n int) int {
	return (n + l.columns() - 1) / l.columns()
}

// VisibleRows returns how many grid rows fit in the viewport (at least one)
func (l *GridLayout) VisibleRows() int {
	if l.CellHeight <= 0 {
		return 1
	}
	return max(1, l.Height/l.CellHeight)
}

// Distance returns how far the container lies outside the visible area
func (l *GridLayout) Distance(c Container) float64 {
	return DistanceOutside(c, float64(l.Height))
}

// DistanceOutside measures the gap between a container and the visible band
// [0, height): zero when any part is visible, otherwise the distance to the
// nearest edge above or below.
func DistanceOutside(c Container, height float64) float64 {
	switch {
	case c.Top >= height:
		return c.Top - height
	case c.Bottom <= 0:
		return -c.Bottom
	default:
		return 0
	}
}
