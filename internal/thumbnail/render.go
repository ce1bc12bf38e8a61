package thumbnail

import (
	"image"
	"strings"

	"github.com/blacktop/go-termimg"
	"github.com/pixeval/pixterm/internal/domain"
)

// Fallback cell size in pixels when the terminal does not report one
const (
	defaultCellPixelWidth  = 10
	defaultCellPixelHeight = 20
)

// Renderer turns an image into text that occupies size terminal cells
type Renderer interface {
	Render(img image.Image, size domain.CellSize) (string, error)
	// CellPixels returns the pixel size of one terminal cell
	CellPixels() (int, int)
}

// TermRenderer renders through the best graphics protocol the terminal
// supports, falling back to half blocks.
type TermRenderer struct {
	protocol termimg.Protocol
	dither   bool
	cellW    int
	cellH    int
}

// NewTermRenderer probes the terminal. protocol is "auto" or "halfblocks".
func NewTermRenderer(protocol string, dither bool) *TermRenderer {
	r := &TermRenderer{
		dither: dither,
		cellW:  defaultCellPixelWidth,
		cellH:  defaultCellPixelHeight,
	}
	if strings.EqualFold(protocol, "halfblocks") {
		r.protocol = termimg.Halfblocks
	} else {
		r.protocol = termimg.DetectProtocol()
	}
	if features := termimg.QueryTerminalFeatures(); features != nil && features.FontWidth > 0 && features.FontHeight > 0 {
		r.cellW = features.FontWidth
		r.cellH = features.FontHeight
	}
	return r
}

func (r *TermRenderer) CellPixels() (int, int) {
	return r.cellW, r.cellH
}

func (r *TermRenderer) Render(src image.Image, size domain.CellSize) (string, error) {
	img := termimg.New(src).Scale(termimg.ScaleNone)
	if r.protocol == termimg.Halfblocks && r.dither {
		img = img.Dither(true).DitherMode(termimg.DitherFloydSteinberg)
	}
	widget := termimg.NewImageWidget(img)
	widget.SetSize(size.Cols, size.Rows).SetProtocol(r.protocol)
	return widget.Render()
}

// Image is a rendered thumbnail owned by one grid item
type Image struct {
	text   string
	closed bool
}

func NewImage(text string) *Image {
	return &Image{text: text}
}

func (i *Image) Render() string {
	if i.closed {
		return ""
	}
	return i.text
}

func (i *Image) Close() error {
	i.closed = true
	i.text = ""
	return nil
}

// Closed reports whether the image was released
func (i *Image) Closed() bool {
	return i.closed
}
