package domain

// ThumbnailState is the load state of an item's grid thumbnail.
//
//	NotLoaded -> Loading -> Loaded | Failed
//	Loading   -> NotLoaded (cancelled)
//	Loaded    -> NotLoaded (released)
type ThumbnailState int

const (
	ThumbnailNotLoaded ThumbnailState = iota
	ThumbnailLoading
	ThumbnailLoaded
	ThumbnailFailed
)

func (s ThumbnailState) String() string {
	switch s {
	case ThumbnailNotLoaded:
		return "not-loaded"
	case ThumbnailLoading:
		return "loading"
	case ThumbnailLoaded:
		return "loaded"
	case ThumbnailFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ThumbnailDirection selects the grid cell aspect
type ThumbnailDirection string

const (
	DirectionLandscape ThumbnailDirection = "landscape"
	DirectionPortrait  ThumbnailDirection = "portrait"
)

// CellSize is a thumbnail size in terminal cells
type CellSize struct {
	Cols int
	Rows int
}

// ThumbnailCellSize returns the image area of a grid cell for the direction.
// Landscape approximates a 250x180 tile, portrait a 180x250 tile, with
// terminal cells being roughly twice as tall as wide.
func ThumbnailCellSize(dir ThumbnailDirection) CellSize {
	switch dir {
	case DirectionPortrait:
		return CellSize{Cols: 18, Rows: 13}
	default:
		return CellSize{Cols: 24, Rows: 9}
	}
}
