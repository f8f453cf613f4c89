package ffmpeg

import "fmt"

// ScaleWidth scales to a specific width, auto-calculating height with even dimensions.
// Frames narrower than width are left at their native size.
func ScaleWidth(width int) Option {
	return Filter(fmt.Sprintf("scale='min(%d,iw)':-2", width))
}
