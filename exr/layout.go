package exr

// isSampled reports whether scanline y (measured from the data window's
// minimum Y, i.e. y=0 is the first row in the file) carries data for a
// channel subsampled by ySampling in Y. Only rows on the subsampling
// grid are physically stored.
func isSampled(y, ySampling int) bool {
	if ySampling <= 1 {
		return true
	}
	return y%ySampling == 0
}

// countSampledLines returns how many of the yStart..yStart+count-1 rows
// (relative to the data window origin) fall on the channel's Y
// subsampling grid.
func countSampledLines(yStart, count, ySampling int) int {
	if ySampling <= 1 {
		return count
	}
	n := 0
	for y := yStart; y < yStart+count; y++ {
		if isSampled(y, ySampling) {
			n++
		}
	}
	return n
}

// sampledWidth returns the number of samples one row of width full-res
// pixels contributes for a channel subsampled by xSampling in X.
func sampledWidth(width, xSampling int) int {
	if xSampling <= 1 {
		return width
	}
	return (width + xSampling - 1) / xSampling
}
