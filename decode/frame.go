package decode

// Frame is a decoded planar picture.
type Frame struct {
	// Pts is the timestamp reported by the decoder after reordering, or pts.None.
	Pts    float64
	Width  int
	Height int
	Planes [][]byte
	Stride []int
}

// PlaneSize returns the width and height of plane i, assuming 4:2:0 chroma.
func (f *Frame) PlaneSize(i int) (w, h int) {
	if i == 0 {
		return f.Width, f.Height
	}
	return (f.Width + 1) / 2, (f.Height + 1) / 2
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Planes = make([][]byte, len(f.Planes))
	for i, p := range f.Planes {
		c.Planes[i] = append([]byte(nil), p...)
	}
	c.Stride = append([]int(nil), f.Stride...)
	return &c
}
