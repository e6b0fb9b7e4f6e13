package audio

// stretcher changes playback speed by dropping or repeating whole sample frames.
// The fractional read position carries over between chunks.
type stretcher struct {
	speed float64
	pos   float64
}

func (s *stretcher) reset() {
	s.pos = 0
}

func (s *stretcher) apply(dst, src []byte, unit int) []byte {
	if s.speed == 1 || s.speed <= 0 || unit <= 0 {
		return append(dst, src...)
	}
	frames := len(src) / unit
	for int(s.pos) < frames {
		i := int(s.pos) * unit
		dst = append(dst, src[i:i+unit]...)
		s.pos += s.speed
	}
	s.pos -= float64(frames)
	return dst
}
