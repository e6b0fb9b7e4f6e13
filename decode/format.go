package decode

import "fmt"

// Format describes interleaved PCM.
type Format struct {
	Rate     int
	Channels int
	Bits     int
	Signed   bool
	// Special marks compressed passthrough formats that cannot be padded or cut.
	Special bool
}

// S16 is the usual signed 16 bit format.
func S16(rate, channels int) Format {
	return Format{Rate: rate, Channels: channels, Bits: 16, Signed: true}
}

// UnitSize is the size of one sample frame in bytes.
func (f Format) UnitSize() int {
	return f.Channels * f.Bits / 8
}

// BytesPerSecond is the data rate at normal speed.
func (f Format) BytesPerSecond() int {
	return f.Rate * f.UnitSize()
}

// FillByte is the value of digital silence.
func (f Format) FillByte() byte {
	if f.Signed {
		return 0
	}
	return 0x80
}

// Modifiable reports whether silence can be inserted or samples cut.
func (f Format) Modifiable() bool {
	return !f.Special
}

func (f Format) String() string {
	sign := "s"
	if !f.Signed {
		sign = "u"
	}
	return fmt.Sprintf("%dHz %dch %s%d", f.Rate, f.Channels, sign, f.Bits)
}
