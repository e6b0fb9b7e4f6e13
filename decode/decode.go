// Package decode declares the demuxer and decoder contracts consumed by the playback core.
// Implementations are black boxes that hand out packets, decoded audio bytes and
// decoded video frames along with their timestamps.
package decode

import "errors"

var (
	// ErrEOF signals the expected end of a stream.
	ErrEOF = errors.New("end of stream")
	// ErrFormatChanged signals a mid-stream audio format switch.
	ErrFormatChanged = errors.New("audio format changed")
	// ErrRecoverable marks a failure limited to one frame or packet.
	ErrRecoverable = errors.New("recoverable decoding error")
)

// TimestampType tells how a demuxer stamps video packets.
type TimestampType int

const (
	// TimestampPTS means packets carry presentation timestamps.
	TimestampPTS TimestampType = iota
	// TimestampSort means packet timestamps are only valid after sorting.
	TimestampSort
)

// SeekFlags select how a demuxer interprets a seek amount.
type SeekFlags int

const (
	SeekAbsolute SeekFlags = 1 << iota
	SeekFactor
	SeekForward
	SeekBackward
)

// Has reports whether every bit of flag is set.
func (f SeekFlags) Has(flag SeekFlags) bool {
	return f&flag == flag
}

// Packet is one demuxed unit.
type Packet struct {
	Data []byte
	Pts  float64
}

// Len is the payload size. Zero-length packets mark the absence of a frame.
func (p *Packet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}

// PacketSource yields packets of one elementary stream.
// Next returns ErrEOF once the stream is exhausted.
type PacketSource interface {
	Next() (*Packet, error)
}

// Demuxer is an opened media source.
type Demuxer interface {
	Name() string
	// Video returns the video stream or nil.
	Video() VideoStream
	// Audio returns the audio stream or nil.
	Audio() AudioStream
	// Seek repositions every stream. audioDelay lets the demuxer keep audio ahead of video.
	Seek(amount, audioDelay float64, flags SeekFlags) error
	Seekable() bool
	// AccurateSeek reports whether the demuxer can land on an exact timestamp when decoding forward.
	AccurateSeek() bool
	// Duration returns the length in seconds, or a value <= 0 when unknown.
	Duration() float64
	// StreamPts returns a stream level position or pts.None.
	StreamPts() float64
	TimestampType() TimestampType
	Close() error
}

// VideoStream is the video half of a demuxer along with its decoder.
type VideoStream interface {
	PacketSource
	Decoder() VideoDecoder
	FPS() float64
	// Pts returns the timestamp of the last demuxed packet.
	Pts() float64
}

// AudioStream is the audio half of a demuxer along with its decoder.
type AudioStream interface {
	Decoder() AudioDecoder
}

// Drop tells a video decoder how to treat the next frame.
type Drop int

const (
	DropNone Drop = iota
	// DropDisplay decodes the frame but returns nothing.
	DropDisplay
	// DropDecode additionally allows the decoder to skip non-reference work.
	DropDecode
)

// VideoDecoder turns packets into frames.
type VideoDecoder interface {
	// Decode consumes pkt. A nil pkt drains frames still held by the decoder.
	// A nil frame without an error means nothing is ready yet.
	Decode(pkt *Packet, drop Drop) (*Frame, error)
	// Lag is the number of packets the decoder holds back before emitting a frame, or -1 if unknown.
	Lag() int
	Reset()
}

// AudioDecoder produces raw PCM in Format.
type AudioDecoder interface {
	Format() Format
	// Decode appends decoded bytes to buf until it holds at least minLen bytes
	// or the stream ends. It returns ErrEOF or ErrFormatChanged alongside
	// whatever was decoded.
	Decode(buf []byte, minLen int) ([]byte, error)
	// Pts is the timestamp of the latest decoded packet with a known pts.
	Pts() float64
	// PtsBytes counts bytes produced since Pts.
	PtsBytes() int
	Reset()
}
