// Package pcm writes raw audio to a file instead of a sound card.
package pcm

import (
	"fmt"
	"os"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/spf13/afero"
)

// Driver is an untimed audio device backed by a file on the application filesystem.
type Driver struct {
	path   string
	file   afero.File
	format decode.Format
	// written counts bytes stored in the file.
	written int64
}

// New creates a driver writing to path.
func New(path string) *Driver {
	return &Driver{path: path}
}

func (d *Driver) Init(format decode.Format) error {
	if d.file != nil {
		_ = d.file.Close()
	}
	f, err := filesystem.API().OpenFile(d.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", device.ErrUnavailable, err)
	}
	d.file = f
	d.format = format
	d.written = 0
	return nil
}

func (d *Driver) Format() decode.Format { return d.format }

// Space offers a tenth of a second per call.
func (d *Driver) Space() int {
	return d.format.BytesPerSecond() / 10 / d.format.UnitSize() * d.format.UnitSize()
}

func (d *Driver) Play(data []byte, flags device.PlayFlags) int {
	n, err := d.file.Write(data)
	d.written += int64(n)
	if err != nil {
		return n - n%d.format.UnitSize()
	}
	return n
}

func (d *Driver) Delay() float64 { return 0 }
func (d *Driver) Reset()         {}
func (d *Driver) Pause()         {}
func (d *Driver) Resume()        {}
func (d *Driver) Untimed() bool  { return true }

// Written returns the number of bytes stored so far.
func (d *Driver) Written() int64 { return d.written }

func (d *Driver) Close(drain bool) error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
