// Package player runs a playlist: entries are opened one after another, outputs are
// handed from one entry to the next and resume positions are remembered.
package player

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/filter"
	"github.com/avsync-cli/avsync/history"
	"github.com/avsync-cli/avsync/log"
	"github.com/avsync-cli/avsync/playback"
	"github.com/avsync-cli/avsync/state"
)

// Item is a playlist entry. Load opens its sources each time it is played.
type Item struct {
	Path string
	Load func() (playback.Entry, error)
}

// Player plays items in order.
type Player struct {
	items    []Item
	opts     config.Options
	sessions []playback.Option
	listener Listener
	resume   bool
	scripts  *filter.Scripts

	mu      sync.Mutex
	current *playback.Session
	// jump is the index to play after the current entry, or -1.
	jump int
}

// Option configures a Player.
type Option func(*Player)

// WithSessionOptions passes options to every session.
func WithSessionOptions(options ...playback.Option) Option {
	return func(p *Player) { p.sessions = append(p.sessions, options...) }
}

// WithListener receives playlist events.
func WithListener(l Listener) Option {
	return func(p *Player) { p.listener = l }
}

// WithResume starts every entry at its saved position.
func WithResume(resume bool) Option {
	return func(p *Player) { p.resume = resume }
}

// New creates a player for items.
func New(items []Item, opts config.Options, options ...Option) *Player {
	p := &Player{items: items, opts: opts, jump: -1, scripts: filter.NewScripts()}
	for _, o := range options {
		o(p)
	}
	return p
}

// Send forwards a command to the entry being played. It reports false when nothing
// is playing or the entry is not accepting commands. Send is safe for concurrent use.
func (p *Player) Send(cmd playback.Command) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false
	}
	return p.current.Send(cmd)
}

// Jump stops the entry being played and continues the playlist at item i.
func (p *Player) Jump(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.items) || p.current == nil {
		return false
	}
	if !p.current.Send(playback.Next()) {
		return false
	}
	p.jump = i
	return true
}

// Len returns the number of items.
func (p *Player) Len() int { return len(p.items) }

func (p *Player) takeJump() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.jump
	p.jump = -1
	return i
}

func (p *Player) setCurrent(s *playback.Session) {
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
}

func (p *Player) emit(e Event) {
	if p.listener != nil {
		p.listener(e)
	}
}

// Run plays the playlist until it ends, an entry asks to quit or ctx is done.
func (p *Player) Run(ctx context.Context) error {
	var devices playback.Devices
	defer func() { closeDevices(devices) }()

	for i := 0; i >= 0 && i < len(p.items); {
		if err := ctx.Err(); err != nil {
			return err
		}

		reason, handed, err := p.play(ctx, i, devices)
		devices = handed
		if err != nil {
			p.emit(Event{Kind: EntryFailed, Index: i, Path: p.items[i].Path, Err: err})
			log.Warnf("skipping %s: %v", p.items[i].Path, err)
			i++
			continue
		}

		if next := p.takeJump(); next >= 0 && reason != state.Quit {
			i = next
			continue
		}
		switch reason {
		case state.Quit:
			return ctx.Err()
		case state.PrevEntry:
			i = max(i-1, 0)
		default:
			i++
		}
	}

	p.emit(Event{Kind: PlaylistFinished})
	return nil
}

// play runs item i and returns the outputs it left open.
func (p *Player) play(ctx context.Context, i int, devices playback.Devices) (state.StopReason, playback.Devices, error) {
	item := p.items[i]
	entry, err := item.Load()
	if err != nil {
		return state.KeepPlaying, devices, err
	}
	if entry.Path == "" {
		entry.Path = item.Path
	}

	opts := p.opts
	if p.resume && item.Path != "" {
		if pos, ok := history.Resume(item.Path).Get(); ok {
			log.Infof("resuming %s at %.3f", item.Path, pos)
			opts.Start = pos
		}
	}

	var s *playback.Session
	skipper := NewSkipper(opts.SkipChapters)
	options := append(slices.Clone(p.sessions), playback.WithScripts(p.scripts))
	if devices != (playback.Devices{}) {
		options = append(options, playback.WithDevices(devices))
	}
	options = append(options, playback.WithStatus(func(status playback.Status) {
		skipper.Check(s, status)
		p.emit(Event{Kind: StatusChanged, Index: i, Path: item.Path, Title: entry.Name(), Status: status})
	}))

	s, err = playback.Open(entry, opts, options...)
	if err != nil {
		return state.KeepPlaying, playback.Devices{}, err
	}
	p.setCurrent(s)
	p.emit(Event{Kind: EntryStarted, Index: i, Path: item.Path, Title: entry.Name()})

	reason := s.Run(ctx)
	if opts.SaveOnStop && item.Path != "" {
		p.save(s, item.Path)
	}
	p.setCurrent(nil)

	closeErr := s.Close()
	p.emit(Event{Kind: EntryStopped, Index: i, Path: item.Path, Title: entry.Name(), Reason: reason, Err: closeErr})
	return reason, s.Handoff(), nil
}

func (p *Player) save(s *playback.Session, path string) {
	record := history.Record{
		Path:     path,
		Title:    s.Entry().Name(),
		Position: s.CurrentTime(),
		Length:   s.Length(),
	}
	if s.StopReason() == state.AtEndOfFile {
		record.Position = record.Length
	}
	if cur := s.CurrentChapter(); cur >= 0 {
		record.Chapter = s.ChapterName(cur)
	}
	if err := history.Save(record); err != nil {
		log.Warnf("saving position of %s: %v", path, err)
	}
}

// closeDevices releases outputs no entry took over. Audio is drained first.
func closeDevices(d playback.Devices) {
	var errs []error
	if d.Audio != nil {
		errs = append(errs, d.Audio.Close(true))
	}
	if d.Video != nil {
		errs = append(errs, d.Video.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warnf("closing outputs: %v", err)
	}
}
