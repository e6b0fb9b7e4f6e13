package timeline

import (
	"fmt"

	"github.com/avsync-cli/avsync/constant"
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/decode/synth"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/util"
	"github.com/avsync-cli/avsync/version"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Description is the on-disk form of a timeline.
type Description struct {
	Title    string               `mapstructure:"title" json:"title,omitempty" jsonschema:"description=Display title"`
	Requires string               `mapstructure:"requires" json:"requires,omitempty" jsonschema:"description=Oldest release able to play the file,example=0.3.0"`
	Sources  []SourceDescription  `mapstructure:"sources" json:"sources" jsonschema:"minItems=1"`
	Parts    []PartDescription    `mapstructure:"parts" json:"parts" jsonschema:"minItems=1"`
	Chapters []ChapterDescription `mapstructure:"chapters" json:"chapters,omitempty"`
}

// SourceDescription declares a source. Only generated sources are built in.
type SourceDescription struct {
	ID         string  `mapstructure:"id" json:"id"`
	Kind       string  `mapstructure:"kind" json:"kind" jsonschema:"enum=synth"`
	Duration   float64 `mapstructure:"duration" json:"duration" jsonschema:"exclusiveMinimum=0"`
	FPS        float64 `mapstructure:"fps" json:"fps,omitempty" jsonschema:"minimum=0"`
	SampleRate int     `mapstructure:"sample_rate" json:"sample_rate,omitempty" jsonschema:"minimum=0"`
	Channels   int     `mapstructure:"channels" json:"channels,omitempty" jsonschema:"minimum=0"`
	Reorder    bool    `mapstructure:"reorder" json:"reorder,omitempty"`
	KeyInt     int     `mapstructure:"key_interval" json:"key_interval,omitempty" jsonschema:"minimum=0"`
	AudioStart float64 `mapstructure:"audio_start" json:"audio_start,omitempty"`
}

// PartDescription places length seconds of a source, starting at source_start, after the previous part.
type PartDescription struct {
	Source      string  `mapstructure:"source" json:"source"`
	SourceStart float64 `mapstructure:"source_start" json:"source_start,omitempty" jsonschema:"minimum=0"`
	Length      float64 `mapstructure:"length" json:"length" jsonschema:"exclusiveMinimum=0"`
}

// ChapterDescription names a timeline position.
type ChapterDescription struct {
	Name  string  `mapstructure:"name" json:"name"`
	Start float64 `mapstructure:"start" json:"start" jsonschema:"minimum=0"`
}

// Read parses a TOML timeline description through the application filesystem.
func Read(path string) (*Description, error) {
	v := viper.New()
	v.SetFs(filesystem.API())
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read timeline %s: %w", path, err)
	}

	var desc Description
	if err := v.Unmarshal(&desc); err != nil {
		return nil, fmt.Errorf("decode timeline %s: %w", path, err)
	}
	ok, err := version.Supports(constant.Version, desc.Requires)
	if err != nil {
		return nil, fmt.Errorf("timeline %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("timeline %s requires version %s, this is %s", path, desc.Requires, constant.Version)
	}
	if desc.Title == "" {
		desc.Title = util.FileStem(path)
	}
	return &desc, nil
}

// Build opens the described sources and lays out the parts back to back.
func (d *Description) Build() (*Timeline, error) {
	sources := make(map[string]*Source, len(d.Sources))
	for _, sd := range d.Sources {
		if _, dup := sources[sd.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", sd.ID)
		}
		demuxer, err := sd.Open()
		if err != nil {
			return nil, err
		}
		sources[sd.ID] = &Source{ID: sd.ID, Demuxer: demuxer}
	}

	var (
		parts []Part
		pos   float64
	)
	for i, pd := range d.Parts {
		src, ok := sources[pd.Source]
		if !ok {
			return nil, fmt.Errorf("part %d references unknown source %q", i, pd.Source)
		}
		if pd.Length <= 0 {
			return nil, fmt.Errorf("part %d has non-positive length", i)
		}
		parts = append(parts, Part{Start: pos, SourceStart: pd.SourceStart, Source: src})
		pos += pd.Length
	}

	t, err := New(d.Title, parts, pos)
	if err != nil {
		return nil, err
	}
	t.Chapters = lo.Map(d.Chapters, func(c ChapterDescription, _ int) Chapter {
		return Chapter{Name: c.Name, Start: c.Start}
	})
	return t, nil
}

// Open creates the demuxer of a source.
func (sd SourceDescription) Open() (decode.Demuxer, error) {
	switch sd.Kind {
	case "synth", "":
		opts := synth.Defaults()
		opts.Duration = sd.Duration
		opts.FPS = sd.FPS
		opts.SampleRate = sd.SampleRate
		opts.Reorder = sd.Reorder
		opts.KeyInterval = sd.KeyInt
		opts.AudioStart = sd.AudioStart
		if sd.Channels > 0 {
			opts.Channels = sd.Channels
		}
		return synth.New(sd.ID, opts), nil
	default:
		return nil, fmt.Errorf("source %q: unsupported kind %q", sd.ID, sd.Kind)
	}
}
