// Package icon renders the symbols in front of CLI and TUI messages.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/avsync-cli/avsync/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns every icon variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.CliIcons) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Chapter
	Drop
)

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", nerd: "", plain: "✓", squares: "🟩"},
	Fail:     {emoji: "💀", nerd: "", plain: "X", squares: "🟥"},
	Progress: {emoji: "⏳", nerd: "", plain: "...", squares: "🟦"},
	Play:     {emoji: "▶️", nerd: "", plain: ">", squares: "🟩"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||", squares: "🟨"},
	Chapter:  {emoji: "🔖", nerd: "", plain: "#", squares: "🟪"},
	Drop:     {emoji: "⚠️", nerd: "", plain: "!", squares: "🟧"},
}

// Get returns the symbol of i in the configured variant.
func Get(i Icon) string {
	return icons[i].Get()
}
