package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/avsync-cli/avsync/color"
	"github.com/avsync-cli/avsync/constant"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/timeline"
	"github.com/avsync-cli/avsync/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(timelineCmd)
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Work with ordered-chapter timeline files",
}

func init() {
	timelineCmd.AddCommand(timelineSchemaCmd)
	timelineSchemaCmd.SetOut(os.Stdout)
}

var timelineSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of timeline files",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(timeline.Schema()))
	},
}

func init() {
	timelineCmd.AddCommand(timelineNewCmd)
}

var timelineNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a timeline file from a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := strings.TrimSuffix(args[0], ".toml")
		path := filepath.Join(where.Timelines(), name+".toml")
		if exists := lo.Must(filesystem.API().Exists(path)); exists {
			handleErr(fmt.Errorf("timeline %s already exists", path))
		}

		tmpl := lo.Must(template.New("timeline").Parse(constant.TimelineTemplate))
		var b strings.Builder
		handleErr(tmpl.Execute(&b, struct{ Name string }{name}))
		handleErr(filesystem.API().WriteFile(path, []byte(b.String()), os.ModePerm))

		fmt.Printf("%s created %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

func init() {
	timelineCmd.AddCommand(timelineShowCmd)
	timelineShowCmd.SetOut(os.Stdout)
}

var timelineShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Validate a timeline file and list its parts and chapters",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		desc, err := timeline.Read(args[0])
		handleErr(err)
		tl, err := desc.Build()
		handleErr(err)

		header := style.New().Bold(true).Foreground(color.Purple).Render
		cmd.Printf("%s %s\n", header(tl.Title), style.Faint(pts.Format(tl.Duration(), false)))

		for i := 0; i < tl.Len(); i++ {
			part := tl.Part(i)
			cmd.Printf("  %s %s  %s %s from %s\n",
				style.Fg(color.Yellow)(fmt.Sprintf("part %d", i+1)),
				pts.Format(part.Start, true),
				style.Faint("source"),
				part.Source.ID,
				pts.Format(part.SourceStart, true),
			)
		}
		for i, c := range tl.Chapters {
			cmd.Printf("  %s %s  %s\n", icon.Get(icon.Chapter), pts.Format(c.Start, true), tl.ChapterName(i))
		}
	},
}
