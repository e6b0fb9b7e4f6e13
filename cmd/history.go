package cmd

import (
	"fmt"
	"os"

	"github.com/avsync-cli/avsync/color"
	"github.com/avsync-cli/avsync/history"
	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("clear", false, "Forget every saved position")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved resume positions",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(history.Clear())
			fmt.Printf("%s history cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		records, err := history.List()
		handleErr(err)
		if len(records) == 0 {
			cmd.Println(style.Faint("no saved positions"))
			return
		}

		cmd.Println(style.Faint(util.Quantify(len(records), "saved position", "saved positions")))
		for _, r := range records {
			line := r.String()
			if r.Length > 0 {
				line += style.Faint(fmt.Sprintf(" (%.0f%%)", r.Percent()))
			}
			if r.Chapter != "" {
				line += " " + style.Fg(color.Yellow)(r.Chapter)
			}
			cmd.Println(line)
			cmd.Println(style.Faint("  " + r.Path))
		}
	},
}
