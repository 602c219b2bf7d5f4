package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/user/gosec-auditlog/pkg/engine"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Show how each line of a log is classified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		data := pterm.TableData{{"Line", "Kind", "Rule", "Subject", "Text"}}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		n := 0
		for scanner.Scan() {
			n++
			c := engine.Classify(scanner.Text())
			if c.Kind == engine.Unrecognized && !all {
				continue
			}
			text := c.Text
			if c.Kind == engine.SectionStart {
				text = c.Title
			}
			data = append(data, []string{strconv.Itoa(n), c.Kind.String(), c.RuleID, c.Subject, text})
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		return pterm.DefaultTable.WithHasHeader(true).WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

func init() {
	classifyCmd.Flags().Bool("all", false, "Include unrecognized lines")
	rootCmd.AddCommand(classifyCmd)
}
