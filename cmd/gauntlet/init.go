package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterConfig = `options:
  workdir: .

stages:
  - name: check
    command: cargo
    args: [check]

  - name: fmt
    command: cargo
    args: [fmt]

  - name: clippy
    command: cargo
    args: [clippy, --, -D, warnings]

  - name: test
    command: cargo
    args: [test]

# trigger:
#   watch: src
#   ignore: [target]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter gauntlet.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "gauntlet.yaml"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("wrote %s; edit the stages to match your tools\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
