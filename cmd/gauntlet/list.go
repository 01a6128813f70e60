package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fjell-io/gauntlet/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured stages in run order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(viper.GetString("config"))
		if err != nil {
			return err
		}

		for i, s := range cfg.Stages {
			line := fmt.Sprintf("%d. %s: %s", i+1, s.Name, s.Command)
			if len(s.Args) > 0 {
				line += " " + strings.Join(s.Args, " ")
			}
			var marks []string
			if s.Disabled {
				marks = append(marks, "disabled")
			}
			if s.ContinueOnFailure {
				marks = append(marks, "continue-on-failure")
			}
			if len(marks) > 0 {
				line += " [" + strings.Join(marks, ", ") + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
