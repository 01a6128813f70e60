package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fjell-io/gauntlet/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: "Loads and validates the config, then checks that each enabled stage's command resolves to an " +
		"executable on this machine. Unresolvable commands are warnings here; at run time they fail the stage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(viper.GetString("config"))
		if err != nil {
			return err
		}

		warnings := 0
		for _, s := range cfg.Stages {
			if s.Disabled {
				continue
			}
			if _, err := exec.LookPath(s.Command); err != nil {
				fmt.Printf("warning: stage %q: %v\n", s.Name, err)
				warnings++
			}
		}

		fmt.Printf("config ok: %d stages", len(cfg.Stages))
		if warnings > 0 {
			fmt.Printf(", %d unresolvable commands", warnings)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
