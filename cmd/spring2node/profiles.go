package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spring2node/internal/llmclient"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List configured client profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := llmclient.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if len(cfg.Providers) == 0 {
			fmt.Println("no profiles configured")
			return nil
		}
		for _, name := range cfg.ProfileNames() {
			p := cfg.Providers[name]
			marker := " "
			if name == cfg.DefaultProfile {
				marker = "*"
			}
			fallback := ""
			if p.Fallback != "" {
				fallback = " (fallback: " + p.Fallback + ")"
			}
			fmt.Printf("%s %-16s %-10s %s%s\n", marker, name, p.Provider, p.Model, fallback)
		}
		return nil
	},
}
