package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"spring2node/internal/convert"
	"spring2node/internal/pipeline"
)

var (
	convertProfile   string
	convertFramework string
	convertORM       string
	convertOutput    string
	convertWorkers   int
)

var convertCmd = &cobra.Command{
	Use:   "convert [source]",
	Short: "Convert one Spring Boot repository",
	Long: `Runs the full conversion pipeline against a local directory or a GitHub
URL and writes the generated Node.js project to the output directory.

Example:
  spring2node convert https://github.com/acme/shop --framework express --orm sequelize -o ./shop-node`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertProfile, "profile", "", "client profile name (config default when empty)")
	convertCmd.Flags().StringVar(&convertFramework, "framework", "", "target framework: express or nestjs")
	convertCmd.Flags().StringVar(&convertORM, "orm", "", "target ORM: sequelize or typeorm")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output directory (temp dir when empty)")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 4, "concurrent conversion workers")
}

func runConvert(cmd *cobra.Command, args []string) error {
	req := pipeline.Request{
		Source:    args[0],
		Profile:   convertProfile,
		Framework: convertFramework,
		ORM:       convertORM,
		OutputDir: convertOutput,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := buildComponents(ctx, req, convertWorkers, logger)
	if err != nil {
		return err
	}
	defer comps.Extractor.Client.Close()

	o := pipeline.NewOrchestrator(pipeline.StandardPhases(comps), logger)
	s, err := o.Run(ctx, &pipeline.State{Request: req})
	if err != nil {
		return err
	}

	var converted, stubbed, failed int
	for _, a := range s.Artifacts {
		switch a.Status {
		case convert.StatusConverted:
			converted++
		case convert.StatusStubbed:
			stubbed++
		case convert.StatusFailed:
			failed++
		}
	}
	fmt.Printf("Project written to %s\n", s.OutputDir)
	fmt.Printf("Artifacts: %d converted, %d stubbed, %d failed\n", converted, stubbed, failed)
	if len(s.SafetyBlocks) > 0 {
		fmt.Printf("Safety blocks: %d (see stubbed artifacts)\n", len(s.SafetyBlocks))
	}
	if len(s.Errors) > 0 {
		fmt.Printf("Diagnostics: %d\n", len(s.Errors))
		if verbose {
			for _, e := range s.Errors {
				fmt.Println("  -", e)
			}
		}
	}
	if s.Validation != nil && !s.Validation.Valid {
		return fmt.Errorf("generated project failed validation: %s", strings.Join(s.Validation.Errors, "; "))
	}
	return nil
}
