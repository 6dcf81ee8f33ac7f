package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"scenario-sim/internal/assembler"

	"github.com/spf13/cobra"
)

var (
	inputPath  string
	outputPath string
	pretty     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation request from a JSON file and print the response",
	Example: `  scenario-sim simulate --input request.json --pretty
  cat request.json | scenario-sim simulate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		in := cmd.InOrStdin()
		if inputPath != "" && inputPath != "-" {
			f, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			in = f
		}

		out := cmd.OutOrStdout()
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		return runSimulate(cmd, p.assembler, in, out)
	},
}

func runSimulate(cmd *cobra.Command, a *assembler.Assembler, in io.Reader, out io.Writer) error {
	var req assembler.SimulationRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	resp, err := a.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

func init() {
	simulateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "request JSON file (default stdin)")
	simulateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "response file (default stdout)")
	simulateCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
}
