package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marocz/wearguard/server/internal/api"
	"github.com/marocz/wearguard/server/internal/predict"
)

// predictFlags holds the parsed flags for the predict command.
type predictFlags struct {
	configPath string
	input      string
}

func newPredictCmd() *cobra.Command {
	var flags predictFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction and print it as JSON",
		Long:  "Reads a prediction request (the same JSON the HTTP API accepts) and prints the response.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to config file (defaults apply when empty)")
	f.StringVar(&flags.input, "input", "-", "request JSON file, or - for stdin")
	return cmd
}

func runPredict(flags predictFlags, stdin io.Reader, stdout io.Writer) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.SlogLevel())

	in := stdin
	if flags.input != "-" {
		f, err := os.Open(flags.input)
		if err != nil {
			return codeError(exitUsage, "reading input: %s", err)
		}
		defer f.Close()
		in = f
	}

	reading, err := api.DecodeReading(in)
	if err != nil {
		return codeError(exitUsage, "invalid request: %s", err)
	}

	p, err := openPipeline(cfg)
	if err != nil {
		return codeError(exitFailure, "%s", err)
	}

	res, err := p.Predict(reading)
	if err != nil {
		if errors.Is(err, predict.ErrComputationAnomaly) {
			return codeError(exitUsage, "%s", err)
		}
		return codeError(exitFailure, "prediction: %s", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(api.ToResponse(res)); err != nil {
		return codeError(exitFailure, "writing output: %s", err)
	}
	return nil
}
