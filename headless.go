package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/robot-sim/game/config"
	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/records"
	"github.com/wricardo/robot-sim/game/script"
)

// defaultMaxTicks bounds headless runs, about 30 seconds of simulated time
const defaultMaxTicks = 2000

// resolveScenario loads a scenario file when ref names one, otherwise looks
// the id up in the scenario directory. An empty ref is the default scenario.
func resolveScenario(ref, scenarioDir string, logger zerolog.Logger) (*engine.Scenario, error) {
	if ref != "" {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			return engine.LoadScenarioFile(ref)
		}
	}

	catalog, err := config.NewManager(scenarioDir, config.WithLogger(logger))
	if err != nil {
		if ref == "" {
			return engine.DefaultScenario(), nil
		}
		return nil, err
	}
	if ref == "" {
		return catalog.GetDefault(), nil
	}
	return catalog.LoadScenario(ref)
}

// runHeadless runs one script on a manual clock as fast as it can step and
// prints the run report.
func runHeadless(ctx context.Context, cmd *cli.Command, settings *config.Settings, logger zerolog.Logger, out io.Writer) error {
	if cmd.NArg() != 1 {
		return cli.Exit("usage: robosim run [--scenario ID|FILE] SCRIPT", 2)
	}

	prog, err := script.LoadFile(cmd.Args().First())
	if err != nil {
		return err
	}
	program, err := script.Compile(prog)
	if err != nil {
		return err
	}

	scenario, err := resolveScenario(cmd.String("scenario"), settings.ScenarioDir, logger)
	if err != nil {
		return err
	}

	report, err := simulate(ctx, scenario, program, int(cmd.Int("max-ticks")), logger)
	if err != nil {
		return err
	}

	if cmd.Bool("record") {
		store, err := records.Open(settings.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open run records: %w", err)
		}
		defer store.Close()

		sessionID := "cli-" + uuid.NewString()[:8]
		if err := store.Record(ctx, sessionID, *report); err != nil {
			return err
		}
		logger.Info().Str("session", sessionID).Str("db", settings.DatabasePath).Msg("run recorded")
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, prog.Name, report)
	return nil
}

// simulate runs program to completion, fault or maxTicks and returns its report
func simulate(ctx context.Context, scenario *engine.Scenario, program executor.Program, maxTicks int, logger zerolog.Logger) (*executor.RunReport, error) {
	sim, err := engine.NewSimulation(scenario)
	if err != nil {
		return nil, err
	}
	runner, err := executor.NewRunner(sim, executor.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ended := make(chan executor.RunReport, 1)
	runner.OnRunEnd(func(r executor.RunReport) {
		ended <- r
	})

	if _, err := runner.Start(ctx, program); err != nil {
		return nil, err
	}

	ticks, driveErr := runner.Drive(ctx, maxTicks)
	runner.StopProgram()
	if driveErr != nil {
		return nil, driveErr
	}
	logger.Debug().Int("ticks", ticks).Msg("headless run finished")

	// A faulted program reports from its own goroutine
	select {
	case r := <-ended:
		return &r, nil
	case <-time.After(time.Second):
		return nil, errors.New("run ended without a report")
	}
}

func printReport(w io.Writer, name string, r *executor.RunReport) {
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Script:    %s\n", name)
	fmt.Fprintf(w, "Scenario:  %s\n", r.ScenarioID)
	fmt.Fprintf(w, "Outcome:   %s\n", r.Outcome)
	if r.Err != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Err)
	}
	fmt.Fprintf(w, "Ticks:     %d (%s simulated)\n", r.Ticks, time.Duration(r.Ticks)*engine.TickInterval*time.Millisecond)
	fmt.Fprintf(w, "Distance:  %.1f cm\n", r.History.MaxDistanceMoved)
	fmt.Fprintf(w, "Wall:      %t\n", r.History.TouchedWall)
	colors := strings.Join(r.History.DetectedColors, ", ")
	if colors == "" {
		colors = "-"
	}
	fmt.Fprintf(w, "Colors:    %s\n", colors)
	fmt.Fprintf(w, "Rotation:  %.1f°\n", r.History.TotalRotation)
	fmt.Fprintf(w, "Success:   %t\n", r.Success)
}

// fileKind tells scripts from scenarios: scripts carry a steps list
func fileKind(data []byte, ext string) (string, error) {
	var probe map[string]interface{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &probe)
	default:
		err = json.Unmarshal(data, &probe)
	}
	if err != nil {
		return "", err
	}
	if _, ok := probe["steps"]; ok {
		return "script", nil
	}
	return "scenario", nil
}

// runValidate checks every file and reports each result. It fails when any
// file is invalid.
func runValidate(paths []string, out io.Writer) error {
	if len(paths) == 0 {
		return cli.Exit("usage: robosim validate FILE...", 2)
	}

	failed := 0
	for _, path := range paths {
		kind, err := validateFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s (%s)\n", path, kind)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(paths))
	}
	return nil
}

func validateFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(path)
	kind, err := fileKind(data, ext)
	if err != nil {
		return "", fmt.Errorf("failed to parse: %w", err)
	}

	if kind == "script" {
		_, err = script.Parse(data, ext)
	} else {
		_, err = engine.ParseScenario(data, ext)
	}
	return kind, err
}
