package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"richinput/internal/app"
	"richinput/internal/platform"
	"richinput/internal/platform/headless"
)

var replayFrame string

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Run a recorded input script without a window",
	Long: `Replays keys, text, pastes, resizes and waits from a YAML script against a
headless editor driven by a simulated clock, then prints the final state.

Example script:
  window: {width: 640, height: 480}
  steps:
    - focus: true
    - text: "hello **world**"
    - wait: 300ms
    - key: Enter`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		sc, err := platform.LoadScript(args[0])
		if err != nil {
			return err
		}
		events, err := sc.Events()
		if err != nil {
			return fmt.Errorf("script %s: %w", args[0], err)
		}

		s, err := app.NewSession(cfg, app.WithClock(clock.NewMock()), app.WithLogger(log))
		if err != nil {
			return err
		}
		defer s.Close()

		backend := headless.New(events...)
		win, err := backend.CreateWindow(sc.Window)
		if err != nil {
			return err
		}
		if err := s.Run(win); err != nil {
			return err
		}
		log.Debug().Int("steps", len(events)).Msg("[replay] script finished")

		if replayFrame != "" {
			if err := writeFrame(win.(*headless.Window), replayFrame); err != nil {
				return err
			}
		}
		return writeYAML(cmd.OutOrStdout(), s.Snapshot())
	},
}

func writeFrame(win *headless.Window, path string) error {
	fb := win.LastFrame()
	if fb == nil {
		return errors.New("no frame was presented")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	if err := png.Encode(f, fb.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	return f.Close()
}

func init() {
	replayCmd.Flags().StringVar(&replayFrame, "frame", "", "write the last presented frame as PNG")
}
