package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"richinput/internal/app"
	"richinput/internal/markdown"
	"richinput/internal/ui"
	"richinput/pkg/fmttext"
)

var (
	draftPassword string
	draftEncrypt  bool
	draftRender   bool
)

type draftInfo struct {
	Key        string                `yaml:"key"`
	Modified   time.Time             `yaml:"modified"`
	Compressed bool                  `yaml:"compressed"`
	Encrypted  bool                  `yaml:"encrypted"`
	Text       fmttext.FormattedText `yaml:"text"`
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect and write saved drafts",
}

var draftShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a saved draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		env, err := fmttext.InspectEnvelope(args[0])
		if err != nil {
			return fmt.Errorf("inspect draft: %w", err)
		}
		pw := draftPassword
		if pw == "" {
			pw = cfg.Draft.Password
		}
		d, err := fmttext.LoadDraft(args[0], fmttext.LoadOptions{Password: pw})
		if err != nil {
			if env.Encrypted {
				return fmt.Errorf("load sealed draft %q (%d entities): %w", env.Key, env.Entities, err)
			}
			return fmt.Errorf("load draft: %w", err)
		}
		if draftRender {
			term := ui.NewTerminal(cmd.OutOrStdout(), ui.DefaultTheme(), ui.TerminalOptions{})
			_, err := fmt.Fprintln(cmd.OutOrStdout(), term.Render(d.Text))
			return err
		}
		return writeYAML(cmd.OutOrStdout(), draftInfo{
			Key:        d.Key,
			Modified:   time.Unix(d.ModifiedUnix, 0).UTC(),
			Compressed: env.Compressed,
			Encrypted:  env.Encrypted,
			Text:       d.Text,
		})
	},
}

var draftSaveCmd = &cobra.Command{
	Use:   "save <key> [text...]",
	Short: "Save markdown shorthand as a draft",
	Long: `Parses the text as markdown shorthand and saves it as the draft for key in
the configured draft directory. Reads stdin when no text is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		in, err := readInput(cmd, args[1:])
		if err != nil {
			return err
		}
		pw := draftPassword
		if pw == "" {
			pw = cfg.Draft.Password
		}
		opts := fmttext.SaveOptions{
			Compression: cfg.Draft.Compress,
			Encryption:  fmttext.EncryptionOptions{Enabled: draftEncrypt, Password: pw},
		}
		path := app.DraftPath(cfg.Draft.Dir, args[0])
		if err := fmttext.SaveDraft(path, fmttext.NewDraft(args[0], markdown.Parse(in, nil)), opts); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		log.Info().Str("path", path).Bool("encrypted", draftEncrypt).Msg("[draft] saved")
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	draftCmd.PersistentFlags().StringVarP(&draftPassword, "password", "p", "", "draft password (defaults to RICHINPUT_DRAFT_PASSWORD)")
	draftShowCmd.Flags().BoolVar(&draftRender, "render", false, "render the text with terminal styles")
	draftSaveCmd.Flags().BoolVarP(&draftEncrypt, "encrypt", "e", false, "seal the draft with the password")

	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftSaveCmd)
}
