package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"richinput/internal/htmlfmt"
	"richinput/internal/markdown"
	"richinput/internal/ui"
	"richinput/pkg/fmttext"
)

var (
	parseUTF16   bool
	htmlFrom     bool
	htmlSanitize bool
	htmlNoQuotes bool
	hideSpoilers bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [text...]",
	Short: "Parse markdown shorthand into formatted text",
	Long: `Parses markdown shorthand (**bold**, __italic__, ~~strike~~, ||spoiler||,
` + "`code` and ```pre```" + `) and prints the resulting text and entities as YAML.
Reads stdin when no text is given.

Examples:
  richinput parse 'hello **world**'
  echo '||secret||' | richinput parse --utf16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		ft := markdown.Parse(in, nil)
		if parseUTF16 {
			ft = fmttext.FormattedText{Text: ft.Text, Entities: ft.UTF16Entities()}
		}
		return writeYAML(cmd.OutOrStdout(), ft)
	},
}

var htmlCmd = &cobra.Command{
	Use:   "html [text...]",
	Short: "Convert between markdown shorthand and editor HTML",
	Long: `Renders markdown shorthand as editor HTML. With --from-html the input is
editor or clipboard HTML and the formatted text is printed as YAML instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		if !htmlFrom {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), htmlfmt.NewMarshaler("cli").ToHTML(markdown.Parse(in, nil)))
			return err
		}
		if htmlSanitize {
			in = htmlfmt.Sanitize(in)
		}
		ft := htmlfmt.Parse(in, htmlfmt.ParseOptions{DropQuotes: htmlNoQuotes})
		return writeYAML(cmd.OutOrStdout(), ft)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview [text...]",
	Short: "Render markdown shorthand with terminal styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		term := ui.NewTerminal(cmd.OutOrStdout(), ui.DefaultTheme(), ui.TerminalOptions{HideSpoilers: hideSpoilers})
		_, err = fmt.Fprintln(cmd.OutOrStdout(), term.Render(markdown.Parse(in, nil)))
		return err
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseUTF16, "utf16", false, "report offsets in UTF-16 code units")

	htmlCmd.Flags().BoolVar(&htmlFrom, "from-html", false, "read HTML and print formatted text")
	htmlCmd.Flags().BoolVar(&htmlSanitize, "sanitize", true, "sanitize HTML input before parsing")
	htmlCmd.Flags().BoolVar(&htmlNoQuotes, "drop-quotes", false, "keep blockquote text without the quote entity")

	previewCmd.Flags().BoolVar(&hideSpoilers, "hide-spoilers", false, "mask spoiler text")
}
