package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"richinput/internal/app"
	"richinput/pkg/fmttext"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RICHINPUT_LOG_CONSOLE", "false")
	configPath, logLevel = "", ""
	parseUTF16, htmlFrom, htmlSanitize, htmlNoQuotes, hideSpoilers = false, false, true, false, false
	draftPassword, draftEncrypt, draftRender, replayFrame = "", false, false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeText(t *testing.T, out string) fmttext.FormattedText {
	t.Helper()
	var ft fmttext.FormattedText
	require.NoError(t, yaml.Unmarshal([]byte(out), &ft))
	return ft
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		in   string
		want fmttext.FormattedText
	}{
		{
			name: "bold from args",
			args: []string{"parse", "hello", "**world**"},
			want: fmttext.FormattedText{
				Text:     "hello world",
				Entities: []fmttext.Entity{{Type: fmttext.EntityBold, Offset: 6, Length: 5}},
			},
		},
		{
			name: "stdin",
			args: []string{"parse"},
			in:   "~~gone~~\n",
			want: fmttext.FormattedText{
				Text:     "gone",
				Entities: []fmttext.Entity{{Type: fmttext.EntityStrike, Offset: 0, Length: 4}},
			},
		},
		{
			name: "utf16 offsets",
			args: []string{"parse", "--utf16", "😀 **b**"},
			want: fmttext.FormattedText{
				Text:     "😀 b",
				Entities: []fmttext.Entity{{Type: fmttext.EntityBold, Offset: 3, Length: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.in, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decodeText(t, out))
		})
	}
}

func TestHTMLCommand(t *testing.T) {
	out, err := execute(t, "", "html", "**a**")
	require.NoError(t, err)
	assert.Equal(t, "<b>a</b>\n", out)

	out, err = execute(t, "", "html", "--from-html", `<i>x</i><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Equal(t, fmttext.FormattedText{
		Text:     "x",
		Entities: []fmttext.Entity{{Type: fmttext.EntityItalic, Offset: 0, Length: 1}},
	}, decodeText(t, out))
}

func TestPreviewCommandMasksSpoilers(t *testing.T) {
	out, err := execute(t, "", "preview", "--hide-spoilers", "a ||bc||")
	require.NoError(t, err)
	assert.Equal(t, "a ░░\n", out)
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "send.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
window: {width: 320, height: 200}
steps:
  - focus: true
  - text: "hi __there__"
  - key: Enter
`), 0o644))
	frame := filepath.Join(dir, "frame.png")

	out, err := execute(t, "", "replay", "--frame", frame, script)
	require.NoError(t, err)

	var snap app.Snapshot
	require.NoError(t, yaml.Unmarshal([]byte(out), &snap))
	assert.True(t, snap.Empty)
	require.Len(t, snap.Sent, 1)
	assert.Equal(t, "hi there", snap.Sent[0].Text)
	assert.FileExists(t, frame)
}

func TestReplayCommandRejectsBadScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(script, []byte("steps:\n  - {}\n"), 0o644))
	_, err := execute(t, "", "replay", script)
	assert.Error(t, err)
}

func TestDraftSaveAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RICHINPUT_DRAFT_DIR", dir)

	out, err := execute(t, "", "draft", "save", "-e", "-p", "pw", "chat:1", "**hey**")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "chat_1"+app.DraftExt), path)

	_, err = execute(t, "", "draft", "show", "-p", "nope", path)
	assert.ErrorIs(t, err, fmttext.ErrInvalidPassword)
	assert.ErrorContains(t, err, `"chat:1" (1 entities)`)

	out, err = execute(t, "", "draft", "show", "-p", "pw", path)
	require.NoError(t, err)
	var info struct {
		Key       string                `yaml:"key"`
		Encrypted bool                  `yaml:"encrypted"`
		Text      fmttext.FormattedText `yaml:"text"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	assert.Equal(t, "chat:1", info.Key)
	assert.True(t, info.Encrypted)
	assert.Equal(t, "hey", info.Text.Text)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "richinput version dev\n", out)
}
