package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"richinput/internal/editable"
	"richinput/pkg/fmttext"
)

const DraftExt = ".rdraft"

var ErrNoDraftPath = errors.New("app: no draft path")

// Snapshot is the observable state of a session.
type Snapshot struct {
	HTML       string                  `yaml:"html"`
	Text       fmttext.FormattedText   `yaml:"text"`
	Empty      bool                    `yaml:"empty"`
	Matchable  string                  `yaml:"matchable,omitempty"`
	Previewing bool                    `yaml:"previewing"`
	Mentions   []string                `yaml:"mentions,omitempty"`
	Emoji      []string                `yaml:"emoji,omitempty"`
	Sent       []fmttext.FormattedText `yaml:"sent,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		HTML:       s.ed.HTML().Get(),
		Text:       s.ed.GetFormattedText(editable.GetOptions{}),
		Empty:      s.ed.Empty().Get(),
		Matchable:  s.ed.Matchable().Get(),
		Previewing: s.Preview.IsPreviewing().Get(),
		Sent:       s.sent,
	}
	if s.Mentions.IsOpen() {
		for _, u := range s.Mentions.Filtered() {
			snap.Mentions = append(snap.Mentions, u.DisplayName())
		}
	}
	if s.Emoji.IsOpen() {
		for _, e := range s.Emoji.Emoji() {
			snap.Emoji = append(snap.Emoji, e.Native)
		}
		for _, ce := range s.Emoji.CustomEmoji() {
			snap.Emoji = append(snap.Emoji, ce.DocumentID)
		}
	}
	return snap
}

// DraftPath names the draft file for key inside dir.
func DraftPath(dir, key string) string {
	key = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, key)
	return filepath.Join(dir, key+DraftExt)
}

// SaveDraft persists the current content. Markdown shorthand is kept as
// typed so a restored draft reads the same.
func (s *Session) SaveDraft(path string, opts fmttext.SaveOptions) error {
	if path == "" {
		return ErrNoDraftPath
	}
	ft := s.ed.GetFormattedText(editable.GetOptions{NoMarkdown: true})
	key := strings.TrimSuffix(filepath.Base(path), DraftExt)
	if err := fmttext.SaveDraft(path, fmttext.NewDraft(key, ft), opts); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	s.status = "Saved " + filepath.Base(path)
	s.log.Info().Str("path", path).Bool("encrypted", opts.Encryption.Enabled).Msg("[app] draft saved")
	return nil
}

func (s *Session) LoadDraft(path, password string) error {
	if path == "" {
		return ErrNoDraftPath
	}
	d, err := fmttext.LoadDraft(path, fmttext.LoadOptions{Password: password})
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	s.ed.SetFormattedText(d.Text)
	s.sched.Flush()
	s.status = "Opened " + filepath.Base(path)
	s.log.Info().Str("path", path).Str("key", d.Key).Msg("[app] draft loaded")
	return nil
}
