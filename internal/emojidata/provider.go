// Package emojidata serves the standard emoji dataset used for shortcode
// completion and the registry of custom emoji media.
package emojidata

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed emoji.yaml
var defaultDataset []byte

var (
	ErrNotLoaded = errors.New("emojidata: dataset not loaded")
	ErrEmpty     = errors.New("emojidata: dataset is empty")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Emoji struct {
	Native   string   `yaml:"native"`
	Names    []string `yaml:"names"`
	Category string   `yaml:"category"`
}

// Shortcode is the primary name wrapped in colons.
func (e Emoji) Shortcode() string {
	if len(e.Names) == 0 {
		return ""
	}
	return ":" + e.Names[0] + ":"
}

// Provider loads a dataset once and answers lookups from it. Loading is
// lazy; callers that need data call Load first and check its error.
type Provider struct {
	source func() ([]byte, error)

	state   State
	err     error
	emoji   []Emoji
	byName  map[string]int
	names   []string
	natives []string
}

// NewProvider reads the embedded dataset.
func NewProvider() *Provider {
	return NewProviderFrom(func() ([]byte, error) { return defaultDataset, nil })
}

func NewProviderFrom(source func() ([]byte, error)) *Provider {
	return &Provider{source: source}
}

func (p *Provider) State() State { return p.state }

// Load parses the dataset on the first call. Later calls return the first
// outcome without reading the source again.
func (p *Provider) Load() error {
	switch p.state {
	case StateReady:
		return nil
	case StateFailed:
		return p.err
	case StateLoading:
		return ErrNotLoaded
	}
	p.state = StateLoading
	if err := p.load(); err != nil {
		p.state, p.err = StateFailed, err
		return err
	}
	p.state = StateReady
	return nil
}

func (p *Provider) load() error {
	raw, err := p.source()
	if err != nil {
		return fmt.Errorf("emojidata: read dataset: %w", err)
	}
	var list []Emoji
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("emojidata: parse dataset: %w", err)
	}
	if len(list) == 0 {
		return ErrEmpty
	}

	p.byName = make(map[string]int, len(list))
	for i, e := range list {
		for _, name := range e.Names {
			if _, dup := p.byName[name]; dup {
				continue
			}
			p.byName[name] = i
			p.names = append(p.names, name)
		}
		p.natives = append(p.natives, e.Native)
	}
	sort.Strings(p.names)
	p.emoji = list
	return nil
}

func (p *Provider) All() []Emoji {
	if p.state != StateReady {
		return nil
	}
	return append([]Emoji(nil), p.emoji...)
}

func (p *Provider) ByShortcode(name string) (Emoji, bool) {
	name = strings.Trim(name, ":")
	i, ok := p.byName[name]
	if !ok {
		return Emoji{}, false
	}
	return p.emoji[i], true
}

// Search returns emoji with a name starting with prefix, an exact name
// first and the rest by name. Each emoji appears once.
func (p *Provider) Search(prefix string, limit int) []Emoji {
	prefix = strings.ToLower(strings.TrimPrefix(prefix, ":"))
	if prefix == "" || p.state != StateReady {
		return nil
	}
	var out []Emoji
	seen := map[int]bool{}
	add := func(i int) bool {
		if seen[i] {
			return true
		}
		seen[i] = true
		out = append(out, p.emoji[i])
		return limit <= 0 || len(out) < limit
	}
	if i, ok := p.byName[prefix]; ok && !add(i) {
		return out
	}
	start := sort.SearchStrings(p.names, prefix)
	for _, name := range p.names[start:] {
		if !strings.HasPrefix(name, prefix) {
			break
		}
		if !add(p.byName[name]) {
			break
		}
	}
	return out
}

// TrailingEmoji returns the longest known emoji that s ends with.
func (p *Provider) TrailingEmoji(s string) string {
	best := ""
	for _, native := range p.natives {
		if len(native) > len(best) && strings.HasSuffix(s, native) {
			best = native
		}
	}
	return best
}
