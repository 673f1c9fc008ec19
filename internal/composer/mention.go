package composer

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"richinput/internal/editable"
	"richinput/internal/schedule"
	"richinput/pkg/fmttext"
)

const DefaultTooltipThrottle = 300 * time.Millisecond

var reUsernameSearch = regexp.MustCompile(`(?i)(^|\s)@[-_\p{L}\p{M}\p{N}]*$`)

type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// DisplayName is the first name, or the last name when there is none.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.LastName
}

// MentionTooltip suggests chat members while the word before the caret is
// an @ tag.
type MentionTooltip struct {
	ed       *editable.Editable
	throttle *schedule.Throttler
	nav      *navigator

	enabled       bool
	members       []User
	inlineBots    []User
	currentUserID string

	tag            string
	filtered       []User
	manuallyClosed bool

	unsubscribe []func()
}

func NewMentionTooltip(ed *editable.Editable, throttle time.Duration) *MentionTooltip {
	if throttle <= 0 {
		throttle = DefaultTooltipThrottle
	}
	m := &MentionTooltip{
		ed:       ed,
		throttle: schedule.NewThrottler(ed.Scheduler(), throttle),
		enabled:  true,
	}
	m.nav = newNavigator(ed, m.IsOpen, func() int { return len(m.filtered) }, m.Close, func(i int) bool {
		return m.InsertMention(m.filtered[i])
	})
	m.unsubscribe = append(m.unsubscribe,
		ed.Matchable().Subscribe(func(string) { m.throttle.Call(m.update) }),
		ed.HTML().Subscribe(func(string) { m.manuallyClosed = false }),
	)
	return m
}

// SetMembers sets the candidates. The current user is never suggested.
func (m *MentionTooltip) SetMembers(currentUserID string, members, inlineBots []User) {
	m.currentUserID = currentUserID
	m.members = members
	m.inlineBots = inlineBots
	m.refilter()
}

func (m *MentionTooltip) SetEnabled(enabled bool) {
	m.enabled = enabled
	m.update()
}

// Tag is the current @ tag, empty when there is none.
func (m *MentionTooltip) Tag() string      { return m.tag }
func (m *MentionTooltip) Filtered() []User { return m.filtered }
func (m *MentionTooltip) Selected() int    { return m.nav.selected }

func (m *MentionTooltip) IsOpen() bool {
	return len(m.filtered) > 0 && !m.manuallyClosed
}

func (m *MentionTooltip) Close() { m.manuallyClosed = true }

func (m *MentionTooltip) Destroy() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
	m.throttle.Cancel()
	m.nav.remove()
}

func (m *MentionTooltip) update() {
	m.tag = m.extractTag()
	m.refilter()
}

func (m *MentionTooltip) extractTag() string {
	text := m.ed.Matchable().Get()
	if !m.enabled || !m.ed.Selection().Get().Collapsed {
		return ""
	}
	if !strings.Contains(text, "@") {
		return ""
	}
	match := reUsernameSearch.FindString(text)
	return strings.TrimSpace(match)
}

func (m *MentionTooltip) refilter() {
	m.nav.reset()
	if m.tag == "" {
		m.filtered = nil
		return
	}
	var candidates []User
	if strings.HasPrefix(m.ed.HTML().Get(), "@") {
		candidates = append(candidates, m.inlineBots...)
	}
	for _, u := range m.members {
		if u.ID != m.currentUserID {
			candidates = append(candidates, u)
		}
	}
	m.filtered = filterUsers(candidates, strings.TrimPrefix(m.tag, "@"))
}

// filterUsers keeps users whose username or a name word starts with query.
// Duplicates are dropped and username matches come first.
func filterUsers(users []User, query string) []User {
	query = strings.ToLower(query)
	type scored struct {
		u     User
		score int
	}
	seen := map[string]bool{}
	var out []scored
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		score := -1
		switch {
		case query == "":
			score = 1
		case strings.HasPrefix(strings.ToLower(u.Username), query):
			score = 0
		default:
			for _, w := range strings.Fields(strings.ToLower(u.FirstName + " " + u.LastName)) {
				if strings.HasPrefix(w, query) {
					score = 1
					break
				}
			}
		}
		if score >= 0 {
			out = append(out, scored{u: u, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score < out[j].score })
	users = make([]User, len(out))
	for i, s := range out {
		users[i] = s.u
	}
	return users
}

// InsertMention replaces the @ tag before the caret. Users with a username
// become plain @username text, others a mention chip.
func (m *MentionTooltip) InsertMention(u User) bool {
	name := u.DisplayName()
	if u.Username == "" && name == "" {
		return false
	}
	var markup string
	if u.Username != "" {
		markup = "@" + u.Username + " "
	} else {
		markup = m.ed.Marshaler().ToHTML(fmttext.FormattedText{
			Text:     name,
			Entities: []fmttext.Entity{{Type: fmttext.EntityMentionName, Offset: 0, Length: len(name), UserID: u.ID}},
		}) + " "
	}
	ok := m.ed.InsertMatchableHTML(markup, func(r rune) bool { return r == '@' })
	m.filtered = nil
	m.tag = ""
	m.nav.reset()
	m.ed.Logger().Debug().Str("user_id", u.ID).Msg("[composer] mention inserted")
	return ok
}
