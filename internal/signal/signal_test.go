package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetNotifiesOnlyOnChange(t *testing.T) {
	s := New("")
	var got []string
	unsub := s.Subscribe(func(v string) { got = append(got, v) })

	assert.True(t, s.Set("a"))
	assert.False(t, s.Set("a"))
	assert.True(t, s.Set("b"))
	assert.Equal(t, []string{"a", "b"}, got)

	unsub()
	unsub()
	s.Set("c")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "c", s.Get())
	assert.Zero(t, s.Subscribers())
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	s := New(0)
	calls := 0
	var unsub func()
	unsub = s.Subscribe(func(int) {
		calls++
		unsub()
	})
	s.Subscribe(func(int) { calls++ })
	s.Set(1)
	s.Set(2)
	assert.Equal(t, 3, calls)
}
