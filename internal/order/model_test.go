package order

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	ref := NewReference()

	// 128 bits rendered as uppercase hex
	assert.Len(t, ref, 32)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), ref)

	assert.NotEqual(t, ref, NewReference())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusCreated, StatusPending, true},
		{StatusCreated, StatusPaid, false},
		{StatusCreated, StatusFailed, false},
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCreated, false},
		{StatusPaid, StatusPending, false},
		{StatusPaid, StatusFailed, false},
		{StatusFailed, StatusPaid, false},
		{StatusFailed, StatusPending, false},
		// self-transitions are no-ops, always fine
		{StatusPaid, StatusPaid, true},
		{StatusPending, StatusPending, true},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.from}
		assert.Equal(t, tc.allowed, o.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
