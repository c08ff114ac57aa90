package taskgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStateTransition(t *testing.T) {
	cases := []struct {
		src, dst State
		valid    bool
	}{
		{Pending, Scheduled, true},
		{Pending, Running, false},
		{Scheduled, Running, true},
		{Scheduled, Failed, true},
		{Running, Completed, true},
		{Running, Failed, true},
		{Completed, Running, false},
		{Failed, Scheduled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidStateTransition(tc.src, tc.dst), "%s -> %s", tc.src, tc.dst)
	}
}

func TestNewId_IsUnique(t *testing.T) {
	a := NewId()
	b := NewId()
	assert.NotEqual(t, a, b)
}
