package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextTicketNumber(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"first of the year", nil, "TICKET-2026-0001"},
		{"continues after max", []string{"TICKET-2026-0007", "TICKET-2026-0003"}, "TICKET-2026-0008"},
		{"beyond four digits", []string{"TICKET-2026-9999"}, "TICKET-2026-10000"},
		{"ignores malformed suffixes", []string{"TICKET-2026-oops", "TICKET-2026-0002"}, "TICKET-2026-0003"},
		{"ignores undashed values", []string{"garbage"}, "TICKET-2026-0001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextTicketNumber(tc.existing, 2026))
		})
	}
}
