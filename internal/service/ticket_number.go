package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// TicketNumberAllocator hands out unique per-year ticket numbers of
// the form TICKET-2026-0042. Allocation runs under a bounded-wait
// distributed lock so concurrent creators never observe the same
// maximum.
type TicketNumberAllocator struct {
	locker  persistence.Locker
	lockTTL time.Duration
	wait    time.Duration
}

// NewTicketNumberAllocator builds allocator.
func NewTicketNumberAllocator(locker persistence.Locker, lockTTL, wait time.Duration) *TicketNumberAllocator {
	return &TicketNumberAllocator{locker: locker, lockTTL: lockTTL, wait: wait}
}

// Allocate acquires the year lock, scans existing numbers through the
// given repository and runs fn with the next free number while the
// lock is held. fn typically inserts the ticket inside a transaction.
func (a *TicketNumberAllocator) Allocate(ctx context.Context, tickets repository.TicketRepository, year int, fn func(number string) error) error {
	unlock, err := a.locker.Acquire(ctx, fmt.Sprintf("ticket_number_%d", year), a.lockTTL, a.wait)
	if err != nil {
		return err
	}
	defer unlock(context.WithoutCancel(ctx))

	existing, err := tickets.NumbersForYear(ctx, year)
	if err != nil {
		return err
	}
	return fn(nextTicketNumber(existing, year))
}

// nextTicketNumber computes max(sequence)+1 over the year's numbers,
// soft-deleted ones included. Suffixes that do not parse are skipped.
func nextTicketNumber(existing []string, year int) string {
	max := 0
	for _, number := range existing {
		idx := strings.LastIndex(number, "-")
		if idx < 0 {
			continue
		}
		seq, err := strconv.Atoi(number[idx+1:])
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return fmt.Sprintf("TICKET-%d-%04d", year, max+1)
}
