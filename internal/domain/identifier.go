package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ShipmentNumberPrefix = "SJA"
	PackageNumberPrefix  = "PK"

	// DefaultMaxAttempts caps shipment number candidates per call
	DefaultMaxAttempts = 10
	// MaxPackageSequence is the largest daily sequence a D4 suffix can hold
	MaxPackageSequence = 9999
)

// SequenceStrategy selects how the next daily package sequence is derived
type SequenceStrategy string

const (
	// SequenceByCount uses the number of packages issued today plus one
	SequenceByCount SequenceStrategy = "count"
	// SequenceByMax parses the largest number issued today and adds one
	SequenceByMax SequenceStrategy = "max"
)

// NumberStore answers uniqueness and sequence questions about persisted numbers
type NumberStore interface {
	ShipmentNumberExists(ctx context.Context, number string) (bool, error)
	CountPackageNumbers(ctx context.Context, prefix string) (int64, error)
	// MaxPackageNumber returns the lexicographically largest number with prefix, or ""
	MaxPackageNumber(ctx context.Context, prefix string) (string, error)
}

// IdentifierGenerator produces shipment and package numbers.
//
// Package numbers are strictly increasing per UTC day within a process: the
// generator remembers the last sequence it issued for the current day and never
// goes below it, even when earlier numbers have not been committed yet.
// Uniqueness across processes relies on the database unique constraints plus
// retry by the caller.
type IdentifierGenerator struct {
	store       NumberStore
	strategy    SequenceStrategy
	maxAttempts int
	now         func() time.Time
	newID       func() uuid.UUID
	onCollision func(kind string)

	mu        sync.Mutex
	hwmPrefix string
	hwmSeq    int
}

type IdentifierOption func(*IdentifierGenerator)

func WithClock(now func() time.Time) IdentifierOption {
	return func(g *IdentifierGenerator) { g.now = now }
}

func WithIDSource(newID func() uuid.UUID) IdentifierOption {
	return func(g *IdentifierGenerator) { g.newID = newID }
}

func WithSequenceStrategy(s SequenceStrategy) IdentifierOption {
	return func(g *IdentifierGenerator) { g.strategy = s }
}

func WithMaxAttempts(n int) IdentifierOption {
	return func(g *IdentifierGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithCollisionHook is called with "shipment" each time a candidate is taken
func WithCollisionHook(fn func(kind string)) IdentifierOption {
	return func(g *IdentifierGenerator) { g.onCollision = fn }
}

func NewIdentifierGenerator(store NumberStore, opts ...IdentifierOption) *IdentifierGenerator {
	g := &IdentifierGenerator{
		store:       store,
		strategy:    SequenceByMax,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		newID:       uuid.New,
		onCollision: func(string) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts is the retry ceiling shared with callers retrying on conflicts
func (g *IdentifierGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// ShipmentCandidate formats a shipment number: "SJA" + yyMM + 4 hex chars of id
func ShipmentCandidate(at time.Time, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return ShipmentNumberPrefix + at.UTC().Format("0601") + hex[:4]
}

// PackagePrefix is "PK" + yyMMdd for the UTC day of at
func PackagePrefix(at time.Time) string {
	return PackageNumberPrefix + at.UTC().Format("060102")
}

// NextShipmentNumber returns a number not yet persisted, trying fresh random
// ids up to the attempt ceiling.
func (g *IdentifierGenerator) NextShipmentNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := ShipmentCandidate(g.now(), g.newID())
		exists, err := g.store.ShipmentNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check shipment number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		g.onCollision("shipment")
	}
	return "", fmt.Errorf("%w: shipment number after %d attempts", ErrIdentifierExhausted, g.maxAttempts)
}

// NextPackageNumber returns "PK" + yyMMdd + a four digit daily sequence
func (g *IdentifierGenerator) NextPackageNumber(ctx context.Context) (string, error) {
	prefix := PackagePrefix(g.now())

	next, err := g.storedNext(ctx, prefix)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.hwmPrefix == prefix && next <= g.hwmSeq {
		next = g.hwmSeq + 1
	}
	if next > MaxPackageSequence {
		return "", fmt.Errorf("%w: package sequence for %s", ErrIdentifierExhausted, prefix)
	}
	g.hwmPrefix = prefix
	g.hwmSeq = next

	return fmt.Sprintf("%s%04d", prefix, next), nil
}

func (g *IdentifierGenerator) storedNext(ctx context.Context, prefix string) (int, error) {
	if g.strategy == SequenceByCount {
		count, err := g.store.CountPackageNumbers(ctx, prefix)
		if err != nil {
			return 0, fmt.Errorf("failed to count package numbers: %w", err)
		}
		return int(count) + 1, nil
	}

	latest, err := g.store.MaxPackageNumber(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest package number: %w", err)
	}
	if latest == "" {
		return 1, nil
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed package number %q: %w", latest, err)
	}
	return seq + 1, nil
}
