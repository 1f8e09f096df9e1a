package matcher

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/geo"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/observability"
)

const DefaultMaxDistanceM = 5000.0

// Policy controls candidate ordering. When both flags are set proximity is
// the primary key and rating the secondary key. Longest idle and then rider
// id always break remaining ties.
type Policy struct {
	MaxDistanceM        float64
	PrioritizeProximity bool
	PrioritizeRating    bool
}

func DefaultPolicy() Policy {
	return Policy{MaxDistanceM: DefaultMaxDistanceM, PrioritizeProximity: true, PrioritizeRating: true}
}

// Less reports whether a ranks strictly before b.
func (p Policy) Less(a, b Candidate) bool {
	if p.PrioritizeProximity && a.DistanceM != b.DistanceM {
		return a.DistanceM < b.DistanceM
	}
	if p.PrioritizeRating && a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if !a.AvailableSince.Equal(b.AvailableSince) {
		return a.AvailableSince.Before(b.AvailableSince)
	}
	return a.RiderID < b.RiderID
}

type Source interface {
	QueryAvailable(radiusM float64, p models.Point) []models.RiderLocation
}

type Directory interface {
	Lookup(ctx context.Context, riderID string) (models.Rider, error)
}

type Candidate struct {
	RiderID        string
	DistanceM      float64
	Rating         float64
	AvailableSince time.Time
	Location       models.Point
}

type Selector struct {
	src    Source
	dir    Directory
	policy Policy
	log    *logrus.Logger
}

func NewSelector(src Source, dir Directory, policy Policy, log *logrus.Logger) *Selector {
	if policy.MaxDistanceM <= 0 {
		policy.MaxDistanceM = DefaultMaxDistanceM
	}
	return &Selector{src: src, dir: dir, policy: policy, log: log}
}

func (s *Selector) Policy() Policy { return s.policy }

// Rank snapshots the available riders around the pickup point and returns
// them as a lazily ordered sequence. Riders the directory no longer knows
// are dropped.
func (s *Selector) Rank(ctx context.Context, o models.Order) *Candidates {
	start := time.Now()
	defer func() { observability.RankLatency.Observe(time.Since(start).Seconds()) }()

	locs := s.src.QueryAvailable(s.policy.MaxDistanceM, o.Pickup)
	items := make([]Candidate, 0, len(locs))
	for _, l := range locs {
		c := Candidate{
			RiderID:        l.RiderID,
			DistanceM:      geo.Distance(o.Pickup, l.Point()),
			AvailableSince: l.AvailableSince,
			Location:       l.Point(),
		}
		if s.policy.PrioritizeRating {
			r, err := s.dir.Lookup(ctx, l.RiderID)
			if err != nil {
				if !errors.Is(err, models.ErrRiderNotFound) {
					s.log.WithError(err).WithField("rider_id", l.RiderID).Warn("rating lookup failed, skipping candidate")
				}
				continue
			}
			c.Rating = r.Rating
		}
		items = append(items, c)
	}
	return NewCandidates(s.policy, items)
}

// Candidates is a restartable sequence that only orders as far as it is
// consumed. It is not safe for concurrent use.
type Candidates struct {
	policy   Policy
	snapshot []Candidate
	h        candidateHeap
}

func NewCandidates(policy Policy, items []Candidate) *Candidates {
	c := &Candidates{policy: policy, snapshot: items}
	c.Reset()
	return c
}

// Next pops the best remaining candidate.
func (c *Candidates) Next() (Candidate, bool) {
	if c.h.Len() == 0 {
		return Candidate{}, false
	}
	return heap.Pop(&c.h).(Candidate), true
}

// Reset restarts the sequence from the original snapshot.
func (c *Candidates) Reset() {
	items := make([]Candidate, len(c.snapshot))
	copy(items, c.snapshot)
	c.h = candidateHeap{items: items, less: c.policy.Less}
	heap.Init(&c.h)
}

func (c *Candidates) Remaining() int { return c.h.Len() }

func (c *Candidates) Size() int { return len(c.snapshot) }

// IDs drains a copy of the sequence in rank order.
func (c *Candidates) IDs() []string {
	cp := NewCandidates(c.policy, c.snapshot)
	out := make([]string, 0, len(c.snapshot))
	for {
		cand, ok := cp.Next()
		if !ok {
			return out
		}
		out = append(out, cand.RiderID)
	}
}

type candidateHeap struct {
	items []Candidate
	less  func(a, b Candidate) bool
}

func (h candidateHeap) Len() int           { return len(h.items) }
func (h candidateHeap) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h candidateHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *candidateHeap) Push(x any) { h.items = append(h.items, x.(Candidate)) }

func (h *candidateHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}
