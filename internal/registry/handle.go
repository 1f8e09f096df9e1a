package registry

import (
	"fmt"
	"time"

	"github.com/example/delivery-dispatch/internal/models"
)

// Handle exposes one rider's record while its lock is held. It must not be
// retained after the WithRider callback returns.
type Handle struct {
	r     *Registry
	e     *entry
	now   time.Time
	dirty bool
}

func (h *Handle) Location() models.RiderLocation { return h.r.view(h.e.rec, h.now) }

// ClaimedBy returns the order currently holding the rider, or "".
func (h *Handle) ClaimedBy() string {
	if !h.e.rec.Claimed {
		return ""
	}
	return h.e.rec.ClaimedBy
}

// Release clears the claim if orderID holds it and reports whether it did.
func (h *Handle) Release(orderID string) bool {
	rec := &h.e.rec
	if !rec.Claimed || rec.ClaimedBy != orderID {
		return false
	}
	rec.Claimed = false
	rec.ClaimedBy = ""
	rec.IsAvailable = rec.IsOnline
	if rec.IsAvailable {
		rec.AvailableSince = h.now
	}
	h.dirty = true
	return true
}

func (h *Handle) claim(orderID string, confirm func(models.RiderLocation) error) error {
	loc := h.Location()
	if !loc.IsAvailable {
		if loc.Claimed {
			return fmt.Errorf("%w: rider %s held by order %s", models.ErrClaimConflict, loc.RiderID, loc.ClaimedBy)
		}
		return fmt.Errorf("%w: rider %s is not available", models.ErrClaimConflict, loc.RiderID)
	}
	saved := h.e.rec
	h.e.rec.Claimed = true
	h.e.rec.ClaimedBy = orderID
	h.e.rec.IsAvailable = false
	h.e.rec.AvailableSince = time.Time{}
	if err := confirm(loc); err != nil {
		h.e.rec = saved
		return err
	}
	h.dirty = true
	return nil
}
