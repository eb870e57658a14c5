package application

import (
	"fmt"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

type CarrierView struct {
	Carrier    domain.Carrier
	Evaluation Evaluation

	WeeklyUpkeep    int64
	AverageJumpCost int64
	FundedUntil     time.Time
}

type SegmentView struct {
	Name       string
	Path       string
	CreatedAt  time.Time
	Cursor     int64
	Lines      int
	Malformed  int
	Active     bool
	LastEvent  domain.EventKind
	Owner      string
	OwnerState domain.OwnerState
	Carriers   []domain.CarrierID
	Skippable  bool
}

func newCarrierView(c domain.Carrier, now time.Time, cooldowns domain.Cooldowns) CarrierView {
	c = c.Clone()
	return CarrierView{
		Carrier:         c,
		Evaluation:      Evaluate(c, now, cooldowns),
		WeeklyUpkeep:    domain.WeeklyUpkeep(c.Services),
		AverageJumpCost: domain.AverageJumpCost(c.Jumps, now),
		FundedUntil:     domain.FundedUntil(c, now),
	}
}

// Carriers returns point-in-time views ordered by purchase time.
func (t *Tracker) Carriers(now time.Time) []CarrierView {
	t.viewMu.RLock()
	carriers := t.carriers
	t.viewMu.RUnlock()

	views := make([]CarrierView, 0, len(carriers))
	for _, c := range carriers {
		views = append(views, newCarrierView(c, now, t.opts.Cooldowns))
	}
	return views
}

func (t *Tracker) Carrier(id domain.CarrierID, now time.Time) (CarrierView, error) {
	c, err := t.lookup(id)
	if err != nil {
		return CarrierView{}, err
	}
	return newCarrierView(c, now, t.opts.Cooldowns), nil
}

// JumpHistory returns the retained jumps of a carrier, most recent first.
func (t *Tracker) JumpHistory(id domain.CarrierID) ([]domain.Jump, error) {
	c, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]domain.Jump(nil), c.Jumps...), nil
}

func (t *Tracker) ActiveTrades(id domain.CarrierID) ([]domain.TradeOrder, error) {
	c, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	return c.SortedTrades(), nil
}

func (t *Tracker) Segments() []SegmentView {
	t.viewMu.RLock()
	segments := t.segments
	t.viewMu.RUnlock()

	views := make([]SegmentView, 0, len(segments))
	for _, seg := range segments {
		views = append(views, SegmentView{
			Name:       seg.Name,
			Path:       seg.Path,
			CreatedAt:  seg.CreatedAt,
			Cursor:     seg.Cursor,
			Lines:      seg.Lines,
			Malformed:  seg.Malformed,
			Active:     seg.Active,
			LastEvent:  seg.LastEvent,
			Owner:      seg.Owner,
			OwnerState: seg.OwnerState,
			Carriers:   append([]domain.CarrierID(nil), seg.Carriers...),
			Skippable:  seg.Skippable(),
		})
	}
	return views
}

func (t *Tracker) lookup(id domain.CarrierID) (domain.Carrier, error) {
	t.viewMu.RLock()
	defer t.viewMu.RUnlock()

	for _, c := range t.carriers {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Carrier{}, fmt.Errorf("carrier %d: %w", id, domain.ErrCarrierNotFound)
}
