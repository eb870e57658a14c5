package application

import (
	"sort"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

const (
	// MaxParkedPerCarrier bounds events held for carriers not yet known.
	MaxParkedPerCarrier = 512

	purchaseFuelLevel = 500
)

// CarrierReleaseDate orders carriers whose purchase was never logged.
var CarrierReleaseDate = time.Date(2020, time.June, 9, 0, 0, 0, 0, time.UTC)

type carrierState struct {
	carrier    domain.Carrier
	jumps      *jumpScanner
	statsSeen  bool
	fuelAt     time.Time
	dockingAt  time.Time
	locationAt time.Time
	// tradeAt holds the time each commodity was last set or cancelled.
	tradeAt map[string]time.Time
}

type commander struct {
	name    string
	credits int64
	at      time.Time
	seq     uint64
}

// Reconciler folds event batches into carrier entities. Every rule compares
// timestamps or is positional over an ordered stream, so folding a history
// in several ordered batches yields the same carriers as folding it once.
type Reconciler struct {
	carriers   map[domain.CarrierID]*carrierState
	parked     map[domain.CarrierID][]domain.Event
	commanders map[string]commander
	owners     map[domain.CarrierID]map[string]domain.OwnerClaim
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		carriers:   make(map[domain.CarrierID]*carrierState),
		parked:     make(map[domain.CarrierID][]domain.Event),
		commanders: make(map[string]commander),
		owners:     make(map[domain.CarrierID]map[string]domain.OwnerClaim),
	}
}

func (r *Reconciler) Apply(batch Batch) {
	events := append([]domain.Event(nil), batch.Events...)
	for _, event := range batch.Events {
		if event.Kind != domain.EventStatsSnapshot && event.Kind != domain.EventCarrierPurchased {
			continue
		}
		if _, ok := r.carriers[event.CarrierID]; ok {
			continue
		}
		r.carriers[event.CarrierID] = &carrierState{
			carrier: domain.Carrier{ID: event.CarrierID, ActiveTrades: map[string]domain.TradeOrder{}},
			jumps:   newJumpScanner(),
			tradeAt: map[string]time.Time{},
		}
		events = append(events, r.parked[event.CarrierID]...)
		delete(r.parked, event.CarrierID)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Seq < events[j].Seq
	})

	for _, event := range events {
		if event.Kind == domain.EventCommanderLoaded {
			r.applyCommander(event)
			continue
		}
		if !event.Kind.CarrierScoped() {
			continue
		}
		state, ok := r.carriers[event.CarrierID]
		if !ok {
			r.park(event)
			continue
		}
		state.apply(event)
	}

	for _, claim := range batch.Claims {
		r.applyClaim(claim)
	}
	for id, state := range r.carriers {
		state.carrier.Owner = r.owner(id)
	}
}

func (r *Reconciler) park(event domain.Event) {
	parked := append(r.parked[event.CarrierID], event)
	if len(parked) > MaxParkedPerCarrier {
		parked = append([]domain.Event(nil), parked[len(parked)-MaxParkedPerCarrier:]...)
	}
	r.parked[event.CarrierID] = parked
}

func (r *Reconciler) applyCommander(event domain.Event) {
	if event.Commander == nil || event.Commander.FID == "" {
		return
	}
	current, ok := r.commanders[event.Commander.FID]
	if ok && (event.Timestamp.Before(current.at) || (event.Timestamp.Equal(current.at) && event.Seq < current.seq)) {
		return
	}
	r.commanders[event.Commander.FID] = commander{
		name:    event.Commander.Name,
		credits: event.Commander.Credits,
		at:      event.Timestamp,
		seq:     event.Seq,
	}
}

func (r *Reconciler) applyClaim(claim domain.OwnerClaim) {
	claims := r.owners[claim.CarrierID]
	if current, ok := claims[claim.Segment]; ok && current.Seq > claim.Seq {
		return
	}
	if claim.FID == "" {
		delete(claims, claim.Segment)
		return
	}
	if claims == nil {
		claims = make(map[string]domain.OwnerClaim)
		r.owners[claim.CarrierID] = claims
	}
	claims[claim.Segment] = claim
}

// owner picks the claim from the most recent segment that attributed id.
func (r *Reconciler) owner(id domain.CarrierID) domain.Owner {
	var (
		best  domain.OwnerClaim
		found bool
	)
	for _, claim := range r.owners[id] {
		if !found || claim.SegmentTime.After(best.SegmentTime) ||
			(claim.SegmentTime.Equal(best.SegmentTime) && claim.Segment > best.Segment) {
			best, found = claim, true
		}
	}
	if !found {
		return domain.Owner{}
	}
	owner := domain.Owner{FID: best.FID}
	if cmdr, ok := r.commanders[best.FID]; ok {
		owner.Name = cmdr.name
		owner.Credits = cmdr.credits
	}
	return owner
}

func (s *carrierState) apply(event domain.Event) {
	c := &s.carrier
	at := event.Timestamp
	switch event.Kind {
	case domain.EventStatsSnapshot:
		s.applyStats(at, event.Stats)
	case domain.EventCarrierPurchased:
		s.applyPurchase(at, event.Purchase)
	case domain.EventFuelDeposited:
		if event.Deposit == nil || (c.Fuel != nil && !at.After(s.fuelAt)) {
			return
		}
		fuel := domain.Fuel{Level: event.Deposit.Total, Source: domain.FuelFromDeposit, UpdatedAt: at}
		if c.Fuel != nil {
			fuel.JumpRangeMax = c.Fuel.JumpRangeMax
		}
		c.Fuel = &fuel
		s.fuelAt = at
	case domain.EventDockingPermissionSet:
		if event.Docking == nil || (c.Docking != nil && at.Before(s.dockingAt)) {
			return
		}
		c.Docking = &domain.DockingPermission{Access: event.Docking.Access, AllowNotorious: event.Docking.AllowNotorious, UpdatedAt: at}
		s.dockingAt = at
	case domain.EventLocationReport:
		if event.Location == nil || (c.Location != nil && at.Before(s.locationAt)) {
			return
		}
		c.Location = &domain.Location{
			System:        event.Location.System,
			SystemAddress: event.Location.SystemAddress,
			BodyID:        event.Location.BodyID,
			At:            at,
		}
		s.locationAt = at
	case domain.EventJumpRequested, domain.EventJumpCancelled:
		if s.jumps.fold(event) {
			c.Jumps = s.jumps.retained()
			c.LastCancel = s.jumps.lastCancel
		}
	case domain.EventTradeOrderSet:
		trade := event.Trade
		if trade == nil {
			return
		}
		if last, ok := s.tradeAt[trade.Commodity]; ok && at.Before(last) {
			return
		}
		s.tradeAt[trade.Commodity] = at
		if trade.Cancel {
			delete(c.ActiveTrades, trade.Commodity)
			return
		}
		c.ActiveTrades[trade.Commodity] = domain.TradeOrder{
			Commodity:          trade.Commodity,
			CommodityLocalised: trade.CommodityLocalised,
			BlackMarket:        trade.BlackMarket,
			PurchaseOrder:      trade.PurchaseOrder,
			SaleOrder:          trade.SaleOrder,
			Price:              trade.Price,
			SetAt:              at,
		}
	}
}

// applyStats replaces every snapshot the stats carry unless a newer stats
// event was already folded.
func (s *carrierState) applyStats(at time.Time, stats *domain.StatsSnapshot) {
	if stats == nil {
		return
	}
	c := &s.carrier
	if !s.statsSeen || !at.Before(c.StatsAt) {
		s.statsSeen = true
		c.StatsAt = at
		c.Callsign = stats.Callsign
		c.Name = stats.Name
		c.PendingDecommission = stats.PendingDecommission
		finance := stats.Finance
		c.Finance = &finance
		space := stats.Space
		c.SpaceUsage = &space
		c.Services = append([]domain.Service(nil), stats.Crew...)
	}
	if c.Fuel == nil || !at.Before(s.fuelAt) {
		c.Fuel = &domain.Fuel{
			Level:        stats.FuelLevel,
			JumpRange:    stats.JumpRange,
			JumpRangeMax: stats.JumpRangeMax,
			Source:       domain.FuelFromStats,
			UpdatedAt:    at,
		}
		s.fuelAt = at
	}
	if stats.DockingAccess != "" && (c.Docking == nil || !at.Before(s.dockingAt)) {
		c.Docking = &domain.DockingPermission{Access: stats.DockingAccess, AllowNotorious: stats.AllowNotorious, UpdatedAt: at}
		s.dockingAt = at
	}
}

// applyPurchase records where and when the carrier was bought. A carrier
// first seen through its purchase starts with the defaults of a new carrier.
func (s *carrierState) applyPurchase(at time.Time, purchase *domain.CarrierPurchase) {
	if purchase == nil {
		return
	}
	c := &s.carrier
	if c.TimeBought.IsZero() {
		c.TimeBought = at
		c.SpawnLocation = purchase.Location
	}
	if c.Callsign == "" {
		c.Callsign = purchase.Callsign
	}
	if c.Finance == nil {
		c.Finance = &domain.Finance{}
	}
	if c.Fuel == nil {
		c.Fuel = &domain.Fuel{Level: purchaseFuelLevel, Source: domain.FuelFromPurchase, UpdatedAt: at}
		s.fuelAt = at
	}
	if c.Docking == nil {
		c.Docking = &domain.DockingPermission{Access: domain.DockingAll, UpdatedAt: at}
		s.dockingAt = at
	}
}

// Carriers returns deep copies ordered by purchase time, then ID.
func (r *Reconciler) Carriers() []domain.Carrier {
	out := make([]domain.Carrier, 0, len(r.carriers))
	for _, state := range r.carriers {
		out = append(out, state.carrier.Clone())
	}
	SortCarriers(out)
	return out
}

func SortCarriers(carriers []domain.Carrier) {
	bought := func(c domain.Carrier) time.Time {
		if c.TimeBought.IsZero() {
			return CarrierReleaseDate
		}
		return c.TimeBought
	}
	sort.SliceStable(carriers, func(i, j int) bool {
		a, b := bought(carriers[i]), bought(carriers[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return carriers[i].ID < carriers[j].ID
	})
}

// Parked reports how many events wait for an unknown carrier.
func (r *Reconciler) Parked() int {
	n := 0
	for _, events := range r.parked {
		n += len(events)
	}
	return n
}
