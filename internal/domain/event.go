package domain

import "time"

type EventKind string

const (
	EventLocationReport       EventKind = "CarrierLocation"
	EventJumpRequested        EventKind = "CarrierJumpRequest"
	EventJumpCancelled        EventKind = "CarrierJumpCancelled"
	EventStatsSnapshot        EventKind = "CarrierStats"
	EventFuelDeposited        EventKind = "CarrierDepositFuel"
	EventTradeOrderSet        EventKind = "CarrierTradeOrder"
	EventCarrierPurchased     EventKind = "CarrierBuy"
	EventDockingPermissionSet EventKind = "CarrierDockingPermission"
	EventIdentityAnnounced    EventKind = "Commander"
	EventCommanderLoaded      EventKind = "LoadGame"
	EventSessionTerminated    EventKind = "Shutdown"

	// EventUntracked stands in for every journal event the tracker ignores.
	EventUntracked EventKind = "Untracked"
)

// CarrierScoped reports whether events of this kind attach to a carrier.
func (k EventKind) CarrierScoped() bool {
	switch k {
	case EventLocationReport, EventJumpRequested, EventJumpCancelled, EventStatsSnapshot,
		EventFuelDeposited, EventTradeOrderSet, EventCarrierPurchased, EventDockingPermissionSet:
		return true
	default:
		return false
	}
}

// Aggregated reports whether the aggregator keeps events of this kind.
func (k EventKind) Aggregated() bool {
	return k.CarrierScoped() || k == EventCommanderLoaded
}

// Event is a decoded journal line. Exactly one payload pointer matching Kind
// is set; CarrierID is zero for events that do not reference a carrier.
type Event struct {
	Kind      EventKind `cbor:"1,keyasint"`
	Timestamp time.Time `cbor:"2,keyasint"`
	Seq       uint64    `cbor:"3,keyasint"`
	CarrierID CarrierID `cbor:"4,keyasint,omitempty"`

	Location  *LocationReport    `cbor:"10,keyasint,omitempty"`
	Jump      *JumpRequest       `cbor:"11,keyasint,omitempty"`
	Stats     *StatsSnapshot     `cbor:"12,keyasint,omitempty"`
	Deposit   *FuelDeposit       `cbor:"13,keyasint,omitempty"`
	Trade     *TradeOrderSet     `cbor:"14,keyasint,omitempty"`
	Purchase  *CarrierPurchase   `cbor:"15,keyasint,omitempty"`
	Docking   *DockingPermission `cbor:"16,keyasint,omitempty"`
	Identity  *Identity          `cbor:"17,keyasint,omitempty"`
	Commander *CommanderLoad     `cbor:"18,keyasint,omitempty"`
}

type LocationReport struct {
	System        string
	SystemAddress int64
	BodyID        int
}

type JumpRequest struct {
	System        string
	SystemAddress int64
	Body          string
	BodyID        int
	Departure     time.Time
	// Backfilled is set when Departure was derived rather than logged.
	Backfilled bool
}

type StatsSnapshot struct {
	Callsign            string
	Name                string
	DockingAccess       DockingAccess
	AllowNotorious      bool
	FuelLevel           int
	JumpRange           float64
	JumpRangeMax        float64
	PendingDecommission bool
	Space               SpaceUsage
	Finance             Finance
	Crew                []Service
}

type FuelDeposit struct {
	Amount int
	Total  int
}

type TradeOrderSet struct {
	Commodity          string
	CommodityLocalised string
	BlackMarket        bool
	PurchaseOrder      int
	SaleOrder          int
	Price              int64
	Cancel             bool
}

type CarrierPurchase struct {
	Callsign      string
	Location      string
	SystemAddress int64
	Price         int64
	Variant       string
}

type Identity struct {
	FID  string
	Name string
}

type CommanderLoad struct {
	FID     string
	Name    string
	Credits int64
}

// OwnerClaim attributes a carrier to the commander owning a segment. An empty
// FID retracts an earlier claim from the same segment.
type OwnerClaim struct {
	CarrierID   CarrierID `cbor:"1,keyasint"`
	Segment     string    `cbor:"2,keyasint"`
	SegmentTime time.Time `cbor:"3,keyasint"`
	FID         string    `cbor:"4,keyasint,omitempty"`
	Seq         uint64    `cbor:"5,keyasint"`
}
