package domain

import (
	"sort"
	"time"
)

type CarrierID int64

type Carrier struct {
	ID                  CarrierID
	Callsign            string
	Name                string
	Owner               Owner
	Finance             *Finance
	Fuel                *Fuel
	SpaceUsage          *SpaceUsage
	Services            []Service
	Docking             *DockingPermission
	Location            *Location
	// Jumps holds retained (non-cancelled) jump requests, most recent first.
	Jumps               []Jump
	LastCancel          time.Time
	ActiveTrades        map[string]TradeOrder
	PendingDecommission bool
	TimeBought          time.Time
	SpawnLocation       string
	StatsAt             time.Time
}

// Owner is best-effort: FID is empty when no session could be attributed.
type Owner struct {
	FID     string
	Name    string
	Credits int64
}

type Finance struct {
	CarrierBalance   int64
	ReserveBalance   int64
	AvailableBalance int64
	ReservePercent   int
}

type FuelSource string

const (
	FuelFromStats    FuelSource = "stats"
	FuelFromDeposit  FuelSource = "deposit"
	FuelFromPurchase FuelSource = "purchase"
)

type Fuel struct {
	Level        int
	JumpRange    float64
	JumpRangeMax float64
	Source       FuelSource
	UpdatedAt    time.Time
}

type SpaceUsage struct {
	TotalCapacity int
	Services      int
	Cargo         int
	CargoReserved int
	ShipPacks     int
	ModulePacks   int
	FreeSpace     int
}

type Service struct {
	Role      string
	Activated bool
	Enabled   bool
	CrewName  string
}

// State collapses the activated/enabled pair the way the carrier
// management screen reports it.
func (s Service) State() ServiceState {
	switch {
	case !s.Activated:
		return ServiceOff
	case !s.Enabled:
		return ServicePaused
	default:
		return ServiceActive
	}
}

type ServiceState string

const (
	ServiceActive ServiceState = "active"
	ServicePaused ServiceState = "paused"
	ServiceOff    ServiceState = "off"
)

type DockingAccess string

const (
	DockingAll             DockingAccess = "all"
	DockingFriends         DockingAccess = "friends"
	DockingSquadron        DockingAccess = "squadron"
	DockingSquadronFriends DockingAccess = "squadronfriends"
	DockingNone            DockingAccess = "none"
)

type DockingPermission struct {
	Access         DockingAccess
	AllowNotorious bool
	UpdatedAt      time.Time
}

type Location struct {
	System        string
	SystemAddress int64
	Body          string
	BodyID        int
	At            time.Time
}

func (l Location) IsZero() bool {
	return l.System == "" && l.Body == "" && l.At.IsZero()
}

type Jump struct {
	RequestedAt time.Time
	Departure   time.Time
	Destination Location
}

type TradeOrder struct {
	Commodity          string
	CommodityLocalised string
	BlackMarket        bool
	PurchaseOrder      int
	SaleOrder          int
	Price              int64
	SetAt              time.Time
}

// Loading reports whether the order buys into the carrier.
func (o TradeOrder) Loading() bool {
	return o.PurchaseOrder > 0
}

func (o TradeOrder) Amount() int {
	if o.PurchaseOrder > 0 {
		return o.PurchaseOrder
	}
	return o.SaleOrder
}

// Clone returns a deep copy so readers never share mutable state with the
// ingestion worker.
func (c Carrier) Clone() Carrier {
	out := c
	if c.Finance != nil {
		f := *c.Finance
		out.Finance = &f
	}
	if c.Fuel != nil {
		f := *c.Fuel
		out.Fuel = &f
	}
	if c.SpaceUsage != nil {
		s := *c.SpaceUsage
		out.SpaceUsage = &s
	}
	if c.Docking != nil {
		d := *c.Docking
		out.Docking = &d
	}
	if c.Location != nil {
		l := *c.Location
		out.Location = &l
	}
	if c.Services != nil {
		out.Services = append([]Service(nil), c.Services...)
	}
	if c.Jumps != nil {
		out.Jumps = append([]Jump(nil), c.Jumps...)
	}
	if c.ActiveTrades != nil {
		out.ActiveTrades = make(map[string]TradeOrder, len(c.ActiveTrades))
		for k, v := range c.ActiveTrades {
			out.ActiveTrades[k] = v
		}
	}
	return out
}

// SortedTrades returns active trade orders ordered by the time they were set.
func (c Carrier) SortedTrades() []TradeOrder {
	orders := make([]TradeOrder, 0, len(c.ActiveTrades))
	for _, order := range c.ActiveTrades {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].SetAt.Equal(orders[j].SetAt) {
			return orders[i].SetAt.Before(orders[j].SetAt)
		}
		return orders[i].Commodity < orders[j].Commodity
	})
	return orders
}
