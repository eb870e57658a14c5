package toml

import (
	"fmt"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

const currentSchemaVersion = 1

type reportSchema struct {
	Version     int             `toml:"version"`
	GeneratedAt string          `toml:"generated_at"`
	Carriers    []carrierSchema `toml:"carriers"`
}

func (s *reportSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s reportSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported report schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type carrierSchema struct {
	ID                  int64           `toml:"id"`
	Callsign            string          `toml:"callsign"`
	Name                string          `toml:"name"`
	Status              string          `toml:"status"`
	Remaining           string          `toml:"remaining,omitempty"`
	Departure           string          `toml:"departure,omitempty"`
	System              string          `toml:"system"`
	Body                string          `toml:"body,omitempty"`
	Destination         string          `toml:"destination,omitempty"`
	PendingDecommission bool            `toml:"pending_decommission"`
	SpawnLocation       string          `toml:"spawn_location,omitempty"`
	TimeBought          string          `toml:"time_bought,omitempty"`
	StatsAt             string          `toml:"stats_at,omitempty"`
	Owner               ownerSchema     `toml:"owner"`
	Fuel                *fuelSchema     `toml:"fuel,omitempty"`
	Docking             *dockingSchema  `toml:"docking,omitempty"`
	Finance             *financeSchema  `toml:"finance,omitempty"`
	Services            []serviceSchema `toml:"services,omitempty"`
	Trades              []tradeSchema   `toml:"trades,omitempty"`
	Jumps               []jumpSchema    `toml:"jumps,omitempty"`
}

type ownerSchema struct {
	FID     string `toml:"fid,omitempty"`
	Name    string `toml:"name,omitempty"`
	Credits int64  `toml:"credits,omitempty"`
}

type fuelSchema struct {
	Level        int     `toml:"level"`
	JumpRange    float64 `toml:"jump_range"`
	JumpRangeMax float64 `toml:"jump_range_max"`
	Source       string  `toml:"source"`
	UpdatedAt    string  `toml:"updated_at"`
}

type dockingSchema struct {
	Access         string `toml:"access"`
	AllowNotorious bool   `toml:"allow_notorious"`
}

type financeSchema struct {
	CarrierBalance   int64  `toml:"carrier_balance"`
	ReserveBalance   int64  `toml:"reserve_balance"`
	AvailableBalance int64  `toml:"available_balance"`
	ReservePercent   int    `toml:"reserve_percent"`
	WeeklyUpkeep     int64  `toml:"weekly_upkeep"`
	AverageJumpCost  int64  `toml:"average_jump_cost"`
	FundedUntil      string `toml:"funded_until,omitempty"`
}

type serviceSchema struct {
	Role  string `toml:"role"`
	State string `toml:"state"`
}

type tradeSchema struct {
	Commodity   string `toml:"commodity"`
	Name        string `toml:"name"`
	Direction   string `toml:"direction"`
	Amount      int    `toml:"amount"`
	Price       int64  `toml:"price"`
	BlackMarket bool   `toml:"black_market,omitempty"`
	SetAt       string `toml:"set_at"`
}

type jumpSchema struct {
	RequestedAt string `toml:"requested_at"`
	Departure   string `toml:"departure"`
	System      string `toml:"system"`
	Body        string `toml:"body,omitempty"`
}

func toSchema(view application.CarrierView) carrierSchema {
	c := view.Carrier
	eval := view.Evaluation
	entry := carrierSchema{
		ID:                  int64(c.ID),
		Callsign:            c.Callsign,
		Name:                c.Name,
		Status:              string(eval.Status),
		System:              eval.Current.System,
		Body:                eval.Current.Body,
		PendingDecommission: c.PendingDecommission,
		SpawnLocation:       c.SpawnLocation,
		TimeBought:          formatTime(c.TimeBought),
		StatsAt:             formatTime(c.StatsAt),
		Owner:               ownerSchema{FID: c.Owner.FID, Name: c.Owner.Name, Credits: c.Owner.Credits},
	}
	if eval.Status != domain.StatusIdle {
		entry.Remaining = eval.Remaining.Round(time.Second).String()
		entry.Departure = formatTime(eval.Departure)
	}
	if eval.Destination != nil {
		entry.Destination = eval.Destination.System
	}
	if c.Fuel != nil {
		entry.Fuel = &fuelSchema{
			Level:        c.Fuel.Level,
			JumpRange:    c.Fuel.JumpRange,
			JumpRangeMax: c.Fuel.JumpRangeMax,
			Source:       string(c.Fuel.Source),
			UpdatedAt:    formatTime(c.Fuel.UpdatedAt),
		}
	}
	if c.Docking != nil {
		entry.Docking = &dockingSchema{Access: string(c.Docking.Access), AllowNotorious: c.Docking.AllowNotorious}
	}
	if c.Finance != nil {
		entry.Finance = &financeSchema{
			CarrierBalance:   c.Finance.CarrierBalance,
			ReserveBalance:   c.Finance.ReserveBalance,
			AvailableBalance: c.Finance.AvailableBalance,
			ReservePercent:   c.Finance.ReservePercent,
			WeeklyUpkeep:     view.WeeklyUpkeep,
			AverageJumpCost:  view.AverageJumpCost,
			FundedUntil:      formatTime(view.FundedUntil),
		}
	}
	for _, service := range c.Services {
		entry.Services = append(entry.Services, serviceSchema{Role: service.Role, State: string(service.State())})
	}
	for _, order := range c.SortedTrades() {
		direction := "unloading"
		if order.Loading() {
			direction = "loading"
		}
		name := order.CommodityLocalised
		if name == "" {
			name = order.Commodity
		}
		entry.Trades = append(entry.Trades, tradeSchema{
			Commodity:   order.Commodity,
			Name:        name,
			Direction:   direction,
			Amount:      order.Amount(),
			Price:       order.Price,
			BlackMarket: order.BlackMarket,
			SetAt:       formatTime(order.SetAt),
		})
	}
	for _, jump := range c.Jumps {
		entry.Jumps = append(entry.Jumps, jumpSchema{
			RequestedAt: formatTime(jump.RequestedAt),
			Departure:   formatTime(jump.Departure),
			System:      jump.Destination.System,
			Body:        jump.Destination.Body,
		})
	}
	return entry
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
