package domain

import (
	"math"
	"time"
)

const (
	CoreUpkeep          int64 = 5_000_000
	JumpCostPerWeek     int64 = 100_000
	JumpCostWindowWeeks       = 8
)

// ignoredCrewRoles are crew entries present in stats that are not services.
var ignoredCrewRoles = map[string]struct{}{
	"Captain":     {},
	"CarrierFuel": {},
	"Commodities": {},
}

func IsServiceRole(role string) bool {
	_, ignored := ignoredCrewRoles[role]
	return !ignored
}

type serviceCost struct {
	active int64
	paused int64
}

var serviceCosts = map[string]serviceCost{
	"Refuel":            {active: 1_500_000, paused: 750_000},
	"Repair":            {active: 1_500_000, paused: 750_000},
	"Rearm":             {active: 1_500_000, paused: 750_000},
	"Shipyard":          {active: 6_500_000, paused: 1_800_000},
	"Outfitting":        {active: 5_000_000, paused: 1_500_000},
	"Exploration":       {active: 1_850_000, paused: 700_000},
	"VistaGenomics":     {active: 1_500_000, paused: 700_000},
	"PioneerSupplies":   {active: 5_000_000, paused: 1_500_000},
	"Bartender":         {active: 1_750_000, paused: 1_250_000},
	"VoucherRedemption": {active: 1_850_000, paused: 850_000},
	"BlackMarket":       {active: 2_000_000, paused: 1_250_000},
}

// WeeklyUpkeep is the core upkeep plus the cost of every installed service.
func WeeklyUpkeep(services []Service) int64 {
	total := CoreUpkeep
	for _, service := range services {
		cost, ok := serviceCosts[service.Role]
		if !ok {
			continue
		}
		switch service.State() {
		case ServiceActive:
			total += cost.active
		case ServicePaused:
			total += cost.paused
		}
	}
	return total
}

// AverageJumpCost estimates weekly jump spending from retained jumps
// requested in the trailing window.
func AverageJumpCost(jumps []Jump, now time.Time) int64 {
	window := time.Duration(JumpCostWindowWeeks) * 7 * 24 * time.Hour
	count := 0
	for _, jump := range jumps {
		if now.Sub(jump.RequestedAt) < window {
			count++
		}
	}
	perWeek := math.Round(float64(count)/JumpCostWindowWeeks*100) / 100
	return int64(perWeek * float64(JumpCostPerWeek))
}

// FundedUntil projects when the carrier balance runs out. The projection
// starts at the last stats snapshot, or now when none is known.
func FundedUntil(c Carrier, now time.Time) time.Time {
	if c.Finance == nil {
		return time.Time{}
	}
	weekly := WeeklyUpkeep(c.Services) + AverageJumpCost(c.Jumps, now)
	if weekly <= 0 {
		return time.Time{}
	}
	start := c.StatsAt
	if start.IsZero() {
		start = now
	}
	weeks := float64(c.Finance.CarrierBalance) / float64(weekly)
	if limit := float64(math.MaxInt64) / float64(7*24*time.Hour); weeks > limit {
		weeks = limit
	}
	return start.Add(time.Duration(weeks * float64(7*24*time.Hour)))
}
