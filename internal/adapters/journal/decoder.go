package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
)

var ErrMalformedLine = errors.New("malformed journal line")

var (
	// LegacyDepartureCutoff is the first day journals always log DepartureTime.
	LegacyDepartureCutoff = time.Date(2022, time.December, 1, 0, 0, 0, 0, time.UTC)
	LegacyDepartureDelay  = 15 * time.Minute
)

type Decoder struct{}

var _ ports.EventDecoder = Decoder{}

func NewDecoder() Decoder {
	return Decoder{}
}

func (Decoder) Decode(line []byte) (domain.Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return domain.Event{}, fmt.Errorf("empty line: %w", ErrMalformedLine)
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return domain.Event{}, fmt.Errorf("decode envelope: %w: %w", ErrMalformedLine, err)
	}
	if env.Event == "" || env.Timestamp.IsZero() {
		return domain.Event{}, fmt.Errorf("missing event or timestamp: %w", ErrMalformedLine)
	}

	event := domain.Event{Kind: domain.EventKind(env.Event), Timestamp: env.Timestamp.UTC()}
	var err error
	switch event.Kind {
	case domain.EventLocationReport:
		err = decodeLocation(line, &event)
	case domain.EventJumpRequested:
		err = decodeJumpRequest(line, &event)
	case domain.EventJumpCancelled:
		var rec jumpCancelRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.CarrierID = domain.CarrierID(rec.CarrierID)
		}
	case domain.EventStatsSnapshot:
		err = decodeStats(line, &event)
	case domain.EventFuelDeposited:
		var rec depositFuelRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.CarrierID = domain.CarrierID(rec.CarrierID)
			event.Deposit = &domain.FuelDeposit{Amount: rec.Amount, Total: rec.Total}
		}
	case domain.EventTradeOrderSet:
		var rec tradeOrderRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.CarrierID = domain.CarrierID(rec.CarrierID)
			event.Trade = &domain.TradeOrderSet{
				Commodity:          rec.Commodity,
				CommodityLocalised: rec.CommodityLocalised,
				BlackMarket:        rec.BlackMarket,
				PurchaseOrder:      rec.PurchaseOrder,
				SaleOrder:          rec.SaleOrder,
				Price:              rec.Price,
				Cancel:             rec.CancelTrade,
			}
			if rec.Commodity == "" {
				err = errors.New("trade order without commodity")
			}
		}
	case domain.EventCarrierPurchased:
		var rec carrierBuyRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.CarrierID = domain.CarrierID(rec.CarrierID)
			event.Purchase = &domain.CarrierPurchase{
				Callsign:      rec.Callsign,
				Location:      rec.Location,
				SystemAddress: rec.SystemAddress,
				Price:         rec.Price,
				Variant:       rec.Variant,
			}
		}
	case domain.EventDockingPermissionSet:
		var rec dockingPermissionRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.CarrierID = domain.CarrierID(rec.CarrierID)
			event.Docking = &domain.DockingPermission{
				Access:         domain.DockingAccess(rec.DockingAccess),
				AllowNotorious: rec.AllowNotorious,
				UpdatedAt:      event.Timestamp,
			}
		}
	case domain.EventIdentityAnnounced:
		var rec commanderRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.Identity = &domain.Identity{FID: rec.FID, Name: rec.Name}
		}
	case domain.EventCommanderLoaded:
		var rec loadGameRecord
		if err = json.Unmarshal(line, &rec); err == nil {
			event.Commander = &domain.CommanderLoad{FID: rec.FID, Name: rec.Commander, Credits: rec.Credits}
		}
	case domain.EventSessionTerminated:
	default:
		event.Kind = domain.EventUntracked
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("decode %s: %w: %w", env.Event, ErrMalformedLine, err)
	}
	if event.Kind.CarrierScoped() && event.CarrierID == 0 {
		return domain.Event{}, fmt.Errorf("decode %s: missing CarrierID: %w", env.Event, ErrMalformedLine)
	}
	return event, nil
}

func decodeLocation(line []byte, event *domain.Event) error {
	var rec carrierLocationRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return err
	}
	event.CarrierID = domain.CarrierID(rec.CarrierID)
	event.Location = &domain.LocationReport{
		System:        rec.StarSystem,
		SystemAddress: rec.SystemAddress,
		BodyID:        rec.BodyID,
	}
	return nil
}

// decodeJumpRequest backfills the departure of requests logged before
// journals carried DepartureTime.
func decodeJumpRequest(line []byte, event *domain.Event) error {
	var rec jumpRequestRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return err
	}
	event.CarrierID = domain.CarrierID(rec.CarrierID)
	jump := &domain.JumpRequest{
		System:        rec.SystemName,
		SystemAddress: rec.SystemAddress,
		Body:          rec.Body,
		BodyID:        rec.BodyID,
	}
	switch {
	case rec.DepartureTime != nil:
		jump.Departure = rec.DepartureTime.UTC()
	case event.Timestamp.Before(LegacyDepartureCutoff):
		jump.Departure = event.Timestamp.Add(LegacyDepartureDelay)
		jump.Backfilled = true
	default:
		return errors.New("jump request without DepartureTime")
	}
	event.Jump = jump
	return nil
}

func decodeStats(line []byte, event *domain.Event) error {
	var rec statsRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return err
	}
	event.CarrierID = domain.CarrierID(rec.CarrierID)
	stats := &domain.StatsSnapshot{
		Callsign:            rec.Callsign,
		Name:                rec.Name,
		DockingAccess:       domain.DockingAccess(rec.DockingAccess),
		AllowNotorious:      rec.AllowNotorious,
		FuelLevel:           rec.FuelLevel,
		JumpRange:           rec.JumpRangeCurr,
		JumpRangeMax:        rec.JumpRangeMax,
		PendingDecommission: rec.PendingDecommission,
		Space: domain.SpaceUsage{
			TotalCapacity: rec.SpaceUsage.TotalCapacity,
			Services:      rec.SpaceUsage.Crew,
			Cargo:         rec.SpaceUsage.Cargo,
			CargoReserved: rec.SpaceUsage.CargoSpaceReserved,
			ShipPacks:     rec.SpaceUsage.ShipPacks,
			ModulePacks:   rec.SpaceUsage.ModulePacks,
			FreeSpace:     rec.SpaceUsage.FreeSpace,
		},
		Finance: domain.Finance{
			CarrierBalance:   rec.Finance.CarrierBalance,
			ReserveBalance:   rec.Finance.ReserveBalance,
			AvailableBalance: rec.Finance.AvailableBalance,
			ReservePercent:   rec.Finance.ReservePercent,
		},
	}
	for _, crew := range rec.Crew {
		if !domain.IsServiceRole(crew.CrewRole) {
			continue
		}
		stats.Crew = append(stats.Crew, domain.Service{
			Role:      crew.CrewRole,
			Activated: crew.Activated,
			Enabled:   crew.Enabled,
			CrewName:  crew.CrewName,
		})
	}
	event.Stats = stats
	return nil
}
