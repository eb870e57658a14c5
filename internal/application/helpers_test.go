package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return t0.Add(d)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func statsEvent(id domain.CarrierID, ts time.Time, name string, balance int64, fuel int) domain.Event {
	return domain.Event{
		Kind:      domain.EventStatsSnapshot,
		Timestamp: ts,
		CarrierID: id,
		Stats: &domain.StatsSnapshot{
			Callsign:      fmt.Sprintf("K%d", id),
			Name:          name,
			DockingAccess: domain.DockingAll,
			FuelLevel:     fuel,
			JumpRange:     500,
			JumpRangeMax:  500,
			Finance:       domain.Finance{CarrierBalance: balance},
			Space:         domain.SpaceUsage{TotalCapacity: 25000, FreeSpace: 20000},
			Crew:          []domain.Service{{Role: "Refuel", Activated: true, Enabled: true}},
		},
	}
}

func jumpEvent(id domain.CarrierID, ts time.Time, system string) domain.Event {
	return domain.Event{
		Kind:      domain.EventJumpRequested,
		Timestamp: ts,
		CarrierID: id,
		Jump: &domain.JumpRequest{
			System:        system,
			SystemAddress: int64(len(system)),
			Body:          system,
			Departure:     ts.Add(15 * time.Minute),
		},
	}
}

func cancelEvent(id domain.CarrierID, ts time.Time) domain.Event {
	return domain.Event{Kind: domain.EventJumpCancelled, Timestamp: ts, CarrierID: id}
}

func depositEvent(id domain.CarrierID, ts time.Time, total int) domain.Event {
	return domain.Event{Kind: domain.EventFuelDeposited, Timestamp: ts, CarrierID: id, Deposit: &domain.FuelDeposit{Amount: 1, Total: total}}
}

func tradeEvent(id domain.CarrierID, ts time.Time, commodity string, purchase int, cancel bool) domain.Event {
	return domain.Event{
		Kind:      domain.EventTradeOrderSet,
		Timestamp: ts,
		CarrierID: id,
		Trade:     &domain.TradeOrderSet{Commodity: commodity, PurchaseOrder: purchase, Price: 1000, Cancel: cancel},
	}
}

func purchaseEvent(id domain.CarrierID, ts time.Time, location string) domain.Event {
	return domain.Event{
		Kind:      domain.EventCarrierPurchased,
		Timestamp: ts,
		CarrierID: id,
		Purchase:  &domain.CarrierPurchase{Callsign: fmt.Sprintf("K%d", id), Location: location},
	}
}

func dockingEvent(id domain.CarrierID, ts time.Time, access domain.DockingAccess) domain.Event {
	return domain.Event{Kind: domain.EventDockingPermissionSet, Timestamp: ts, CarrierID: id, Docking: &domain.DockingPermission{Access: access}}
}

func locationEvent(id domain.CarrierID, ts time.Time, system string) domain.Event {
	return domain.Event{Kind: domain.EventLocationReport, Timestamp: ts, CarrierID: id, Location: &domain.LocationReport{System: system}}
}

func loadGameEvent(ts time.Time, fid, name string, credits int64) domain.Event {
	return domain.Event{Kind: domain.EventCommanderLoaded, Timestamp: ts, Commander: &domain.CommanderLoad{FID: fid, Name: name, Credits: credits}}
}

// fold reconciles events in one batch through a fresh aggregator.
func fold(events ...domain.Event) *Reconciler {
	agg := NewAggregator()
	agg.Add(events...)
	r := NewReconciler()
	r.Apply(agg.Incremental())
	return r
}

func onlyCarrier(t *testing.T, r *Reconciler) domain.Carrier {
	t.Helper()
	carriers := r.Carriers()
	require.Len(t, carriers, 1)
	return carriers[0]
}

const timeLayout = "2006-01-02T15:04:05Z"

type journalFile struct {
	t    *testing.T
	path string
}

func newJournal(t *testing.T, dir string, created time.Time) *journalFile {
	t.Helper()
	name := fmt.Sprintf("Journal.%s.01.log", created.UTC().Format("2006-01-02T150405"))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return &journalFile{t: t, path: path}
}

func (j *journalFile) append(lines ...string) *journalFile {
	j.t.Helper()
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(j.t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(j.t, err)
	}
	return j
}

func lineCommander(ts time.Time, fid string) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"Commander","FID":%q,"Name":"Jameson"}`, ts.Format(timeLayout), fid)
}

func lineLoadGame(ts time.Time, fid string, credits int64) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"LoadGame","FID":%q,"Commander":"Jameson","Credits":%d}`, ts.Format(timeLayout), fid, credits)
}

func lineStats(ts time.Time, id int64, name string) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"CarrierStats","CarrierID":%d,"Callsign":"K7Q-1HT","Name":%q,"DockingAccess":"all","AllowNotorious":false,"FuelLevel":700,"JumpRangeCurr":500.0,"JumpRangeMax":500.0,"PendingDecommission":false,`+
		`"SpaceUsage":{"TotalCapacity":25000,"Crew":2470,"Cargo":0,"CargoSpaceReserved":0,"ShipPacks":0,"ModulePacks":0,"FreeSpace":22530},`+
		`"Finance":{"CarrierBalance":1000000000,"ReserveBalance":0,"AvailableBalance":1000000000,"ReservePercent":0},`+
		`"Crew":[{"CrewRole":"Captain","Activated":true,"Enabled":true},{"CrewRole":"Refuel","Activated":true,"Enabled":true}]}`,
		ts.Format(timeLayout), id, name)
}

func lineJump(ts time.Time, id int64, system string, departure time.Time) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"CarrierJumpRequest","CarrierID":%d,"SystemName":%q,"SystemAddress":1,"Body":%q,"BodyID":0,"DepartureTime":%q}`,
		ts.Format(timeLayout), id, system, system, departure.Format(timeLayout))
}

func lineCancel(ts time.Time, id int64) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"CarrierJumpCancelled","CarrierID":%d}`, ts.Format(timeLayout), id)
}

func lineShutdown(ts time.Time) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"Shutdown"}`, ts.Format(timeLayout))
}

func lineTrade(ts time.Time, id int64, commodity string, amount int) string {
	return fmt.Sprintf(`{"timestamp":%q,"event":"CarrierTradeOrder","CarrierID":%d,"BlackMarket":false,"Commodity":%q,"PurchaseOrder":%d,"Price":5000}`,
		ts.Format(timeLayout), id, commodity, amount)
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
