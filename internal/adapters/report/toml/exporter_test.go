package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func sampleView() application.CarrierView {
	return application.CarrierView{
		Carrier: domain.Carrier{
			ID:       3700000001,
			Callsign: "K7Q-1HT",
			Name:     "ALPHA",
			Owner:    domain.Owner{FID: "F1", Name: "Jameson", Credits: 1234},
			Finance:  &domain.Finance{CarrierBalance: 9_000_000_000, ReservePercent: 5},
			Fuel:     &domain.Fuel{Level: 700, JumpRange: 500, JumpRangeMax: 500, Source: domain.FuelFromStats, UpdatedAt: now.Add(-time.Hour)},
			Docking:  &domain.DockingPermission{Access: domain.DockingAll},
			Services: []domain.Service{{Role: "Refuel", Activated: true, Enabled: true}, {Role: "Shipyard", Activated: true}},
			Jumps: []domain.Jump{{
				RequestedAt: now.Add(-time.Minute),
				Departure:   now.Add(14 * time.Minute),
				Destination: domain.Location{System: "Achenar", Body: "Achenar 3"},
			}},
			ActiveTrades: map[string]domain.TradeOrder{
				"gold":    {Commodity: "gold", SaleOrder: 50, Price: 40_000, SetAt: now.Add(-2 * time.Minute)},
				"tritium": {Commodity: "tritium", CommodityLocalised: "Tritium", PurchaseOrder: 1000, Price: 5000, SetAt: now.Add(-3 * time.Minute)},
			},
			StatsAt: now.Add(-time.Hour),
		},
		Evaluation: application.Evaluation{
			Status:      domain.StatusJumping,
			Remaining:   14*time.Minute + 300*time.Millisecond,
			Departure:   now.Add(14 * time.Minute),
			Current:     domain.Location{System: "Sol"},
			Destination: &domain.Location{System: "Achenar", Body: "Achenar 3"},
		},
		WeeklyUpkeep:    8_300_000,
		AverageJumpCost: 12_500,
		FundedUntil:     now.Add(365 * 24 * time.Hour),
	}
}

func TestExportWritesReport(t *testing.T) {
	t.Parallel()

	exporter, err := NewExporter(filepath.Join(t.TempDir(), "reports", "carriers.toml"))
	require.NoError(t, err)

	idle := application.CarrierView{
		Carrier:    domain.Carrier{ID: 2, Callsign: "XYZ-123"},
		Evaluation: application.Evaluation{Status: domain.StatusIdle, Current: domain.Location{System: "Sol"}},
	}
	require.NoError(t, exporter.Export(context.Background(), []application.CarrierView{sampleView(), idle}, now))

	report, err := exporter.readSchema()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, report.Version)
	assert.Equal(t, "2026-02-14T11:00:00Z", report.GeneratedAt)
	require.Len(t, report.Carriers, 2)

	first := report.Carriers[0]
	assert.Equal(t, int64(3700000001), first.ID)
	assert.Equal(t, "jumping", first.Status)
	assert.Equal(t, "14m0s", first.Remaining)
	assert.Equal(t, "Achenar", first.Destination)
	assert.Equal(t, ownerSchema{FID: "F1", Name: "Jameson", Credits: 1234}, first.Owner)
	require.NotNil(t, first.Finance)
	assert.Equal(t, int64(8_300_000), first.Finance.WeeklyUpkeep)
	assert.Equal(t, "2027-02-14T11:00:00Z", first.Finance.FundedUntil)
	require.NotNil(t, first.Fuel)
	assert.Equal(t, "stats", first.Fuel.Source)
	assert.Equal(t, []serviceSchema{{Role: "Refuel", State: "active"}, {Role: "Shipyard", State: "paused"}}, first.Services)
	require.Len(t, first.Trades, 2)
	assert.Equal(t, "tritium", first.Trades[0].Commodity)
	assert.Equal(t, "loading", first.Trades[0].Direction)
	assert.Equal(t, "gold", first.Trades[1].Name)
	assert.Equal(t, "unloading", first.Trades[1].Direction)
	require.Len(t, first.Jumps, 1)
	assert.Equal(t, "Achenar 3", first.Jumps[0].Body)

	second := report.Carriers[1]
	assert.Equal(t, "idle", second.Status)
	assert.Empty(t, second.Remaining)
	assert.Empty(t, second.Departure)
	assert.Nil(t, second.Finance)
	assert.Nil(t, second.Fuel)
}

func TestExportReplacesExistingReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "carriers.toml")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	exporter, err := NewExporter(path)
	require.NoError(t, err)
	require.NoError(t, exporter.Export(context.Background(), nil, now))

	report, err := exporter.readSchema()
	require.NoError(t, err)
	assert.Empty(t, report.Carriers)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestExportHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "carriers.toml")
	exporter, err := NewExporter(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, exporter.Export(ctx, []application.CarrierView{sampleView()}, now), context.Canceled)
	assert.NoFileExists(t, path)
}

func TestReadRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "carriers.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	exporter, err := NewExporter(path)
	require.NoError(t, err)

	_, err = exporter.readSchema()
	require.ErrorContains(t, err, "unsupported report schema version 99")
}

func TestNewExporterRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewExporter("")
	require.Error(t, err)
}
