package journal

import "time"

type envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

type carrierLocationRecord struct {
	CarrierID     int64  `json:"CarrierID"`
	StarSystem    string `json:"StarSystem"`
	SystemAddress int64  `json:"SystemAddress"`
	BodyID        int    `json:"BodyID"`
}

type jumpRequestRecord struct {
	CarrierID     int64      `json:"CarrierID"`
	SystemName    string     `json:"SystemName"`
	SystemAddress int64      `json:"SystemAddress"`
	Body          string     `json:"Body"`
	BodyID        int        `json:"BodyID"`
	DepartureTime *time.Time `json:"DepartureTime"`
}

type jumpCancelRecord struct {
	CarrierID int64 `json:"CarrierID"`
}

type statsRecord struct {
	CarrierID           int64   `json:"CarrierID"`
	Callsign            string  `json:"Callsign"`
	Name                string  `json:"Name"`
	DockingAccess       string  `json:"DockingAccess"`
	AllowNotorious      bool    `json:"AllowNotorious"`
	FuelLevel           int     `json:"FuelLevel"`
	JumpRangeCurr       float64 `json:"JumpRangeCurr"`
	JumpRangeMax        float64 `json:"JumpRangeMax"`
	PendingDecommission bool    `json:"PendingDecommission"`
	SpaceUsage          struct {
		TotalCapacity      int `json:"TotalCapacity"`
		Crew               int `json:"Crew"`
		Cargo              int `json:"Cargo"`
		CargoSpaceReserved int `json:"CargoSpaceReserved"`
		ShipPacks          int `json:"ShipPacks"`
		ModulePacks        int `json:"ModulePacks"`
		FreeSpace          int `json:"FreeSpace"`
	} `json:"SpaceUsage"`
	Finance struct {
		CarrierBalance   int64 `json:"CarrierBalance"`
		ReserveBalance   int64 `json:"ReserveBalance"`
		AvailableBalance int64 `json:"AvailableBalance"`
		ReservePercent   int   `json:"ReservePercent"`
	} `json:"Finance"`
	Crew []struct {
		CrewRole  string `json:"CrewRole"`
		Activated bool   `json:"Activated"`
		Enabled   bool   `json:"Enabled"`
		CrewName  string `json:"CrewName"`
	} `json:"Crew"`
}

type depositFuelRecord struct {
	CarrierID int64 `json:"CarrierID"`
	Amount    int   `json:"Amount"`
	Total     int   `json:"Total"`
}

type tradeOrderRecord struct {
	CarrierID          int64  `json:"CarrierID"`
	BlackMarket        bool   `json:"BlackMarket"`
	Commodity          string `json:"Commodity"`
	CommodityLocalised string `json:"Commodity_Localised"`
	PurchaseOrder      int    `json:"PurchaseOrder"`
	SaleOrder          int    `json:"SaleOrder"`
	CancelTrade        bool   `json:"CancelTrade"`
	Price              int64  `json:"Price"`
}

type carrierBuyRecord struct {
	CarrierID     int64  `json:"CarrierID"`
	Callsign      string `json:"Callsign"`
	Location      string `json:"Location"`
	SystemAddress int64  `json:"SystemAddress"`
	Price         int64  `json:"Price"`
	Variant       string `json:"Variant"`
}

type dockingPermissionRecord struct {
	CarrierID      int64  `json:"CarrierID"`
	DockingAccess  string `json:"DockingAccess"`
	AllowNotorious bool   `json:"AllowNotorious"`
}

type commanderRecord struct {
	FID  string `json:"FID"`
	Name string `json:"Name"`
}

type loadGameRecord struct {
	FID       string `json:"FID"`
	Commander string `json:"Commander"`
	Credits   int64  `json:"Credits"`
}
