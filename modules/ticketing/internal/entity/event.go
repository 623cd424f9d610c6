package entity

import (
	"time"

	"github.com/gatepass-network/boxoffice/common"
)

// Event is one registered event. Tier configurations are declared at
// registration and instantiated as live pricing cores at launch; LaunchedAt
// stays zero until then.
type Event struct {
	EventID      uint64
	Organizer    common.Address
	Name         string
	Venue        string
	MetadataURI  string
	TierConfigs  []TierConfig
	RegisteredAt time.Time
	LaunchedAt   time.Time
}

func (e Event) Launched() bool {
	return !e.LaunchedAt.IsZero()
}

// TierConfig is a declared tier as submitted by the organizer. Intervals are
// whole seconds on the wire; entities carry them as durations.
type TierConfig struct {
	Name                string
	Symbol              string
	TotalTickets        uint64
	BasePrice           uint64
	InitialPrice        uint64
	StartTime           time.Time
	EndTime             time.Time
	PriceUpdateInterval time.Duration
	DecayPercentage     uint64
	SalesTimeInterval   time.Duration
}
