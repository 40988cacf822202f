package connection

import "time"

// DefaultStrategies is the catalogue handed to a client on first
// contact; per-plan narrowing happens on the desktop side.
var DefaultStrategies = []string{
	"Scalping Pro",
	"Trend Following",
	"Mean Reversion",
	"Breakout Strategy",
	"Grid Trading",
}

const DefaultPlanName = "Basic"

// Connection is the presence row a running desktop client maintains via
// heartbeats. Not part of the cryptographic trust chain; gated only on
// an active registration.
type Connection struct {
	HWID                string    `db:"hwid"`
	PlanName            string    `db:"plan_name"`
	StrategiesActive    []string  `db:"strategies_active"`
	StrategiesAvailable []string  `db:"strategies_available"`
	Online              bool      `db:"online"`
	LastSeen            time.Time `db:"last_seen"`
	UpdatedAt           time.Time `db:"updated_at"`
}
