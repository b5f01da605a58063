package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/hub"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/workspace"
)

// StoreProbe is what health endpoints need from the entry store
type StoreProbe interface {
	Name() string
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to reach admin endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	APIToken     string           // optional shared secret for X-Daylog-Token
	RateBurst    int
	RatePerMin   int

	Store         StoreProbe
	Workspaces    *workspace.Registry
	Hub           *hub.Hub
	ImportTrigger chan struct{} // nil when no archive file is configured
}

// Now returns TimeNow() when set, time.Now() otherwise
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
