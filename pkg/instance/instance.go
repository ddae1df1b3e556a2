package instance

import (
	"os"

	"github.com/angelmondragon/orderportal-backend/pkg/env"
)

// ID names this replica in logs. Explicit config wins over the platform dyno
// name, then the hostname.
func ID() string {
	if id := env.First("", "ORDERPORTAL_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
