package instance

import "github.com/itqan-platform/itqan-backend/pkg/env"

// GetID returns the process instance identifier: an explicit override, the
// platform dyno name, the container hostname, or "local".
func GetID() string {
	return env.FirstOf("local", "ITQAN_INSTANCE_ID", "DYNO", "HOSTNAME")
}
