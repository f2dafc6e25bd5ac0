package monitor

import (
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/breakerview/breakerview/pkg/common"
)

// Configured sets up the Lantern client from flags.
func Configured() *Lantern {
	l := newLantern()

	baseURL := lflag.String("lantern-url", l.baseURL, "Base URL of the Lantern current monitor API")
	user := lflag.String("lantern-user", "", "Lantern account email")
	password := lflag.String("lantern-password", "", "Lantern account password")
	timezone := lflag.String("lantern-timezone", "Local", "IANA timezone used for day/month/year boundaries")
	configTTL := lflag.Duration("lantern-config-ttl", l.configTTL, "How long to cache the panel/breaker config")
	interval := lflag.Duration("lantern-request-interval", 200*time.Millisecond, "Minimum time between requests to Lantern. 0 disables pacing.")
	timeout := lflag.Duration("lantern-timeout", time.Minute, "Timeout for a single request to Lantern")

	lflag.Do(func() {
		l.baseURL = *baseURL
		l.username = *user
		l.password = *password
		l.configTTL = *configTTL
		l.client = common.PacedHTTPClient(*timeout, *interval)

		loc, err := time.LoadLocation(*timezone)
		if err != nil {
			panic(fmt.Sprintf("invalid lantern-timezone (%s): %v", *timezone, err))
		}
		l.location = loc

		if err := l.Validate(); err != nil {
			panic(fmt.Sprintf("lantern validation failed: %v", err))
		}
	})

	return l
}
