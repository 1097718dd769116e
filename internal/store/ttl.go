package store

import (
	"regexp"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var ttlPattern = regexp.MustCompile(`^(\d+)([wdhms])$`)

var ttlUnits = map[string]time.Duration{
	"w": 7 * 24 * time.Hour,
	"d": 24 * time.Hour,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// ParseTTL parses a lifetime such as "2w", "7d", "24h", "30m" or "60s".
func ParseTTL(s string) (time.Duration, error) {
	m := ttlPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, goerr.New("invalid ttl, use e.g. 7d, 24h, 30m, 60s", goerr.V("ttl", s))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, goerr.Wrap(err, "invalid ttl count", goerr.V("ttl", s))
	}
	return time.Duration(n) * ttlUnits[m[2]], nil
}

// ExpiryFromTTL returns now+ttl, or nil for an empty ttl.
func ExpiryFromTTL(now time.Time, ttl string) (*time.Time, error) {
	if ttl == "" {
		return nil, nil
	}
	d, err := ParseTTL(ttl)
	if err != nil {
		return nil, err
	}
	t := now.UTC().Add(d)
	return &t, nil
}
