package timezone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: time.Second * 10,
}

// Policy is the daylight saving answer from the offset service. Unknown
// covers a failed or unrecognized lookup and falls back to the daylight
// offset.
type Policy int

const (
	Unknown Policy = iota
	Standard
	Daylight
)

func (p Policy) String() string {
	switch p {
	case Standard:
		return "standard"
	case Daylight:
		return "daylight"
	}
	return "unknown"
}

// Offset returns the hours to subtract from UTC.
func (p Policy) Offset() int {
	if p == Standard {
		return 8
	}
	return 7 // Daylight; Unknown defaults to the same.
}

// Resolver queries the external offset service and corrects UTC hours to
// local hours. Successful lookups are cached for the day, the offset does
// not change intra day. Failures are not cached so the next call retries.
type Resolver struct {
	URL string

	mutex     sync.Mutex
	cached    Policy
	cachedDay int
}

func New(url string) *Resolver {
	return &Resolver{
		URL:       url,
		cachedDay: -1,
	}
}

// Policy returns the DST policy for the given epoch day.
func (r *Resolver) Policy(ctx context.Context, day int) Policy {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.cachedDay == day {
		return r.cached
	}
	p, err := r.query(ctx)
	if err != nil {
		logrus.WithError(err).Warn("timezone: lookup failed, using default offset")
		return Unknown
	}
	if p != Unknown {
		r.cached = p
		r.cachedDay = day
	}
	return p
}

// Cached returns the last successful lookup without querying, Unknown
// before the first success.
func (r *Resolver) Cached() Policy {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.cachedDay == -1 {
		return Unknown
	}
	return r.cached
}

// LocalHour corrects a UTC hour (0-23) into the local hour (0-23) for the
// given epoch day. Only the 17:00-23:59 UTC range can underflow with
// offsets up to 8, so a single wraparound is enough.
func (r *Resolver) LocalHour(ctx context.Context, utcHour, day int) int {
	local := utcHour - r.Policy(ctx, day).Offset()
	if local < 0 {
		local += 24
	}
	return local
}

func (r *Resolver) query(ctx context.Context) (Policy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return Unknown, err
	}
	req.Header.Set("Connection", "close")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Unknown, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Unknown, fmt.Errorf("timezone: StatusCode: %d", resp.StatusCode)
	}

	body := struct {
		DST string `json:"dst"`
	}{}
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return Unknown, fmt.Errorf("timezone: decode: %w", err)
	}

	switch body.DST {
	case "1":
		return Daylight, nil
	case "0":
		return Standard, nil
	}
	logrus.Warnf("timezone: unrecognized dst value %q", body.DST)
	return Unknown, nil
}
