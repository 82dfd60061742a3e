package sunwindow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lysa-se/controller/pkg/timezone"
	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: time.Second * 10,
}

// Window is the daily sunrise/sunset interval in local 24 hour time. The
// lamp is on outside of it.
type Window struct {
	RiseHour   int
	RiseMinute int
	SetHour    int
	SetMinute  int
}

// Default is used on cold start and whenever a fetch fails.
var Default = Window{RiseHour: 5, RiseMinute: 45, SetHour: 19, SetMinute: 0}

// Provider fetches the window from the sunrise/sunset service once per
// day and caches it. Failure resets to Default, it never keeps the
// previous day's fetched value.
type Provider struct {
	URL      string
	resolver *timezone.Resolver

	mutex      sync.RWMutex
	window     Window
	fetchedDay int
}

func New(url string, resolver *timezone.Resolver) *Provider {
	return &Provider{
		URL:        url,
		resolver:   resolver,
		window:     Default,
		fetchedDay: -1,
	}
}

// Window returns the cached window for the current day.
func (p *Provider) Window() Window {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.window
}

// NeedsRefresh reports whether the daily fetch should run: on the first
// evaluation after start, or on the 00:01 tick of a day not fetched yet.
// A missed tick waits for the next day's tick, which bounds request
// volume to roughly one per day.
func (p *Provider) NeedsRefresh(day, hour, minute int) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if p.fetchedDay == -1 {
		return true
	}
	return hour == 0 && minute == 1 && p.fetchedDay != day
}

// Refresh fetches the window for the given epoch day. The day is marked
// consumed even when the fetch fails so a failure keeps the defaults
// until the following day's tick.
func (p *Provider) Refresh(ctx context.Context, day int) error {
	w, err := p.fetch(ctx, day)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.fetchedDay = day
	if err != nil {
		logrus.WithError(err).Warn("sunwindow: fetch failed, using default window")
		p.window = Default
		return err
	}
	p.window = w
	logrus.WithFields(logrus.Fields{
		"rise": fmt.Sprintf("%02d:%02d", w.RiseHour, w.RiseMinute),
		"set":  fmt.Sprintf("%02d:%02d", w.SetHour, w.SetMinute),
	}).Info("sunwindow: refreshed")
	return nil
}

type response struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
}

func (p *Provider) fetch(ctx context.Context, day int) (Window, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Window{}, err
	}
	req.Header.Set("Connection", "close")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Window{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Window{}, fmt.Errorf("sunwindow: StatusCode: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Window{}, fmt.Errorf("sunwindow: read body: %w", err)
	}

	// The service pads the body with transfer noise on some gateways,
	// clamp to the outermost json object before decoding.
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Window{}, fmt.Errorf("sunwindow: no json object in response")
	}

	r := response{}
	err = json.Unmarshal(body[start:end+1], &r)
	if err != nil {
		return Window{}, fmt.Errorf("sunwindow: decode: %w", err)
	}

	riseHour, riseMinute, err := parseEventUTC(r.Results.Sunrise)
	if err != nil {
		return Window{}, err
	}
	setHour, setMinute, err := parseEventUTC(r.Results.Sunset)
	if err != nil {
		return Window{}, err
	}

	// Hours go through the offset correction. Minutes are kept as
	// delivered in UTC, the upstream zone is whole hour aligned.
	return Window{
		RiseHour:   p.resolver.LocalHour(ctx, riseHour, day),
		RiseMinute: riseMinute,
		SetHour:    p.resolver.LocalHour(ctx, setHour, day),
		SetMinute:  setMinute,
	}, nil
}

// parseEventUTC extracts the UTC clock time from a
// "2006-01-02T15:04:05+00:00" timestamp. When the timestamp does not
// parse as a whole, the fixed character offsets of the documented layout
// are used as fallback.
func parseEventUTC(s string) (hour, minute int, err error) {
	t, perr := time.Parse("2006-01-02T15:04:05-07:00", s)
	if perr == nil {
		utc := t.UTC()
		return utc.Hour(), utc.Minute(), nil
	}

	if len(s) < 16 {
		return 0, 0, fmt.Errorf("sunwindow: malformed timestamp %q", s)
	}
	hour, err = strconv.Atoi(s[11:13])
	if err != nil {
		return 0, 0, fmt.Errorf("sunwindow: hour in %q: %w", s, err)
	}
	minute, err = strconv.Atoi(s[14:16])
	if err != nil {
		return 0, 0, fmt.Errorf("sunwindow: minute in %q: %w", s, err)
	}
	return hour, minute, nil
}
