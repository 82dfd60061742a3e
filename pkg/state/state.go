package state

import "sync/atomic"

// Cells holds the two single word values shared between the control loop
// and the override edge handler. Each field is written with one
// indivisible store and the loop re-reads Override at the top of every
// cycle instead of caching it.
type Cells struct {
	relay    atomic.Bool
	override atomic.Bool
}

func (c *Cells) SetRelay(on bool) {
	c.relay.Store(on)
}

func (c *Cells) Relay() bool {
	return c.relay.Load()
}

func (c *Cells) SetOverride(engaged bool) {
	c.override.Store(engaged)
}

func (c *Cells) Override() bool {
	return c.override.Load()
}

// Report is one cycle's snapshot, published as metrics to the broker.
type Report struct {
	Relay    *bool   `json:"relay,omitempty"`
	Override *bool   `json:"override,omitempty"`
	Time     *string `json:"time,omitempty"`
	Daylight *bool   `json:"daylightSavings,omitempty"`

	SunriseHour   *int `json:"sunriseHour,omitempty"`
	SunriseMinute *int `json:"sunriseMinute,omitempty"`
	SunsetHour    *int `json:"sunsetHour,omitempty"`
	SunsetMinute  *int `json:"sunsetMinute,omitempty"`

	LampPower  *float64 `json:"lampPower,omitempty"`
	LampEnergy *float64 `json:"lampEnergy,omitempty"`

	Alarms []string `json:"alarms,omitempty"`
}

func (r Report) Map() map[string]interface{} {
	m := make(map[string]interface{})
	if r.Relay != nil {
		m["relay"] = boolToInt(*r.Relay)
	}
	if r.Override != nil {
		m["override"] = boolToInt(*r.Override)
	}
	if r.Time != nil {
		m["time"] = *r.Time
	}
	if r.Daylight != nil {
		m["daylightSavings"] = boolToInt(*r.Daylight)
	}
	if r.SunriseHour != nil {
		m["sunriseHour"] = *r.SunriseHour
	}
	if r.SunriseMinute != nil {
		m["sunriseMinute"] = *r.SunriseMinute
	}
	if r.SunsetHour != nil {
		m["sunsetHour"] = *r.SunsetHour
	}
	if r.SunsetMinute != nil {
		m["sunsetMinute"] = *r.SunsetMinute
	}
	if r.LampPower != nil {
		m["lampPower"] = *r.LampPower
	}
	if r.LampEnergy != nil {
		m["lampEnergy"] = *r.LampEnergy
	}
	if len(r.Alarms) > 0 {
		m["alarms"] = r.Alarms
	}

	return m
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
