package schedule

import "github.com/lysa-se/controller/pkg/sunwindow"

// Night reports whether the lamp should be energized at the given local
// time: before or at sunrise, or at or after sunset. Both boundaries are
// inclusive and the minute comparison only applies at the exact boundary
// hour.
func Night(hour, minute int, w sunwindow.Window) bool {
	beforeRise := (hour == w.RiseHour && minute <= w.RiseMinute) || hour < w.RiseHour
	afterSet := (hour == w.SetHour && minute >= w.SetMinute) || hour > w.SetHour
	return beforeRise || afterSet
}
