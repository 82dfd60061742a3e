package clock

import "fmt"

// LocalTime is one synchronization result: the offset corrected 24 hour
// clock plus its 12 hour display form. Hour and Minute are -1 when the
// synchronization failed; such a value must never be fed to the schedule.
type LocalTime struct {
	Display string
	Hour    int
	Minute  int
}

// Sentinel is the LocalTime produced when the time source did not answer.
func Sentinel() LocalTime {
	return LocalTime{Display: "Time Error", Hour: -1, Minute: -1}
}

func (t LocalTime) Valid() bool {
	return t.Hour >= 0 && t.Minute >= 0
}

func New(hour, minute int) LocalTime {
	return LocalTime{
		Display: Format12(hour, minute),
		Hour:    hour,
		Minute:  minute,
	}
}

// UTC splits unix epoch seconds into the UTC hour and minute of day.
func UTC(epoch int64) (hour, minute int) {
	secs := epoch % 86400
	return int(secs / 3600), int(secs % 3600 / 60)
}

// Day returns the day index since the unix epoch, used for the once per
// day triggers.
func Day(epoch int64) int {
	return int(epoch / 86400)
}

// Format12 renders a 24 hour time as "H:MM AM|PM". Hour 0 displays as 12
// and is AM, hours 1-12 display unchanged, 13-23 drop 12. Minutes are zero
// padded.
func Format12(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour
	if h > 12 {
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}
