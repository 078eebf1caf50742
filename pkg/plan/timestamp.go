package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimestampLayout is the on-disk form: local wall clock, no zone offset.
const TimestampLayout = "2006-01-02T15:04:05"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Timestamp is a wall-clock time with no zone. All values live in UTC
// internally so durations never shift across DST transitions.
type Timestamp struct {
	time.Time
}

// At builds a Timestamp from wall-clock fields.
func At(year int, month time.Month, day, hour, min int) Timestamp {
	return Timestamp{time.Date(year, month, day, hour, min, 0, 0, time.UTC)}
}

// WallClock drops the zone of t and keeps its wall-clock reading.
func WallClock(t time.Time) Timestamp {
	return Timestamp{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseTimestamp parses the accepted timestamp forms. RFC 3339 input keeps
// its wall-clock reading and drops the offset.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{t}, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return WallClock(t), nil
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q (want %s)", s, TimestampLayout)
}

// Add returns the timestamp shifted by d.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{t.Time.Add(d)}
}

// Before reports whether t is before u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Time.Before(u.Time)
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// MarshalYAML implements yaml.Marshaler.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimestamp(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// WeekLabel returns the ISO week label (e.g. "2026-W42") for t.
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekStart returns Monday 00:00 of an ISO week label.
func WeekStart(label string) (Timestamp, bool) {
	m := weekLabelRE.FindStringSubmatch(label)
	if m == nil {
		return Timestamp{}, false
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	// Jan 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	if y, w := monday.ISOWeek(); y != year || w != week {
		return Timestamp{}, false
	}
	return Timestamp{monday}, true
}

var weekLabelRE = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

var weekdayOffsets = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

// ParseInWeek accepts any ParseTimestamp form, or a day name and clock time
// such as "tue 14:30", resolved within the week that starts on monday.
func ParseInWeek(s string, monday Timestamp) (Timestamp, error) {
	if ts, err := ParseTimestamp(s); err == nil {
		return ts, nil
	}

	fields := strings.Fields(strings.ToLower(s))
	if len(fields) != 2 || len(fields[0]) < 3 {
		return Timestamp{}, fmt.Errorf("invalid time %q (want \"tue 14:30\" or %s)", s, TimestampLayout)
	}
	offset, ok := weekdayOffsets[fields[0][:3]]
	if !ok {
		return Timestamp{}, fmt.Errorf("unknown day %q", fields[0])
	}
	clock, err := time.Parse("15:04", fields[1])
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid clock time %q", fields[1])
	}
	day := monday.AddDate(0, 0, offset)
	return At(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute()), nil
}
