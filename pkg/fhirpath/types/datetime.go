package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateTime represents a FHIRPath datetime value.
type DateTime struct {
	year     int
	month    int
	day      int
	hour     int
	minute   int
	second   int
	millis   int
	tzOffset int  // timezone offset in minutes
	hasTZ    bool // whether timezone is specified
	precision DateTimePrecision
}

// DateTimePrecision indicates the precision of a datetime.
type DateTimePrecision int

const (
	DTYearPrecision DateTimePrecision = iota
	DTMonthPrecision
	DTDayPrecision
	DTHourPrecision
	DTMinutePrecision
	DTSecondPrecision
	DTMillisPrecision
)

// DateTime regex pattern
var dateTimePattern = regexp.MustCompile(
	`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2})(?::(\d{2})(?::(\d{2})(?:\.(\d+))?)?)?)?)?)?(Z|[+-]\d{2}:\d{2})?$`,
)

// NewDateTime creates a DateTime from a string.
func NewDateTime(s string) (DateTime, error) {
	matches := dateTimePattern.FindStringSubmatch(s)
	if matches == nil {
		return DateTime{}, fmt.Errorf("invalid datetime format: %s", s)
	}

	dt := DateTime{}
	precision := DTYearPrecision

	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid year in datetime: %s", s)
	}
	dt.year = year

	if matches[2] != "" {
		month, _ := strconv.Atoi(matches[2])
		dt.month = month
		precision = DTMonthPrecision
	}

	if matches[3] != "" {
		day, _ := strconv.Atoi(matches[3])
		dt.day = day
		precision = DTDayPrecision
	}

	if matches[4] != "" {
		hour, _ := strconv.Atoi(matches[4])
		dt.hour = hour
		precision = DTHourPrecision
	}

	if matches[5] != "" {
		minute, _ := strconv.Atoi(matches[5])
		dt.minute = minute
		precision = DTMinutePrecision
	}

	if matches[6] != "" {
		second, _ := strconv.Atoi(matches[6])
		dt.second = second
		precision = DTSecondPrecision
	}

	if matches[7] != "" {
		ms := matches[7]
		for len(ms) < 3 {
			ms += "0"
		}
		if len(ms) > 3 {
			ms = ms[:3]
		}
		millis, _ := strconv.Atoi(ms)
		dt.millis = millis
		precision = DTMillisPrecision
	}

	if matches[8] != "" {
		dt.hasTZ = true
		if matches[8] == "Z" {
			dt.tzOffset = 0
		} else {
			sign := 1
			if matches[8][0] == '-' {
				sign = -1
			}
			hours, err := strconv.Atoi(matches[8][1:3])
			if err != nil {
				return DateTime{}, fmt.Errorf("invalid timezone hours in datetime: %s", s)
			}
			mins, err := strconv.Atoi(matches[8][4:6])
			if err != nil {
				return DateTime{}, fmt.Errorf("invalid timezone minutes in datetime: %s", s)
			}
			dt.tzOffset = sign * (hours*60 + mins)
		}
	}

	dt.precision = precision
	return dt, nil
}

// NewDateTimeFromTime creates a DateTime from time.Time.
func NewDateTimeFromTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		year:      t.Year(),
		month:     int(t.Month()),
		day:       t.Day(),
		hour:      t.Hour(),
		minute:    t.Minute(),
		second:    t.Second(),
		millis:    t.Nanosecond() / 1000000,
		tzOffset:  offset / 60,
		hasTZ:     true,
		precision: DTMillisPrecision,
	}
}

// Type returns the type name.
func (dt DateTime) Type() string {
	return "DateTime"
}

// Equal checks equality with another value. Two DateTimes are Equal
// only when they have the same precision and agree on every field at
// that precision; values of different precisions are never Equal
// (callers needing the three-valued Empty result for an ambiguous
// mismatched-precision comparison use Compare, which returns an error
// in that case). Equal, used by set/collection membership (distinct,
// union, contains), stays a total function. When both values carry a
// timezone with different offsets, at hour precision or finer, they
// are compared as instants.
func (dt DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	if !ok {
		return false
	}
	if dt.precision != o.precision || dt.hasTZ != o.hasTZ {
		return false
	}
	if dt.hasTZ && dt.precision >= DTHourPrecision && dt.tzOffset != o.tzOffset {
		// Normalise to the instant when both carry a timezone, per
		// spec.md §3.2 ("comparisons across offsets normalise to the
		// instant").
		return dt.ToTime().Equal(o.ToTime())
	}
	if dt.year != o.year {
		return false
	}
	if dt.precision >= DTMonthPrecision && dt.month != o.month {
		return false
	}
	if dt.precision >= DTDayPrecision && dt.day != o.day {
		return false
	}
	if dt.precision >= DTHourPrecision && dt.hour != o.hour {
		return false
	}
	if dt.precision >= DTMinutePrecision && dt.minute != o.minute {
		return false
	}
	if dt.precision >= DTSecondPrecision && dt.second != o.second {
		return false
	}
	if dt.precision >= DTMillisPrecision && dt.millis != o.millis {
		return false
	}
	return true
}

// Equivalent checks equivalence with another value.
func (dt DateTime) Equivalent(other Value) bool {
	return dt.Equal(other)
}

// String returns the string representation.
func (dt DateTime) String() string {
	result := fmt.Sprintf("%04d", dt.year)

	if dt.precision >= DTMonthPrecision {
		result += fmt.Sprintf("-%02d", dt.month)
	}
	if dt.precision >= DTDayPrecision {
		result += fmt.Sprintf("-%02d", dt.day)
	}
	if dt.precision >= DTHourPrecision {
		result += fmt.Sprintf("T%02d", dt.hour)
	}
	if dt.precision >= DTMinutePrecision {
		result += fmt.Sprintf(":%02d", dt.minute)
	}
	if dt.precision >= DTSecondPrecision {
		result += fmt.Sprintf(":%02d", dt.second)
	}
	if dt.precision >= DTMillisPrecision {
		result += fmt.Sprintf(".%03d", dt.millis)
	}

	if dt.hasTZ {
		if dt.tzOffset == 0 {
			result += "Z"
		} else {
			sign := "+"
			offset := dt.tzOffset
			if offset < 0 {
				sign = "-"
				offset = -offset
			}
			result += fmt.Sprintf("%s%02d:%02d", sign, offset/60, offset%60)
		}
	}

	return result
}

// IsEmpty returns false for DateTime.
func (dt DateTime) IsEmpty() bool {
	return false
}

// ToTime converts to time.Time.
func (dt DateTime) ToTime() time.Time {
	month := dt.month
	if month == 0 {
		month = 1
	}
	day := dt.day
	if day == 0 {
		day = 1
	}

	var loc *time.Location
	if dt.hasTZ {
		loc = time.FixedZone("", dt.tzOffset*60)
	} else {
		loc = time.UTC
	}

	return time.Date(dt.year, time.Month(month), day, dt.hour, dt.minute, dt.second, dt.millis*1000000, loc)
}

// Accessors
func (dt DateTime) Year() int              { return dt.year }
func (dt DateTime) Month() int             { return dt.month }
func (dt DateTime) Day() int               { return dt.day }
func (dt DateTime) Hour() int              { return dt.hour }
func (dt DateTime) Minute() int            { return dt.minute }
func (dt DateTime) Second() int            { return dt.second }
func (dt DateTime) Millisecond() int       { return dt.millis }
func (dt DateTime) HasTimezone() bool      { return dt.hasTZ }
func (dt DateTime) TimezoneOffsetMinutes() int { return dt.tzOffset }
func (dt DateTime) Precision() DateTimePrecision { return dt.precision }

// AddDuration adds a duration (as Quantity with temporal unit) to the datetime.
// Supported units: year(s), month(s), week(s), day(s), hour(s), minute(s), second(s), millisecond(s).
func (dt DateTime) AddDuration(value int, unit string) DateTime {
	t := dt.ToTime()

	switch unit {
	case "year", "years", "'year'", "'years'", "a":
		t = t.AddDate(value, 0, 0)
	case "month", "months", "'month'", "'months'", "mo":
		t = t.AddDate(0, value, 0)
	case "week", "weeks", "'week'", "'weeks'", "wk":
		t = t.AddDate(0, 0, value*7)
	case "day", "days", "'day'", "'days'", "d":
		t = t.AddDate(0, 0, value)
	case "hour", "hours", "'hour'", "'hours'", "h":
		t = t.Add(time.Duration(value) * time.Hour)
	case "minute", "minutes", "'minute'", "'minutes'", "min":
		t = t.Add(time.Duration(value) * time.Minute)
	case "second", "seconds", "'second'", "'seconds'", "s":
		t = t.Add(time.Duration(value) * time.Second)
	case "millisecond", "milliseconds", "'millisecond'", "'milliseconds'", "ms":
		t = t.Add(time.Duration(value) * time.Millisecond)
	default:
		return dt
	}

	result := DateTime{
		year:      t.Year(),
		month:     int(t.Month()),
		day:       t.Day(),
		hour:      t.Hour(),
		minute:    t.Minute(),
		second:    t.Second(),
		millis:    t.Nanosecond() / 1000000,
		tzOffset:  dt.tzOffset,
		hasTZ:     dt.hasTZ,
		precision: dt.precision,
	}

	if dt.precision < DTMonthPrecision {
		result.month = 0
	}
	if dt.precision < DTDayPrecision {
		result.day = 0
	}
	if dt.precision < DTHourPrecision {
		result.hour = 0
	}
	if dt.precision < DTMinutePrecision {
		result.minute = 0
	}
	if dt.precision < DTSecondPrecision {
		result.second = 0
	}
	if dt.precision < DTMillisPrecision {
		result.millis = 0
	}

	return result
}

// SubtractDuration subtracts a duration from the datetime.
func (dt DateTime) SubtractDuration(value int, unit string) DateTime {
	return dt.AddDuration(-value, unit)
}

// Compare compares two datetimes. Returns -1, 0, or 1.
// Returns an error if precisions differ and comparison is ambiguous;
// callers map that error to Empty per spec.md §3.2.
func (dt DateTime) Compare(other Value) (int, error) {
	otherDT, ok := other.(DateTime)
	if !ok {
		return 0, fmt.Errorf("cannot compare DateTime with %s", other.Type())
	}

	if dt.precision != otherDT.precision {
		minPrecision := dt.precision
		if otherDT.precision < minPrecision {
			minPrecision = otherDT.precision
		}

		if dt.year != otherDT.year {
			if dt.year < otherDT.year {
				return -1, nil
			}
			return 1, nil
		}

		if minPrecision >= DTMonthPrecision {
			if dt.month != otherDT.month {
				if dt.month < otherDT.month {
					return -1, nil
				}
				return 1, nil
			}
		} else {
			return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
		}

		if minPrecision >= DTDayPrecision {
			if dt.day != otherDT.day {
				if dt.day < otherDT.day {
					return -1, nil
				}
				return 1, nil
			}
		} else {
			return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
		}

		if minPrecision >= DTHourPrecision {
			if dt.hour != otherDT.hour {
				if dt.hour < otherDT.hour {
					return -1, nil
				}
				return 1, nil
			}
		} else {
			return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
		}

		if minPrecision >= DTMinutePrecision {
			if dt.minute != otherDT.minute {
				if dt.minute < otherDT.minute {
					return -1, nil
				}
				return 1, nil
			}
		} else {
			return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
		}

		if minPrecision >= DTSecondPrecision {
			if dt.second != otherDT.second {
				if dt.second < otherDT.second {
					return -1, nil
				}
				return 1, nil
			}
		} else {
			return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
		}

		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}

	t1 := dt.ToTime()
	t2 := otherDT.ToTime()

	if t1.Before(t2) {
		return -1, nil
	}
	if t1.After(t2) {
		return 1, nil
	}
	return 0, nil
}
