package funcs

import (
	"time"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "year", MinArgs: 0, MaxArgs: 0, Fn: fnYear})
	Register(FuncDef{Name: "month", MinArgs: 0, MaxArgs: 0, Fn: fnMonth})
	Register(FuncDef{Name: "day", MinArgs: 0, MaxArgs: 0, Fn: fnDay})
	Register(FuncDef{Name: "hour", MinArgs: 0, MaxArgs: 0, Fn: fnHour})
	Register(FuncDef{Name: "minute", MinArgs: 0, MaxArgs: 0, Fn: fnMinute})
	Register(FuncDef{Name: "second", MinArgs: 0, MaxArgs: 0, Fn: fnSecond})
	Register(FuncDef{Name: "millisecond", MinArgs: 0, MaxArgs: 0, Fn: fnMillisecond})
	Register(FuncDef{Name: "now", MinArgs: 0, MaxArgs: 0, Fn: fnNow})
	Register(FuncDef{Name: "today", MinArgs: 0, MaxArgs: 0, Fn: fnToday})
	Register(FuncDef{Name: "timeOfDay", MinArgs: 0, MaxArgs: 0, Fn: fnTimeOfDay})
}

// datePartHolder is satisfied by Date and DateTime, which both expose the
// calendar fields year/month() takes components from.
type datePartHolder interface {
	Year() int
	Month() int
	Day() int
}

// timePartHolder is satisfied by DateTime and Time, which both expose the
// clock fields hour()/minute()/second()/millisecond() take components from.
type timePartHolder interface {
	Hour() int
	Minute() int
	Second() int
	Millisecond() int
}

// dateComponent extracts a calendar field from the focus Date or DateTime,
// returning empty for any other type or, unless zeroIsValid, when part()
// reports the field was never set on a partial Date (e.g. "2024" has no
// month or day, but year 0 is a genuine - if unusual - value).
func dateComponent(input types.Collection, part func(datePartHolder) int, zeroIsValid bool) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	holder, ok := input[0].(datePartHolder)
	if !ok {
		return types.Collection{}, nil
	}
	if n := part(holder); zeroIsValid || n != 0 {
		return types.Collection{types.NewInteger(int64(n))}, nil
	}
	return types.Collection{}, nil
}

// timeComponent extracts a clock field from the focus DateTime or Time.
// Unlike date components, clock fields have no "unset" sentinel to guard
// against - 0 is a legitimate hour/minute/second/millisecond value.
func timeComponent(input types.Collection, part func(timePartHolder) int) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	holder, ok := input[0].(timePartHolder)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(part(holder)))}, nil
}

func fnYear(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return dateComponent(input, datePartHolder.Year, true)
}

func fnMonth(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return dateComponent(input, datePartHolder.Month, false)
}

func fnDay(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return dateComponent(input, datePartHolder.Day, false)
}

func fnHour(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return timeComponent(input, timePartHolder.Hour)
}

func fnMinute(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return timeComponent(input, timePartHolder.Minute)
}

func fnSecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return timeComponent(input, timePartHolder.Second)
}

func fnMillisecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return timeComponent(input, timePartHolder.Millisecond)
}

// fnNow returns the current instant as a DateTime. Evaluations that need a
// stable "now" across a whole expression get it from ctx instead; this
// built-in always reflects wall-clock time at the point of the call.
func fnNow(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewDateTimeFromTime(time.Now())}, nil
}

func fnToday(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewDateFromTime(time.Now())}, nil
}

func fnTimeOfDay(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.NewTimeFromGoTime(time.Now())}, nil
}
