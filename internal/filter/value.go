package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a typed scalar read from a record or parsed from a filter
// element. Dates are civil days at UTC midnight and times are offsets from
// midnight truncated to the second.
type Value struct {
	kind ValueType
	str  string
	num  int64
	at   time.Time
	tod  time.Duration
	flag bool
}

// Text wraps a string value.
func Text(s string) Value { return Value{kind: TypeText, str: s} }

// Number wraps an integer value.
func Number(n int64) Value { return Value{kind: TypeNumber, num: n} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: TypeBool, flag: b} }

// Date keeps only the calendar day of t.
func Date(t time.Time) Value {
	return Value{kind: TypeDate, at: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// TimeOfDay keeps only the wall-clock time of t.
func TimeOfDay(t time.Time) Value {
	d := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return Value{kind: TypeTime, tod: d}
}

// String renders the value as the text that Contains, regex and list
// operators match against.
func (v Value) String() string {
	switch v.kind {
	case TypeNumber:
		return strconv.FormatInt(v.num, 10)
	case TypeBool:
		return strconv.FormatBool(v.flag)
	case TypeDate:
		return v.at.Format("2006-01-02")
	case TypeTime:
		h := int(v.tod / time.Hour)
		m := int(v.tod % time.Hour / time.Minute)
		s := int(v.tod % time.Minute / time.Second)
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return v.str
}

// Compare orders two values of the same kind. Values of different kinds
// compare by their string form.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return strings.Compare(v.String(), o.String())
	}
	switch v.kind {
	case TypeNumber:
		return cmpInt(v.num, o.num)
	case TypeDate:
		return v.at.Compare(o.at)
	case TypeTime:
		return cmpInt(int64(v.tod), int64(o.tod))
	case TypeBool:
		switch {
		case v.flag == o.flag:
			return 0
		case !v.flag:
			return -1
		}
		return 1
	}
	return strings.Compare(v.str, o.str)
}

// Equal reports whether two values are the same.
func (v Value) Equal(o Value) bool { return v.Compare(o) == 0 }

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseValue converts the literal of a filter element into a Value of the
// attribute's declared type.
func ParseValue(typ ValueType, raw string) (Value, error) {
	switch typ {
	case TypeText, TypeSelect:
		return Text(raw), nil
	case TypeNumber:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a whole number", raw)
		}
		return Number(n), nil
	case TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("%q is not true or false", raw)
		}
		return Bool(b), nil
	case TypeDate:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a date (YYYY-MM-DD)", raw)
		}
		return Date(t), nil
	case TypeTime:
		s := strings.TrimSpace(raw)
		for _, layout := range []string{"15:04:05", "15:04"} {
			if t, err := time.Parse(layout, s); err == nil {
				return TimeOfDay(t), nil
			}
		}
		return Value{}, fmt.Errorf("%q is not a time (HH:MM[:SS])", raw)
	}
	return Value{}, fmt.Errorf("unknown value type %d", typ)
}
