package helpers

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimestampSource records which shape a timestamp was resolved from.
type TimestampSource int

const (
	SourceNone TimestampSource = iota
	SourceTime
	SourceNative
	SourceEpoch
	SourceString
	SourceDateOnly
)

// Timestamp is the resolved form of every timestamp shape found in documents.
// Resolve once at the normalization boundary; downstream code only reads Time.
type Timestamp struct {
	Time   time.Time
	Source TimestampSource
}

func (t Timestamp) Valid() bool { return t.Source != SourceNone }

// Ptr returns nil for an unresolved timestamp.
func (t Timestamp) Ptr() *time.Time {
	if !t.Valid() {
		return nil
	}
	tm := t.Time
	return &tm
}

// dater is satisfied by store-native wrappers that convert themselves to a time.
type dater interface {
	ToDate() time.Time
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"01/02/2006 15:04",
}

var dateOnlyLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ResolveTimestamp resolves v in a fixed order of preference: an explicit time,
// a store-native timestamp, a numeric epoch in milliseconds, a parseable date-time
// string, a date-only string at local midnight. Anything else is unresolved.
func ResolveTimestamp(v interface{}) Timestamp {
	if v == nil {
		return Timestamp{}
	}
	if t, ok := explicitTime(v); ok {
		return Timestamp{Time: t, Source: SourceTime}
	}
	if t, ok := nativeTime(v); ok {
		return Timestamp{Time: t, Source: SourceNative}
	}
	if ms, ok := epochMillis(v); ok {
		return Timestamp{Time: time.UnixMilli(ms), Source: SourceEpoch}
	}
	s, ok := v.(string)
	if !ok {
		return Timestamp{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t, Source: SourceString}
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t, Source: SourceDateOnly}
		}
	}
	return Timestamp{}
}

// NormalizeTimestamp is ResolveTimestamp for record fields that hold a nullable time.
func NormalizeTimestamp(v interface{}) *time.Time {
	return ResolveTimestamp(v).Ptr()
}

func explicitTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

func nativeTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time(), true
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0), true
	case dater:
		return t.ToDate(), true
	}
	// Exported snapshots carry {seconds, nanoseconds} or {_seconds, _nanoseconds}.
	m, ok := ToMap(v)
	if !ok {
		return time.Time{}, false
	}
	secRaw, ok := FirstPresent(bson.M(m), "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	sec, ok := ToNumber(secRaw)
	if !ok {
		return time.Time{}, false
	}
	var nanos float64
	if nRaw, ok := FirstPresent(bson.M(m), "nanoseconds", "_nanoseconds"); ok {
		nanos, _ = ToNumber(nRaw)
	}
	return time.Unix(int64(sec), int64(nanos)), true
}

func epochMillis(v interface{}) (int64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	f, ok := ToNumber(v)
	if !ok || math.Abs(f) > 8.64e15 {
		return 0, false
	}
	return int64(f), true
}
