package der

import "time"

const (
	generalizedTimeLayout = "20060102150405Z"
	utcTimeLayout         = "060102150405Z"
)

// NewGeneralizedTime builds a universal GeneralizedTime in the
// YYYYMMDDHHMMSSZ form (no fractional seconds, UTC only), truncating to
// whole seconds as spec.md requires for producedAt/thisUpdate/nextUpdate.
func NewGeneralizedTime(t time.Time) *Element {
	s := t.UTC().Truncate(time.Second).Format(generalizedTimeLayout)
	return &Element{Class: ClassUniversal, Tag: TagGeneralizedTime, Value: []byte(s)}
}

// NewUTCTime builds a universal UTCTime in the YYMMDDHHMMSSZ form, used by
// CRL thisUpdate/nextUpdate and revocationDate fields per RFC 5280.
func NewUTCTime(t time.Time) *Element {
	s := t.UTC().Truncate(time.Second).Format(utcTimeLayout)
	return &Element{Class: ClassUniversal, Tag: TagUTCTime, Value: []byte(s)}
}

// Time decodes a GeneralizedTime or UTCTime element to an instant, with
// microsecond truncation as spec.md's codec contract describes.
func (e *Element) Time() (time.Time, error) {
	switch e.Tag {
	case TagGeneralizedTime:
		if e.Class != ClassUniversal {
			break
		}
		t, err := time.Parse(generalizedTimeLayout, string(e.Value))
		if err != nil {
			return time.Time{}, decodeErrorf(0, "invalid GeneralizedTime: %v", err)
		}
		return t.UTC().Truncate(time.Microsecond), nil
	case TagUTCTime:
		if e.Class != ClassUniversal {
			break
		}
		t, err := time.Parse(utcTimeLayout, string(e.Value))
		if err != nil {
			return time.Time{}, decodeErrorf(0, "invalid UTCTime: %v", err)
		}
		return normalizeUTCTimeYear(t).Truncate(time.Microsecond), nil
	}
	return time.Time{}, decodeErrorf(0, "not a time element")
}

// normalizeUTCTimeYear applies the RFC 5280 rule for two-digit UTCTime
// years: YY >= 50 means 19YY, otherwise 20YY.
func normalizeUTCTimeYear(t time.Time) time.Time {
	yy := t.Year() % 100
	var year int
	if yy >= 50 {
		year = 1900 + yy
	} else {
		year = 2000 + yy
	}
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
