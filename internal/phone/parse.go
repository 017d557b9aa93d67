// Package phone validates and normalizes free-text telephone attributes.
//
// The low-level grammar is delegated to libphonenumber (via
// github.com/nyaruka/phonenumbers) behind the Parser interface. Everything
// else in this package (extensions, phonewords, messaging links, exclusion
// overrides, field-level aggregation) is built on top of it.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NumberType is the coarse classification this pipeline cares about.
type NumberType int

const (
	TypeUnknown NumberType = iota
	TypeFixedLine
	TypeMobile
	TypeFixedLineOrMobile
	TypeTollFree
	TypeOther
)

// Parsed is the outcome of one parse attempt. A failed parse is represented
// by Valid=false with zero values, never by an error: the parsing service
// must degrade gracefully on garbage input.
type Parsed struct {
	Valid          bool
	Type           NumberType
	NationalNumber string
	CountryCode    int
	Region         string
	International  string
	National       string
	E164           string
}

// IsMobileCompatible reports whether the number may live in a mobile-only
// field. Shared fixed/mobile ranges are accepted.
func (p Parsed) IsMobileCompatible() bool {
	return p.Type == TypeMobile || p.Type == TypeFixedLineOrMobile
}

// Parser is the external number-parsing service: parse, validate and format
// one number string given an ISO country hint.
type Parser interface {
	Parse(text, country string) Parsed
}

// NewParser returns the libphonenumber-backed Parser.
func NewParser() Parser {
	return libParser{}
}

type libParser struct{}

func (libParser) Parse(text, country string) Parsed {
	num, err := phonenumbers.Parse(text, country)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return Parsed{}
	}

	return Parsed{
		Valid:          true,
		Type:           mapNumberType(phonenumbers.GetNumberType(num)),
		NationalNumber: strconv.FormatUint(num.GetNationalNumber(), 10),
		CountryCode:    int(num.GetCountryCode()),
		Region:         phonenumbers.GetRegionCodeForNumber(num),
		International:  phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
		National:       phonenumbers.Format(num, phonenumbers.NATIONAL),
		E164:           phonenumbers.Format(num, phonenumbers.E164),
	}
}

func mapNumberType(t phonenumbers.PhoneNumberType) NumberType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return TypeFixedLine
	case phonenumbers.MOBILE:
		return TypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return TypeFixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return TypeTollFree
	case phonenumbers.UNKNOWN:
		return TypeUnknown
	default:
		return TypeOther
	}
}

// RegionCallingCode returns the country calling code for an ISO region, or 0
// if the region is unknown.
func RegionCallingCode(region string) int {
	return phonenumbers.GetCountryCodeForRegion(region)
}

// CanonicalFormat renders the canonical text for a parsed number: the
// international format, with every space replaced by a dash for North
// American Numbering Plan members ("+1-213-373-1234").
func CanonicalFormat(p Parsed) string {
	if p.CountryCode == 1 {
		return strings.ReplaceAll(p.International, " ", "-")
	}
	return p.International
}
