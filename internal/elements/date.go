// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/antchfx/xmlquery"
)

var eightDigits = regexp.MustCompile(`^\d{8}$`)

// PubDate composes the YYYYMMDD string from an api:date node's year,
// month, and day children. A missing month or day defaults to 01. A
// missing or non-numeric component yields "".
func PubDate(date *xmlquery.Node) string {
	if date == nil {
		return ""
	}
	year, ok := dateComponent(ExtractField(date, "api:year"), 1000, 9999, "")
	if !ok {
		return ""
	}
	month, ok := dateComponent(ExtractField(date, "api:month"), 1, 12, "1")
	if !ok {
		return ""
	}
	day, ok := dateComponent(ExtractField(date, "api:day"), 1, 31, "1")
	if !ok {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", year, month, day)
}

func dateComponent(s string, lo, hi int, fallback string) (int, bool) {
	if s == "" {
		s = fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// YearOf returns the 4-digit year of an 8-digit date string, or "" when
// the string is not exactly eight digits.
func YearOf(date string) string {
	if !eightDigits.MatchString(date) {
		return ""
	}
	return date[:4]
}
