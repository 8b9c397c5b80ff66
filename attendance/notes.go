package attendance

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NoteSeparator splits the category keyword from the hour value in a legacy
// overtime note, e.g. "weekend:3".
const NoteSeparator = ":"

// Leading number of the value part; trailing text such as "h" is ignored.
var leadingNumber = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)

// ParseOvertimeNote decodes the free-text overtime annotation written by the
// attendance screens. The category is the first keyword found (weekday, then
// weekend, then holiday, case-insensitive) and the hours are the number that
// follows the first separator. ok is false when either part is missing or the
// number does not parse; callers treat that as zero hours.
func ParseOvertimeNote(notes string) (entry OvertimeEntry, ok bool) {
	lower := strings.ToLower(notes)

	var category OvertimeCategory
	for _, c := range OvertimeCategories() {
		if strings.Contains(lower, string(c)) {
			category = c
			break
		}
	}
	if category == "" {
		return OvertimeEntry{}, false
	}

	_, value, found := strings.Cut(notes, NoteSeparator)
	if !found {
		return OvertimeEntry{}, false
	}
	m := leadingNumber.FindStringSubmatch(value)
	if m == nil {
		return OvertimeEntry{}, false
	}
	hours, err := decimal.NewFromString(m[1])
	if err != nil {
		return OvertimeEntry{}, false
	}
	return OvertimeEntry{Category: category, Hours: hours}, true
}

// FormatOvertimeNote is the inverse of ParseOvertimeNote.
func FormatOvertimeNote(e OvertimeEntry) string {
	return string(e.Category) + NoteSeparator + e.Hours.String()
}
