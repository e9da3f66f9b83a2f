package tax

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// Jurisdiction is the region whose sales tax applies to an event.
type Jurisdiction struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	Code    string `json:"code"`
}

const DefaultCode = "CA-ON"

var provinces = map[string]string{
	"AB": "alberta",
	"BC": "british columbia",
	"MB": "manitoba",
	"NB": "new brunswick",
	"NL": "newfoundland and labrador",
	"NS": "nova scotia",
	"NT": "northwest territories",
	"NU": "nunavut",
	"ON": "ontario",
	"PE": "prince edward island",
	"QC": "quebec",
	"SK": "saskatchewan",
	"YT": "yukon",
}

var states = map[string]string{
	"AL": "alabama", "AK": "alaska", "AZ": "arizona", "AR": "arkansas", "CA": "california",
	"CO": "colorado", "CT": "connecticut", "DE": "delaware", "DC": "district of columbia",
	"FL": "florida", "GA": "georgia", "HI": "hawaii", "ID": "idaho", "IL": "illinois",
	"IN": "indiana", "IA": "iowa", "KS": "kansas", "KY": "kentucky", "LA": "louisiana",
	"ME": "maine", "MD": "maryland", "MA": "massachusetts", "MI": "michigan", "MN": "minnesota",
	"MS": "mississippi", "MO": "missouri", "MT": "montana", "NE": "nebraska", "NV": "nevada",
	"NH": "new hampshire", "NJ": "new jersey", "NM": "new mexico", "NY": "new york",
	"NC": "north carolina", "ND": "north dakota", "OH": "ohio", "OK": "oklahoma", "OR": "oregon",
	"PA": "pennsylvania", "RI": "rhode island", "SC": "south carolina", "SD": "south dakota",
	"TN": "tennessee", "TX": "texas", "UT": "utah", "VT": "vermont", "VA": "virginia",
	"WA": "washington", "WV": "west virginia", "WI": "wisconsin", "WY": "wyoming",
}

type regionName struct {
	name    string
	country string
	code    string
}

// regionNames is longest first so "west virginia" wins over "virginia".
var regionNames = func() []regionName {
	var out []regionName
	for code, name := range provinces {
		out = append(out, regionName{name, "CA", code})
	}
	for code, name := range states {
		out = append(out, regionName{name, "US", code})
	}
	slices.SortFunc(out, func(a, b regionName) int {
		if c := cmp.Compare(len(b.name), len(a.name)); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return out
}()

var (
	canadianPostal = regexp.MustCompile(`(?i)\b[A-Z]\d[A-Z]\s?\d[A-Z]\d\b`)
	usZip          = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)
	tokenSplit     = regexp.MustCompile(`[\s,]+`)
)

// Resolve reads the region out of a free-form location such as "Toronto, ON M5V 2T6" or
// "Vancouver, British Columbia, Canada". It falls back to fallback (or CA-ON) when nothing
// matches. CA is read as California only when a ZIP code or "USA" says so, since both
// lists would otherwise compete for it.
func Resolve(location, fallback string) Jurisdiction {
	loc := strings.TrimSpace(location)
	if loc != "" {
		if j, ok := resolve(loc); ok {
			return j
		}
	}
	if j, ok := ParseCode(fallback); ok {
		return j
	}
	j, _ := ParseCode(DefaultCode)
	return j
}

func resolve(loc string) (Jurisdiction, bool) {
	lower := strings.ToLower(loc)
	inUS := usZip.MatchString(loc) || containsWord(lower, "usa") || strings.Contains(lower, "united states")
	inCanada := canadianPostal.MatchString(loc) || containsWord(lower, "canada")

	for _, r := range regionNames {
		if (r.country == "CA" && inUS) || (r.country == "US" && inCanada) {
			continue
		}
		if containsPhrase(lower, r.name) {
			return jurisdiction(r.country, r.code), true
		}
	}

	// Then two-letter codes, scanning from the end where addresses put the region. Only
	// uppercase tokens count so prose like "party in the park" isn't read as Indiana.
	tokens := tokenSplit.Split(loc, -1)
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := strings.Trim(tokens[i], ".")
		if len(tok) != 2 || tok != strings.ToUpper(tok) {
			continue
		}
		if _, ok := provinces[tok]; ok && !inUS {
			return jurisdiction("CA", tok), true
		}
		if _, ok := states[tok]; ok && !inCanada {
			return jurisdiction("US", tok), true
		}
	}
	return Jurisdiction{}, false
}

// ParseCode accepts "CA-ON" or "US-NY".
func ParseCode(code string) (Jurisdiction, bool) {
	country, region, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(code)), "-")
	if !ok {
		return Jurisdiction{}, false
	}
	switch country {
	case "CA":
		if _, ok := provinces[region]; ok {
			return jurisdiction(country, region), true
		}
	case "US":
		if _, ok := states[region]; ok {
			return jurisdiction(country, region), true
		}
	}
	return Jurisdiction{}, false
}

func jurisdiction(country, region string) Jurisdiction {
	return Jurisdiction{Country: country, Region: region, Code: country + "-" + region}
}

func containsWord(s, word string) bool {
	for _, tok := range tokenSplit.Split(s, -1) {
		if strings.Trim(tok, ".") == word {
			return true
		}
	}
	return false
}

// containsPhrase matches whole words so "kansas" doesn't match inside "arkansas".
func containsPhrase(s, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		before := start == 0 || !isLetter(s[start-1])
		after := end == len(s) || !isLetter(s[end])
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}
