package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // rules for zoneRegions

	"github.com/Rhymond/go-money"
	"github.com/findosh/tradeimport/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Locale resolves ambiguous number and date conventions
type Locale struct {
	Tag          language.Tag
	DayFirst     bool // 02/01/2024 is 2 January
	DecimalComma bool // 1.234,56
}

// DefaultLocale is used when no hint is given and an adapter has no preference
const DefaultLocale = "en-US"

var (
	// languages that write decimals with a comma
	decimalCommaLangs = map[string]bool{
		"de": true, "fr": true, "es": true, "it": true, "nl": true, "pt": true,
		"pl": true, "sv": true, "da": true, "nb": true, "no": true, "fi": true,
		"ru": true, "tr": true, "cs": true, "el": true, "id": true, "ro": true,
	}
	// regions that keep a decimal point despite the language
	decimalPointRegions = map[string]bool{"CH": true, "MX": true, "LI": true}

	// english regions that write month first
	monthFirstRegions = map[string]bool{"US": true, "PH": true, "CA": true, "ZZ": true}
)

// ParseLocale builds a Locale from a BCP 47 hint such as "en-GB" or "de-DE".
// Unparseable hints fall back to DefaultLocale.
func ParseLocale(hint string) Locale {
	tag, err := language.Parse(strings.TrimSpace(hint))
	if err != nil || hint == "" {
		tag = language.MustParse(DefaultLocale)
	}

	base, _ := tag.Base()
	region, _ := tag.Region()
	lang := base.String()

	loc := Locale{Tag: tag}
	if lang == "en" {
		loc.DayFirst = !monthFirstRegions[region.String()]
	} else {
		loc.DayFirst = true
	}
	loc.DecimalComma = decimalCommaLangs[lang] && !decimalPointRegions[region.String()]
	return loc
}

// String returns the BCP 47 form of the locale
func (l Locale) String() string {
	return l.Tag.String()
}

var (
	currencyPrefix = regexp.MustCompile(`^[A-Za-z]{3}\s+`)
	currencySuffix = regexp.MustCompile(`\s+[A-Za-z]{3}$`)
	unitSuffix     = regexp.MustCompile(`[A-Za-z]+$`)
)

// ParseNumber converts a locale-formatted amount into a decimal.
// "USD 1,234.50", "1.234,50 EUR", "$(12.00)" and "12%" are all accepted.
func ParseNumber(raw string, loc Locale) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = currencyPrefix.ReplaceAllString(s, "")
	s = currencySuffix.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', '%', ' ', '\'', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	if s == "" || s == "--" || strings.EqualFold(s, "n/a") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}

	d, err := decimal.NewFromString(normalizeSeparators(s, loc))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// parseQuantity parses amounts carrying a unit suffix such as "0.5BTC"
func parseQuantity(raw string, loc Locale) (decimal.Decimal, error) {
	return ParseNumber(unitSuffix.ReplaceAllString(strings.TrimSpace(raw), ""), loc)
}

func normalizeSeparators(s string, loc Locale) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		// the last separator is the decimal one
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if !loc.DecimalComma && isGrouping(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	case dot >= 0:
		if loc.DecimalComma && isGrouping(s, ".") {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// isGrouping reports whether sep is used as a thousands separator in s
func isGrouping(s, sep string) bool {
	if strings.Count(s, sep) > 1 {
		return true
	}
	i := strings.Index(s, sep)
	whole, frac := s[:i], s[i+1:]
	if whole == "" || whole == "0" {
		return false
	}
	return len(frac) == 3
}

var (
	isoLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"20060102;150405",
		"20060102",
	}
	textLayouts = []string{
		"02 Jan 2006 15:04:05",
		"02 Jan 2006 15:04",
		"2 Jan 2006",
		"02-Jan-2006",
		"2-Jan-06",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 January 2006",
	}

	numericDate = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2}|\d{4})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([AaPp][Mm]))?(?:\s*(Z|[+-]\d{2}:?\d{2}|[A-Za-z]{2,5}))?)?\s*$`)
	yearFirst   = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*(Z|[+-]\d{2}:?\d{2}|[A-Za-z]{2,5}))?)?\s*$`)

	// zone labels brokers append to wall-clock times, as offsets from UTC in hours
	zoneOffsets = map[string]int{
		"Z": 0, "UTC": 0, "GMT": 0,
		"EST": -5, "EDT": -4,
		"CST": -6, "CDT": -5,
		"MST": -7, "MDT": -6,
		"PST": -8, "PDT": -7,
		"BST": 1, "CET": 1, "CEST": 2, "EET": 2, "EEST": 3,
	}
	// labels without a fixed offset follow the region's daylight saving rules
	zoneRegions = map[string]string{
		"ET": "America/New_York",
		"CT": "America/Chicago",
		"PT": "America/Los_Angeles",
	}
	offsetZone = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)
)

// ParseDate converts a broker date string into a UTC instant.
// Ambiguous numeric dates are resolved with the locale's day/month order.
func ParseDate(raw string, loc Locale) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil && t.Year() > 1900 {
			return t.UTC(), nil
		}
	}

	if m := numericDate.FindStringSubmatch(v); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		dayFirst := loc.DayFirst
		if a > 12 {
			dayFirst = true
		} else if b > 12 {
			dayFirst = false
		}
		day, month := b, a
		if dayFirst {
			day, month = a, b
		}
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		hour := atoi(m[4])
		switch strings.ToUpper(m[7]) {
		case "PM":
			if hour < 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
		return buildDate(raw, m[8], year, month, day, hour, atoi(m[5]), atoi(m[6]))
	}

	if m := yearFirst.FindStringSubmatch(v); m != nil {
		return buildDate(raw, m[7], atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]))
	}

	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// buildDate assembles a wall-clock time in the labelled zone (UTC when
// unlabelled) and returns it as UTC
func buildDate(raw, zone string, year, month, day, hour, min, sec int) (time.Time, error) {
	where, err := zoneLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, raw, err)
	}
	if year < 1900 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, where)
	// time.Date normalizes overflow, so 31/02 would silently become March
	if t.Year() != year || int(t.Month()) != month || t.Day() != day || hour > 23 || min > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t.UTC(), nil
}

// zoneLocation resolves a trailing zone label or numeric offset
func zoneLocation(zone string) (*time.Location, error) {
	if zone == "" {
		return time.UTC, nil
	}
	label := strings.ToUpper(zone)
	if hours, ok := zoneOffsets[label]; ok {
		return time.FixedZone(label, hours*3600), nil
	}
	if region, ok := zoneRegions[label]; ok {
		return time.LoadLocation(region)
	}
	if m := offsetZone.FindStringSubmatch(zone); m != nil {
		secs := atoi(m[2])*3600 + atoi(m[3])*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone(zone, secs), nil
	}
	return nil, fmt.Errorf("unknown time zone %q", zone)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// NormalizeCurrency uppercases a currency code. ISO 4217 codes are returned
// as-is; other asset codes (USDT, BTC) are kept when they look like symbols.
func NormalizeCurrency(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return ""
	}
	if money.GetCurrency(code) != nil {
		return code
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if len(code) < 2 || len(code) > 10 {
		return ""
	}
	return code
}

// IsFiat reports whether code is an ISO 4217 currency and not a crypto asset
func IsFiat(code string) bool {
	if defaultSymbols.IsCrypto(code) {
		return false
	}
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}

// HashRow returns the sha256 hex digest of the row's raw fields.
// Keys are sorted so the digest does not depend on column order.
func HashRow(fields map[string]string) string {
	// encoding/json writes map keys in sorted order
	data, err := json.Marshal(fields)
	if err != nil {
		data = []byte(fmt.Sprint(fields))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var ignoredActionWords = []string{
	"DIVIDEND", "INTEREST", "TRANSFER", "DEPOSIT", "WITHDRAW", "TOP-UP", "TOP UP",
	"SPLIT", "REWARD", "STAKING", "AIRDROP", "CONVERT", "SEND", "RECEIVE",
	"INCOME", "GIFT", "LENDING", "MINING", "JOURNAL", "CUSTODY FEE", "TAX",
}

// ClassifyAction maps a free-text action label to BUY or SELL.
// Cash movements and corporate actions return ErrIgnoredAction.
func ClassifyAction(label string) (models.TradeType, error) {
	a := strings.ToUpper(strings.TrimSpace(label))
	if a == "" {
		return "", fmt.Errorf("%w: action", ErrMissingField)
	}
	for _, w := range ignoredActionWords {
		if strings.Contains(a, w) {
			return "", fmt.Errorf("%w: %q", ErrIgnoredAction, label)
		}
	}
	switch {
	case strings.Contains(a, "SELL"), strings.Contains(a, "SOLD"), strings.Contains(a, "SALE"):
		return models.TradeSell, nil
	case strings.Contains(a, "BUY"), strings.Contains(a, "BOUGHT"), strings.Contains(a, "PURCHASE"), strings.Contains(a, "REINVEST"):
		return models.TradeBuy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, label)
}
