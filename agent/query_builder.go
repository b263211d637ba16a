package agent

import (
	"regexp"
	"strconv"
	"strings"

	"sales-assistant/domain"
	"sales-assistant/utils"
)

// Slots are the structured parameters of a product question. Zero values
// mean "not known yet".
type Slots struct {
	Product  domain.ProductCode `json:"product_code,omitempty"`
	Currency domain.Currency    `json:"currency,omitempty"`
	Channel  domain.Channel     `json:"channel,omitempty"`
	TermDays *int               `json:"term_days,omitempty"`
	Amount   *float64           `json:"amount,omitempty"`
}

// Merge overlays the non-empty slots of newer onto s.
func (s Slots) Merge(newer Slots) Slots {
	if newer.Product != "" {
		s.Product = newer.Product
	}
	if newer.Currency != "" {
		s.Currency = newer.Currency
	}
	if newer.Channel != "" {
		s.Channel = newer.Channel
	}
	if newer.TermDays != nil {
		s.TermDays = newer.TermDays
	}
	if newer.Amount != nil {
		s.Amount = newer.Amount
	}
	return s
}

func (s Slots) Empty() bool {
	return s.Product == "" && s.Currency == "" && s.Channel == "" && s.TermDays == nil && s.Amount == nil
}

var (
	termDaysPattern   = regexp.MustCompile(`(?i)(\d+)\s*(?:дн|день|дня|дней|days?\b|d\b)`)
	termMonthsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:мес|months?\b|m\b)`)
	termYearsPattern  = regexp.MustCompile(`(?i)(\d+)\s*(?:год|года|лет|years?\b|y\b)`)
	amountScaled      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(млн|млрд|тыс|k\b)`)
	amountCurrency    = regexp.MustCompile(`(?i)(\d[\d ]*(?:[.,]\d+)?)\s*(?:руб|₽|\$|usd|долл|eur|евро|€|юан|cny)`)
)

var currencySymbols = map[rune]domain.Currency{
	'₽': domain.CurrencyRUB, '$': domain.CurrencyUSD, '€': domain.CurrencyEUR, '¥': domain.CurrencyCNY,
}

// ExtractSlots reads product, currency, channel, term and amount from free
// text. Unrecognised parts are left empty.
func ExtractSlots(text string) Slots {
	var s Slots
	lower := strings.ToLower(text)

	for _, tok := range utils.Tokenize(lower) {
		if s.Product == "" {
			if p, err := domain.ParseProductCode(tok); err == nil && p.Valid() {
				s.Product = p
			} else if strings.HasPrefix(tok, "вклад") || strings.HasPrefix(tok, "депозит") {
				s.Product = domain.ProductDeposit
			}
		}
		if s.Currency == "" {
			if c, ok := domain.ParseCurrency(tok); ok {
				s.Currency = c
			}
		}
		if s.Channel == "" {
			if c := domain.NormalizeChannel(tok); c == domain.ChannelOnline || c == domain.ChannelOffice {
				s.Channel = c
			}
		}
	}
	if s.Currency == "" {
		for _, r := range text {
			if c, ok := currencySymbols[r]; ok {
				s.Currency = c
				break
			}
		}
	}
	if s.Channel == "" {
		for _, phrase := range []string{"в офисе", "в отделении"} {
			if strings.Contains(lower, phrase) {
				s.Channel = domain.ChannelOffice
			}
		}
	}

	s.TermDays = extractTerm(lower)
	s.Amount = extractAmount(lower)
	return s
}

// extractTerm converts the first term expression to days. Months and years
// use the rate-table day counts when one exists.
func extractTerm(text string) *int {
	if m := termDaysPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return &n
		}
	}
	months := 0
	if m := termMonthsPattern.FindStringSubmatch(text); m != nil {
		months, _ = strconv.Atoi(m[1])
	} else if m := termYearsPattern.FindStringSubmatch(text); m != nil {
		years, _ := strconv.Atoi(m[1])
		months = years * 12
	}
	if months <= 0 {
		return nil
	}
	days, ok := domain.MonthsToDays[months]
	if !ok {
		days = months * 30
	}
	return &days
}

func extractAmount(text string) *float64 {
	if m := amountScaled.FindStringSubmatch(text); m != nil {
		v, err := parseNumber(m[1])
		if err != nil {
			return nil
		}
		switch strings.ToLower(m[2]) {
		case "млрд":
			v *= 1e9
		case "млн":
			v *= 1e6
		default:
			v *= 1e3
		}
		return &v
	}
	if m := amountCurrency.FindStringSubmatch(text); m != nil {
		if v, err := parseNumber(m[1]); err == nil {
			return &v
		}
	}
	return nil
}

func parseNumber(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}

// retrievalQuery appends the session's product code when the question does
// not name it, so follow-up questions still match product sections.
func retrievalQuery(text string, slots Slots) string {
	parts := []string{text}
	if slots.Product != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(string(slots.Product))) {
		parts = append(parts, string(slots.Product))
	}
	return strings.Join(parts, " ")
}
