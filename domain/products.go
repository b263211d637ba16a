package domain

import (
	"strings"

	apperrors "sales-assistant/errors"
)

// ProductCode is a member of the closed product vocabulary.
type ProductCode string

const (
	ProductKN      ProductCode = "КН"
	ProductKSP     ProductCode = "КСП"
	ProductPU      ProductCode = "ПУ"
	ProductDK      ProductCode = "ДК"
	ProductIK      ProductCode = "ИК"
	ProductIZP     ProductCode = "ИЗП"
	ProductNS      ProductCode = "НС"
	ProductDeposit ProductCode = "Вклад"

	// ProductPlaybook tags general sales-playbook documents. It is not an
	// activity product.
	ProductPlaybook ProductCode = "Плейбук"
)

// Products is the activity vocabulary in display order.
var Products = []ProductCode{
	ProductKN, ProductKSP, ProductPU, ProductDK,
	ProductIK, ProductIZP, ProductNS, ProductDeposit,
}

var productIndex = func() map[string]ProductCode {
	m := make(map[string]ProductCode, len(Products))
	for _, p := range Products {
		m[strings.ToLower(string(p))] = p
	}
	return m
}()

// Valid reports whether p belongs to the activity vocabulary.
func (p ProductCode) Valid() bool {
	_, ok := productIndex[strings.ToLower(string(p))]
	return ok && string(p) != ""
}

// ValidForDocuments also accepts the playbook tag.
func (p ProductCode) ValidForDocuments() bool {
	return p == ProductPlaybook || p.Valid()
}

// ParseProductCode normalises case and rejects codes outside the vocabulary.
func ParseProductCode(s string) (ProductCode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := productIndex[key]; ok {
		return p, nil
	}
	if key == strings.ToLower(string(ProductPlaybook)) {
		return ProductPlaybook, nil
	}
	return "", apperrors.NewValidationError("product_code", "unknown product code %q", s)
}

// Currency is a canonical ISO currency code.
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyCNY Currency = "CNY"
)

var currencyAliases = map[string]Currency{
	"rub": CurrencyRUB, "rur": CurrencyRUB, "руб": CurrencyRUB, "рубль": CurrencyRUB,
	"рубли": CurrencyRUB, "рублей": CurrencyRUB, "рубля": CurrencyRUB, "₽": CurrencyRUB,
	"usd": CurrencyUSD, "доллар": CurrencyUSD, "доллары": CurrencyUSD, "долларов": CurrencyUSD,
	"доллара": CurrencyUSD, "$": CurrencyUSD,
	"eur": CurrencyEUR, "евро": CurrencyEUR, "€": CurrencyEUR,
	"cny": CurrencyCNY, "юань": CurrencyCNY, "юани": CurrencyCNY, "юаней": CurrencyCNY,
	"юаня": CurrencyCNY, "¥": CurrencyCNY,
}

// ParseCurrency maps codes and common aliases to a canonical currency.
func ParseCurrency(s string) (Currency, bool) {
	c, ok := currencyAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// Channel is a free sales-channel label, normalised to lower case.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelOffice Channel = "office"
)

var channelAliases = map[string]Channel{
	"online": ChannelOnline, "онлайн": ChannelOnline, "интернет": ChannelOnline,
	"дистанционно": ChannelOnline, "мобильное": ChannelOnline,
	"office": ChannelOffice, "офис": ChannelOffice, "отделение": ChannelOffice,
	"в офисе": ChannelOffice, "в отделении": ChannelOffice,
}

// NormalizeChannel lower-cases the label and folds known aliases.
func NormalizeChannel(s string) Channel {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := channelAliases[key]; ok {
		return c
	}
	return Channel(key)
}

// MonthsToDays maps deposit terms quoted in months to the day counts used
// in rate tables.
var MonthsToDays = map[int]int{
	1: 31, 2: 61, 3: 91, 4: 122, 6: 181, 9: 274,
	12: 367, 18: 550, 24: 730, 36: 1100,
}
