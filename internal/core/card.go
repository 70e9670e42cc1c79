package core

import "strings"

// Card identifies a payment card. Expense records are partitioned by card.
type Card string

const (
	CardLatam Card = "latam"
	CardAzul  Card = "azul"
)

// Cards returns every supported card in display order.
func Cards() []Card {
	return []Card{CardLatam, CardAzul}
}

// ParseCard accepts a card identifier in any case.
func ParseCard(s string) (Card, error) {
	c := Card(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrUnknownCard
	}
	return c, nil
}

// IsValid reports whether c is one of the supported cards.
func (c Card) IsValid() bool {
	switch c {
	case CardLatam, CardAzul:
		return true
	default:
		return false
	}
}

// Table returns the store table (or sheet tab) holding the card's records.
func (c Card) Table() string {
	return "dados_" + string(c)
}

// String implements fmt.Stringer
func (c Card) String() string {
	return string(c)
}
