package models

// Currency is the settlement currency recorded on a batch.
type Currency string

const (
	CurrencySTX Currency = "STX"
	CurrencyUSD Currency = "USD"
	CurrencyBTC Currency = "BTC"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencySTX, CurrencyUSD, CurrencyBTC:
		return true
	default:
		return false
	}
}

func (c Currency) String() string {
	return string(c)
}
