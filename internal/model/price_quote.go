package model

// PriceQuote is one resolved price. Source names the provider that answered,
// or "none" with Success=false when every source failed; a zero price with
// Success=false means "no price available", not a usable value.
type PriceQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
	Success   bool    `json:"success"`
}
