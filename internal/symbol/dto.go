package symbol

type AddSymbolDTO struct {
	Symbol    string `json:"symbol" validate:"required,max=255"`
	Name      string `json:"name" validate:"required,max=255"`
	Industry  string `json:"industry" validate:"max=255"`
	Market    string `json:"market" validate:"required,max=255"`
	MarketCap string `json:"market_cap" validate:"max=255"`
	AltNames  any    `json:"alt_names"`
}

type UpdateSymbolDTO struct {
	Symbol    *string `json:"symbol" validate:"omitempty,max=255"`
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Industry  *string `json:"industry" validate:"omitempty,max=255"`
	Market    *string `json:"market" validate:"omitempty,max=255"`
	MarketCap *string `json:"market_cap" validate:"omitempty,max=255"`
	AltNames  any     `json:"alt_names"`
}

type ListFilter struct {
	Name   string
	Market string
}
