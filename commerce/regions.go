package commerce

// StoreRegion is a region as returned by the store api
type StoreRegion struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	CurrencyCode string         `json:"currency_code"`
	Countries    []StoreCountry `json:"countries"`
}

// StoreCountry is a country serviced by a region
type StoreCountry struct {
	ISO2        string `json:"iso_2"`
	ISO3        string `json:"iso_3"`
	NumCode     string `json:"num_code"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type listRegionsResponse struct {
	Regions []StoreRegion `json:"regions"`
	Count   int           `json:"count"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
}

type errorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
