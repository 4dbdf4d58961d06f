package models

// DailyPrice is a single point of the series returned by the pricing API.
type DailyPrice struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
}

// DailyAverage is the success body of GET /daily_average.
type DailyAverage struct {
	Function     Resource     `json:"function"`
	Interval     Interval     `json:"interval"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	AveragePrice float64      `json:"average_price"`
	Currency     string       `json:"currency"` // e.g., "USD per unit"
	DailyPrices  []DailyPrice `json:"daily_prices"`
}
