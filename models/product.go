package models

// Product is a single catalog entry
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description *string `json:"description,omitempty"`
}

// DescriptionOrEmpty unwraps the optional description for display.
func (p *Product) DescriptionOrEmpty() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// CatalogStats holds the aggregate view over all products. On an empty
// catalog Count is zero, AveragePrice is zero and both extremal records
// are nil; callers must check Count before dereferencing them.
type CatalogStats struct {
	Count         int      `json:"count"`
	AveragePrice  float64  `json:"average_price"`
	MostExpensive *Product `json:"most_expensive,omitempty"`
	Cheapest      *Product `json:"cheapest,omitempty"`
}
