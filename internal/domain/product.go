package domain

import "time"

type ProductType string

const (
	ProductTypePlants      ProductType = "Plants"
	ProductTypeSeeds       ProductType = "Seeds"
	ProductTypeTools       ProductType = "Tools"
	ProductTypeFertilizers ProductType = "Fertilizers"
	ProductTypePots        ProductType = "Pots"
)

var ProductTypes = []ProductType{
	ProductTypePlants,
	ProductTypeSeeds,
	ProductTypeTools,
	ProductTypeFertilizers,
	ProductTypePots,
}

func ValidProductType(t ProductType) bool {
	for _, v := range ProductTypes {
		if t == v {
			return true
		}
	}
	return false
}

type ProductImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Product prices are stored in whole currency units; the payment intent layer
// converts to minor units when talking to the gateway.
type Product struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Description   string         `json:"description"`
	Type          ProductType    `json:"type"`
	CategoryIDs   []string       `json:"categories"`
	Tags          []string       `json:"tags"`
	Price         int64          `json:"price"`
	DiscountPrice int64          `json:"discount_price"`
	Quantity      int            `json:"quantity"`
	Images        []ProductImage `json:"images"`
	Rating        float64        `json:"rating"`
	InStock       bool           `json:"in_stock"`
	Featured      bool           `json:"featured"`
	Bulk          bool           `json:"bulk"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}
