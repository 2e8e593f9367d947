package enum

// ProductCategory determines which VAT rate applies to an order line.
type ProductCategory string

const (
	CategoryFood     ProductCategory = "food"
	CategoryBeverage ProductCategory = "beverage"
	CategoryOther    ProductCategory = "other"
)

// Valid reports whether c is one of the known categories. An empty
// category is not valid here; callers decide whether to default it.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryFood, CategoryBeverage, CategoryOther:
		return true
	}
	return false
}

func (c ProductCategory) String() string {
	return string(c)
}
