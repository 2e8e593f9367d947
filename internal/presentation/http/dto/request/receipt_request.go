package request

// ReceiptItemRequest is one order line in a receipt creation request.
type ReceiptItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"gte=0"`
	Category string  `json:"category"` // food, beverage, other; empty defaults to food
}

// CreateReceiptRequest is the order-completion payload posted by the
// order-management frontend when an order is finalized for payment.
type CreateReceiptRequest struct {
	Items         []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string               `json:"payment_method"` // cash, card, other; empty defaults to cash
	CashierName   string               `json:"cashier_name"`
}
