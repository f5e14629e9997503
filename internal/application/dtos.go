package application

import "time"

// ShipmentDTO is the response representation of a shipment record
type ShipmentDTO struct {
	ShippingID   string    `json:"shippingId"`
	ShippingType string    `json:"shippingType"`
	OrderID      string    `json:"orderId"`
	ProductIDs   []string  `json:"productIds"`
	Status       string    `json:"status"`
	CreatedDate  time.Time `json:"createdDate"`
	DueDate      time.Time `json:"dueDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
