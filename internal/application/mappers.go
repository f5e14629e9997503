package application

import (
	"slices"

	"github.com/eshop-platform/shipping-service/internal/domain"
)

// ToShipmentDTO converts a domain Shipment to its DTO
func ToShipmentDTO(shipment *domain.Shipment) *ShipmentDTO {
	return &ShipmentDTO{
		ShippingID:   shipment.ShippingID,
		ShippingType: shipment.ShippingType,
		OrderID:      shipment.OrderID,
		ProductIDs:   slices.Clone(shipment.ProductIDs),
		Status:       string(shipment.Status),
		CreatedDate:  shipment.CreatedDate,
		DueDate:      shipment.DueDate,
		UpdatedAt:    shipment.UpdatedAt,
	}
}

// ToShipmentDTOs converts a slice of domain Shipments to DTOs
func ToShipmentDTOs(shipments []*domain.Shipment) []ShipmentDTO {
	dtos := make([]ShipmentDTO, len(shipments))
	for i, shipment := range shipments {
		dtos[i] = *ToShipmentDTO(shipment)
	}
	return dtos
}
