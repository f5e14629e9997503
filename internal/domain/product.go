package domain

import (
	"strings"
	"sync"

	"github.com/eshop-platform/shipping-service/pkg/errors"
)

// Product is a catalog item with an immutable identity (its name) and a
// mutable stock counter. Two products are the same product iff their names are
// equal; carts key their lines by name for that reason.
type Product struct {
	name  string
	price float64

	mu              sync.Mutex
	availableAmount int
}

// NewProduct creates a product, validating its attributes
func NewProduct(name string, price float64, availableAmount int) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.ErrValidation("product name must not be empty")
	}
	if price < 0 {
		return nil, errors.ErrValidation("product price must not be negative")
	}
	if availableAmount < 0 {
		return nil, errors.ErrValidation("product available amount must not be negative")
	}

	return &Product{
		name:            name,
		price:           price,
		availableAmount: availableAmount,
	}, nil
}

// Name returns the product's identity
func (p *Product) Name() string {
	return p.name
}

// Price returns the unit price
func (p *Product) Price() float64 {
	return p.price
}

// AvailableAmount returns the current stock counter
func (p *Product) AvailableAmount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableAmount
}

// IsAvailable reports whether the current stock covers a strictly positive
// requested amount
func (p *Product) IsAvailable(requestedAmount int) bool {
	if requestedAmount <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableAmount >= requestedAmount
}

// Buy decrements stock by the requested amount. The availability check and the
// decrement happen under one lock so concurrent purchases cannot drive stock
// negative.
func (p *Product) Buy(requestedAmount int) error {
	if requestedAmount <= 0 {
		return errors.ErrValidation("requested amount must be a positive integer")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.availableAmount < requestedAmount {
		return errors.ErrValidation("not enough items of product " + p.name + " available")
	}
	p.availableAmount -= requestedAmount
	return nil
}
