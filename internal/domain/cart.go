package domain

import (
	"github.com/eshop-platform/shipping-service/pkg/errors"
)

type cartLine struct {
	product  *Product
	quantity int
}

// ShoppingCart maps products to requested quantities. Lines are keyed by the
// product's name; re-adding a product overwrites its quantity. Iteration order
// is insertion order, which keeps submissions stable.
type ShoppingCart struct {
	lines map[string]*cartLine
	order []string
}

// NewShoppingCart creates an empty cart
func NewShoppingCart() *ShoppingCart {
	return &ShoppingCart{
		lines: make(map[string]*cartLine),
	}
}

// IsEmpty reports whether the cart has no lines
func (c *ShoppingCart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ContainsProduct reports whether the cart has a line for the product
func (c *ShoppingCart) ContainsProduct(product *Product) bool {
	_, ok := c.lines[product.Name()]
	return ok
}

// CalculateTotal returns the total price of all cart lines
func (c *ShoppingCart) CalculateTotal() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.product.Price() * float64(line.quantity)
	}
	return total
}

// AddProduct adds a line for the product, overwriting any existing quantity.
// The amount is validated against the product's current stock; stock can still
// change between adding and submitting.
func (c *ShoppingCart) AddProduct(product *Product, amount int) error {
	if amount <= 0 {
		return errors.ErrValidation("amount must be a positive integer")
	}
	if !product.IsAvailable(amount) {
		return errors.ErrValidation("product " + product.Name() + " does not have enough stock")
	}

	if _, exists := c.lines[product.Name()]; !exists {
		c.order = append(c.order, product.Name())
	}
	c.lines[product.Name()] = &cartLine{product: product, quantity: amount}
	return nil
}

// RemoveProduct removes the product's line if present
func (c *ShoppingCart) RemoveProduct(product *Product) {
	if _, ok := c.lines[product.Name()]; !ok {
		return
	}
	delete(c.lines, product.Name())
	for i, name := range c.order {
		if name == product.Name() {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// SubmitCartOrder purchases every line in insertion order, returns the product
// names, and empties the cart. Purchases are committed one by one: if a line
// fails because stock ran out since it was added, earlier purchases are not
// rolled back and the error is returned.
func (c *ShoppingCart) SubmitCartOrder() ([]string, error) {
	if c.IsEmpty() {
		return nil, errors.ErrValidation("cannot submit an order with an empty cart")
	}

	productIDs := make([]string, 0, len(c.order))
	for _, name := range c.order {
		line := c.lines[name]
		if err := line.product.Buy(line.quantity); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, name)
	}

	c.lines = make(map[string]*cartLine)
	c.order = nil
	return productIDs, nil
}
