package stores

import (
	"context"

	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

// CartItem is a cart line. Product is a copy taken when the item was
// added; later catalog edits do not change it.
type CartItem struct {
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// CartStore is the shopping cart.
type CartStore struct {
	*store.Base

	products *ProductsStore
	items    *reactive.SliceSignal[CartItem]

	itemCount  *reactive.Memo[int]
	totalPrice *reactive.Memo[float64]
	isEmpty    *reactive.Memo[bool]
}

// Cart is the cart store definition.
var Cart = store.Define("cart", newCart)

func newCart(s *store.Scope) *CartStore {
	c := &CartStore{
		Base:     store.NewBase(s),
		products: Products.Use(s),
		items:    reactive.NewSliceSignal[CartItem](nil),
	}

	c.itemCount = reactive.NewMemo(func() int {
		total := 0
		for _, item := range c.items.Get() {
			total += item.Quantity
		}
		return total
	}, c.items)

	c.totalPrice = reactive.NewMemo(func() float64 {
		total := 0.0
		for _, item := range c.items.Get() {
			total += item.Product.Price * float64(item.Quantity)
		}
		return total
	}, c.items)

	c.isEmpty = reactive.NewMemo(func() bool {
		return c.items.Len() == 0
	}, c.items)

	type line struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	type addLine struct {
		ProductID int  `json:"productId"`
		Quantity  *int `json:"quantity"`
	}
	c.Handle("addToCart", store.Payload(func(_ context.Context, l addLine) error {
		qty := 1
		if l.Quantity != nil {
			qty = *l.Quantity
		}
		c.AddToCart(l.ProductID, qty)
		return nil
	}))
	c.Handle("removeFromCart", store.Payload(func(_ context.Context, l line) error {
		c.RemoveFromCart(l.ProductID)
		return nil
	}))
	c.Handle("updateQuantity", store.Payload(func(_ context.Context, l line) error {
		c.UpdateQuantity(l.ProductID, l.Quantity)
		return nil
	}))
	c.Handle("clearCart", store.NoPayload(c.ClearCart))

	return c
}

// Items returns the cart lines in insertion order.
func (c *CartStore) Items() []CartItem { return c.items.Items() }

// ItemCount returns the total quantity over all lines.
func (c *CartStore) ItemCount() int { return c.itemCount.Get() }

// TotalPrice returns the sum of price * quantity over all lines.
func (c *CartStore) TotalPrice() float64 { return c.totalPrice.Get() }

// IsEmpty reports whether the cart has no lines.
func (c *CartStore) IsEmpty() bool { return c.isEmpty.Get() }

// AddToCart adds quantity of the product with productID. If the product is
// already in the cart its quantity grows; otherwise a line is added with a
// copy of the product. An unknown product is logged and ignored, as is a
// non-positive quantity.
func (c *CartStore) AddToCart(productID, quantity int) {
	c.Do("addToCart", func() {
		if quantity <= 0 {
			c.Logger().Warn("ignoring non-positive quantity", "productId", productID, "quantity", quantity)
			return
		}

		product, ok := c.products.GetProductByID(productID)
		if !ok {
			c.Logger().Error("Product not found", "productId", productID)
			return
		}

		if _, exists := c.items.Find(func(it CartItem) bool { return it.ProductID == productID }); exists {
			c.items.UpdateWhere(func(it CartItem) bool { return it.ProductID == productID }, func(it CartItem) CartItem {
				it.Quantity += quantity
				return it
			})
			return
		}
		c.items.Append(CartItem{ProductID: productID, Quantity: quantity, Product: product})
	})
}

// RemoveFromCart removes the line for productID.
func (c *CartStore) RemoveFromCart(productID int) {
	c.Do("removeFromCart", func() { c.remove(productID) })
}

// UpdateQuantity sets the quantity of the line for productID. A quantity
// of zero or less removes the line. A product not in the cart is ignored.
func (c *CartStore) UpdateQuantity(productID, quantity int) {
	c.Do("updateQuantity", func() {
		if quantity <= 0 {
			c.remove(productID)
			return
		}
		c.items.UpdateWhere(func(it CartItem) bool { return it.ProductID == productID }, func(it CartItem) CartItem {
			it.Quantity = quantity
			return it
		})
	})
}

// ClearCart removes every line.
func (c *CartStore) ClearCart() {
	c.Do("clearCart", func() { c.items.Clear() })
}

func (c *CartStore) remove(productID int) {
	c.items.RemoveWhere(func(it CartItem) bool { return it.ProductID == productID })
}

// CartSnapshot is the cart state as reported by Snapshot.
type CartSnapshot struct {
	Items      []CartItem `json:"items"`
	ItemCount  int        `json:"itemCount"`
	TotalPrice float64    `json:"totalPrice"`
	IsEmpty    bool       `json:"isEmpty"`
}

// Snapshot implements store.Snapshotter.
func (c *CartStore) Snapshot() any {
	var snap CartSnapshot
	c.Read(func() {
		snap = CartSnapshot{
			Items:      c.items.Items(),
			ItemCount:  c.itemCount.Get(),
			TotalPrice: c.totalPrice.Get(),
			IsEmpty:    c.isEmpty.Get(),
		}
	})
	return snap
}
