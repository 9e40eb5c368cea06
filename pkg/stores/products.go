package stores

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Product is an item for sale.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// NewProduct is a product without an ID, as passed to AddProduct.
type NewProduct struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// ProductPatch holds the fields to change in UpdateProduct. Nil fields are
// left as they are.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty" validate:"omitnil,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitnil,gte=0"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

func (p ProductPatch) apply(prod Product) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.ImageURL != nil {
		prod.ImageURL = *p.ImageURL
	}
	return prod
}

// SeedProducts returns the products every new store starts with.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Price: 2999.99, Description: "High-performance laptop", ImageURL: "/images/laptop.jpg"},
		{ID: 2, Name: "Smartphone", Price: 1499.99, Description: "Latest smartphone model", ImageURL: "/images/phone.jpg"},
	}
}

// ProductsStore is the product catalog.
type ProductsStore struct {
	*store.Base

	fetchDelay time.Duration
	items      *reactive.SliceSignal[Product]

	productCount    *reactive.Memo[int]
	getProductByID  *reactive.Memo[func(int) (Product, bool)]
	productsByPrice *reactive.Memo[[]Product]
}

// Products is the products store definition.
var Products = store.Define("products", newProducts)

func newProducts(s *store.Scope) *ProductsStore {
	p := &ProductsStore{
		Base:       store.NewBase(s),
		fetchDelay: FetchDelayKey.Or(s, DefaultFetchDelay),
		items:      reactive.NewSliceSignal(SeedProducts()),
	}

	p.productCount = reactive.NewMemo(func() int {
		return p.items.Len()
	}, p.items)

	p.getProductByID = reactive.NewMemo(func() func(int) (Product, bool) {
		return func(id int) (Product, bool) {
			return p.items.Find(func(prod Product) bool { return prod.ID == id })
		}
	}, p.items)

	p.productsByPrice = reactive.NewMemo(func() []Product {
		sorted := p.items.Items()
		slices.SortStableFunc(sorted, func(a, b Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
		return sorted
	}, p.items)

	p.Handle("fetchProducts", store.NoPayloadErr(p.FetchProducts))
	p.Handle("addProduct", store.PayloadResult(func(_ context.Context, np NewProduct) (Product, error) {
		return p.AddProduct(np)
	}))
	p.Handle("updateProduct", store.Payload(func(_ context.Context, req struct {
		ID    int          `json:"id"`
		Patch ProductPatch `json:"patch"`
	}) error {
		return p.UpdateProduct(req.ID, req.Patch)
	}))
	p.Handle("removeProduct", store.Payload(func(_ context.Context, req struct {
		ID int `json:"id"`
	}) error {
		p.RemoveProduct(req.ID)
		return nil
	}))

	return p
}

// AllProducts returns every product in catalog order.
func (p *ProductsStore) AllProducts() []Product { return p.items.Items() }

// ProductCount returns the number of products.
func (p *ProductsStore) ProductCount() int { return p.productCount.Get() }

// GetProductByID returns the first product with id.
func (p *ProductsStore) GetProductByID(id int) (Product, bool) {
	return p.getProductByID.Get()(id)
}

// ProductsByPrice returns the products sorted by ascending price. Products
// with equal prices keep their catalog order.
func (p *ProductsStore) ProductsByPrice() []Product {
	return slices.Clone(p.productsByPrice.Get())
}

// ItemsSource is the catalog signal, for stores that derive from it.
func (p *ProductsStore) ItemsSource() reactive.Source { return p.items }

// FetchProducts simulates loading the catalog from a backend. It waits for
// the configured delay and leaves the catalog unchanged.
func (p *ProductsStore) FetchProducts(ctx context.Context) error {
	return p.Async(ctx, "fetchProducts", func(ctx context.Context) error {
		if p.fetchDelay <= 0 {
			return nil
		}
		return p.Owner().Sleep(ctx, p.fetchDelay)
	})
}

// AddProduct appends np with the next free ID (highest ID + 1).
func (p *ProductsStore) AddProduct(np NewProduct) (Product, error) {
	if err := validate.Struct(np); err != nil {
		return Product{}, fmt.Errorf("invalid product: %w", err)
	}

	var added Product
	err := p.Act("addProduct", func() error {
		maxID := 0
		for _, prod := range p.items.Peek() {
			maxID = max(maxID, prod.ID)
		}
		added = Product{
			ID:          maxID + 1,
			Name:        np.Name,
			Price:       np.Price,
			Description: np.Description,
			ImageURL:    np.ImageURL,
		}
		p.items.Append(added)
		return nil
	})
	return added, err
}

// UpdateProduct merges patch into the product with id. A missing product
// is a no-op.
func (p *ProductsStore) UpdateProduct(id int, patch ProductPatch) error {
	if err := validate.Struct(patch); err != nil {
		return fmt.Errorf("invalid product patch: %w", err)
	}
	return p.Act("updateProduct", func() error {
		p.items.UpdateWhere(func(prod Product) bool { return prod.ID == id }, patch.apply)
		return nil
	})
}

// RemoveProduct removes the product with id.
func (p *ProductsStore) RemoveProduct(id int) {
	p.Do("removeProduct", func() {
		p.items.RemoveWhere(func(prod Product) bool { return prod.ID == id })
	})
}

// ProductsSnapshot is the products state as reported by Snapshot.
type ProductsSnapshot struct {
	Products     []Product `json:"products"`
	ProductCount int       `json:"productCount"`
}

// Snapshot implements store.Snapshotter.
func (p *ProductsStore) Snapshot() any {
	var snap ProductsSnapshot
	p.Read(func() {
		snap = ProductsSnapshot{
			Products:     p.items.Items(),
			ProductCount: p.productCount.Get(),
		}
	})
	return snap
}
