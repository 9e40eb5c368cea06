package stores_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/statekit/pkg/storetest"
	"github.com/vango-dev/statekit/pkg/stores"
)

func TestProductsSeeded(t *testing.T) {
	h := storetest.New(t)
	p := stores.Products.Use(h.Registry())

	if diff := cmp.Diff(stores.SeedProducts(), p.AllProducts()); diff != "" {
		t.Errorf("AllProducts() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, p.ProductCount())

	laptop, ok := p.GetProductByID(1)
	require.True(t, ok)
	assert.Equal(t, "Laptop", laptop.Name)

	_, ok = p.GetProductByID(99)
	assert.False(t, ok)
}

func TestProductsAddAssignsNextID(t *testing.T) {
	h := storetest.New(t)
	p := stores.Products.Use(h.Registry())

	added, err := p.AddProduct(stores.NewProduct{Name: "Mouse", Price: 49.5})
	require.NoError(t, err)
	assert.Equal(t, 3, added.ID)

	p.RemoveProduct(1)
	p.RemoveProduct(2)
	p.RemoveProduct(3)
	assert.Equal(t, 0, p.ProductCount())

	first, err := p.AddProduct(stores.NewProduct{Name: "Desk", Price: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
}

func TestProductsAddValidates(t *testing.T) {
	h := storetest.New(t)
	p := stores.Products.Use(h.Registry())

	_, err := p.AddProduct(stores.NewProduct{Price: 1})
	assert.Error(t, err)
	_, err = p.AddProduct(stores.NewProduct{Name: "Refund", Price: -1})
	assert.Error(t, err)
	assert.Equal(t, 2, p.ProductCount())
}

func TestProductsUpdate(t *testing.T) {
	h := storetest.New(t)
	p := stores.Products.Use(h.Registry())

	price := 999.0
	require.NoError(t, p.UpdateProduct(2, stores.ProductPatch{Price: &price}))

	phone, _ := p.GetProductByID(2)
	assert.Equal(t, price, phone.Price)
	assert.Equal(t, "Smartphone", phone.Name)

	before := p.AllProducts()
	require.NoError(t, p.UpdateProduct(42, stores.ProductPatch{Price: &price}))
	assert.Equal(t, before, p.AllProducts())

	empty := ""
	assert.Error(t, p.UpdateProduct(2, stores.ProductPatch{Name: &empty}))
}

func TestProductsByPriceIsStable(t *testing.T) {
	h := storetest.New(t)
	p := stores.Products.Use(h.Registry())

	for _, np := range []stores.NewProduct{
		{Name: "Cable A", Price: 10},
		{Name: "Charger", Price: 5},
		{Name: "Cable B", Price: 10},
		{Name: "Cable C", Price: 10},
	} {
		_, err := p.AddProduct(np)
		require.NoError(t, err)
	}

	var names []string
	for _, prod := range p.ProductsByPrice() {
		names = append(names, prod.Name)
	}
	want := []string{"Charger", "Cable A", "Cable B", "Cable C", "Smartphone", "Laptop"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("ProductsByPrice() order mismatch (-want +got):\n%s", diff)
	}

	// Catalog order is untouched.
	assert.Equal(t, "Laptop", p.AllProducts()[0].Name)
}

func TestProductsFetch(t *testing.T) {
	h := storetest.New(t, storetest.WithOptions(stores.WithFetchDelay(10*time.Millisecond)))
	p := stores.Products.Use(h.Registry())

	before := p.AllProducts()
	require.NoError(t, p.FetchProducts(context.Background()))
	assert.Equal(t, before, p.AllProducts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.FetchProducts(ctx), context.Canceled)
}
