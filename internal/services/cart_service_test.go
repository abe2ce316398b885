package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/models"
)

func newCartFixture(t *testing.T) (*CartService, *memProducts, *models.Product) {
	t.Helper()
	products := &memProducts{}
	p := products.add(&models.Product{Name: "Kopi Gayo", Price: 100})
	return NewCartService(newMemCarts(), products), products, p
}

func TestUpsertItemCreatesCartLazily(t *testing.T) {
	svc, _, p := newCartFixture(t)
	user := uuid.New()

	cart, err := svc.UpsertItem(context.Background(), user, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, user, cart.UserID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 100.0, cart.Items[0].UnitPrice)
	assert.Equal(t, 200.0, cart.Items[0].TotalPrice)
	assert.Equal(t, 200.0, cart.TotalAmount)
}

func TestUpsertItemReplacesQuantity(t *testing.T) {
	svc, _, p := newCartFixture(t)
	user := uuid.New()
	ctx := context.Background()

	_, err := svc.UpsertItem(ctx, user, p.ID, 3)
	require.NoError(t, err)
	cart, err := svc.UpsertItem(ctx, user, p.ID, 5)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 500.0, cart.TotalAmount)
}

func TestUpsertItemZeroRemovesLine(t *testing.T) {
	svc, _, p := newCartFixture(t)
	user := uuid.New()
	ctx := context.Background()

	_, err := svc.UpsertItem(ctx, user, p.ID, 2)
	require.NoError(t, err)
	cart, err := svc.UpsertItem(ctx, user, p.ID, 0)
	require.NoError(t, err)

	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestUpsertItemZeroWithoutLineAddsNothing(t *testing.T) {
	svc, _, p := newCartFixture(t)

	cart, err := svc.UpsertItem(context.Background(), uuid.New(), p.ID, 0)
	require.NoError(t, err)

	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestUpsertItemRejectsNegativeQuantity(t *testing.T) {
	svc, _, p := newCartFixture(t)

	_, err := svc.UpsertItem(context.Background(), uuid.New(), p.ID, -1)
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestUpsertItemUnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture(t)

	_, err := svc.UpsertItem(context.Background(), uuid.New(), uuid.New(), 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpsertItemRefreshesUnitPriceAndKeepsOrder(t *testing.T) {
	svc, products, p := newCartFixture(t)
	other := products.add(&models.Product{Name: "Teh Tarik", Price: 20})
	user := uuid.New()
	ctx := context.Background()

	_, err := svc.UpsertItem(ctx, user, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.UpsertItem(ctx, user, other.ID, 2)
	require.NoError(t, err)

	updated := *p
	updated.Price = 150
	require.NoError(t, products.Save(ctx, &updated))

	cart, err := svc.UpsertItem(ctx, user, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, p.ID, cart.Items[0].ProductID)
	assert.Equal(t, other.ID, cart.Items[1].ProductID)
	assert.Equal(t, 150.0, cart.Items[0].UnitPrice)
	assert.Equal(t, 300.0+40.0, cart.TotalAmount)
}

func TestUpdateItemRequiresExistingLine(t *testing.T) {
	svc, products, p := newCartFixture(t)
	other := products.add(&models.Product{Name: "Teh Tarik", Price: 20})
	user := uuid.New()
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, user, p.ID, 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "no cart yet")

	_, err = svc.UpsertItem(ctx, user, p.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, user, other.ID, 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "line absent")

	cart, err := svc.UpdateItem(ctx, user, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 400.0, cart.TotalAmount)
}

func TestRemoveItemAndClearCart(t *testing.T) {
	svc, products, p := newCartFixture(t)
	other := products.add(&models.Product{Name: "Teh Tarik", Price: 20})
	user := uuid.New()
	ctx := context.Background()

	_, err := svc.RemoveItem(ctx, user, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.UpsertItem(ctx, user, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.UpsertItem(ctx, user, other.ID, 3)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, user, p.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 60.0, cart.TotalAmount)

	_, err = svc.RemoveItem(ctx, user, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	require.NoError(t, svc.ClearCart(ctx, user))
	cart, err = svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestGetAndClearWithoutCart(t *testing.T) {
	svc, _, _ := newCartFixture(t)

	_, err := svc.GetCart(context.Background(), uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = svc.ClearCart(context.Background(), uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestConcurrentUpsertsKeepEveryLine(t *testing.T) {
	svc, products, _ := newCartFixture(t)
	user := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		p := products.add(&models.Product{Name: uuid.NewString(), Price: 10})
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.UpsertItem(context.Background(), user, id, 1)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	cart, err := svc.GetCart(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 20)
	assert.Equal(t, 200.0, cart.TotalAmount)
}
