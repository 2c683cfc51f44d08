package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	productrepo "github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

type memUsers struct {
	users   []*usermodels.User
	cleared int
}

func (m *memUsers) Create(_ context.Context, u *usermodels.User) error {
	m.users = append(m.users, u)
	return nil
}

func (m *memUsers) DeleteAll(context.Context) error {
	m.users = nil
	m.cleared++
	return nil
}

type memOrders struct{ cleared int }

func (m *memOrders) DeleteAll(context.Context) error {
	m.cleared++
	return nil
}

func TestDefaultFixtures(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	require.Len(t, f.Users, 2)
	assert.Equal(t, "john@example.com", f.Users[0].Email)
	assert.Equal(t, "10001", f.Users[0].Address.ZipCode)
	assert.Equal(t, usermodels.RoleAdmin, f.Users[1].Role)

	require.Len(t, f.Products, 8)
	categories := map[string]int{}
	for _, p := range f.Products {
		categories[p.Category]++
	}
	assert.Equal(t, map[string]int{
		"Electronics": 2, "Clothing": 1, "Books": 1, "Home & Garden": 1,
		"Sports": 1, "Beauty": 1, "Toys": 1,
	}, categories)
	assert.Equal(t, "450", f.Products[3].Specifications["Pages"])
}

func TestRunReplacesData(t *testing.T) {
	ctx := context.Background()
	f, err := Default()
	require.NoError(t, err)

	users := &memUsers{users: []*usermodels.User{{Email: "old@example.com"}}}
	orders := &memOrders{}
	products := productrepo.NewMemoryProductRepository()
	require.NoError(t, products.Create(ctx, &productmodels.Product{ID: "old", Name: "Old", IsActive: true}))

	s := &Seeder{Users: users, Orders: orders, Products: products, Cost: bcrypt.MinCost}
	require.NoError(t, s.Run(ctx, f))

	assert.Equal(t, 1, orders.cleared)
	require.Len(t, users.users, 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[0].Password), []byte("password123")))
	assert.True(t, users.users[1].IsAdmin())

	_, err = products.FindByID(ctx, "old")
	assert.ErrorIs(t, err, productrepo.ErrNotFound)

	page, total, err := products.Find(ctx, productmodels.ProductQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)
	assert.Len(t, page, 8)
	for _, p := range page {
		assert.True(t, p.IsActive)
	}

	featured, err := products.Featured(ctx, productmodels.FeaturedMax)
	require.NoError(t, err)
	assert.Len(t, featured, 3)
}
