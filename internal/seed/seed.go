// Package seed loads the sample catalog and accounts into empty stores.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type UserFixture struct {
	Name     string             `yaml:"name"`
	Email    string             `yaml:"email"`
	Password string             `yaml:"password"`
	Role     string             `yaml:"role"`
	Address  usermodels.Address `yaml:"address"`
	Phone    string             `yaml:"phone"`
}

type Fixtures struct {
	Users    []UserFixture                `yaml:"users"`
	Products []productmodels.ProductInput `yaml:"products"`
}

// Default returns the embedded sample data.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

type UserStore interface {
	Create(ctx context.Context, user *usermodels.User) error
	DeleteAll(ctx context.Context) error
}

type OrderStore interface {
	DeleteAll(ctx context.Context) error
}

type ProductStore interface {
	CreateMany(ctx context.Context, products []productmodels.Product) error
	DeleteAll(ctx context.Context) error
}

type Seeder struct {
	Users    UserStore
	Orders   OrderStore
	Products ProductStore
	Logger   *zap.Logger
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// Run wipes orders, users and products, then inserts f.
func (s *Seeder) Run(ctx context.Context, f *Fixtures) error {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	if err := s.Orders.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	if err := s.Users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	if err := s.Products.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	log.Info("Cleared existing data")

	for _, uf := range f.Users {
		hashed, err := bcrypt.GenerateFromPassword([]byte(uf.Password), cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", uf.Email, err)
		}
		role := uf.Role
		if role == "" {
			role = usermodels.RoleUser
		}
		u := &usermodels.User{
			ID:       uuid.New(),
			Name:     uf.Name,
			Email:    usermodels.NormalizeEmail(uf.Email),
			Password: string(hashed),
			Role:     role,
			Address:  uf.Address,
			Phone:    uf.Phone,
		}
		if err := s.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", uf.Email, err)
		}
	}
	log.Info("Created users", zap.Int("count", len(f.Users)))

	now := time.Now().UTC()
	products := make([]productmodels.Product, len(f.Products))
	for i := range f.Products {
		// Creation times follow fixture order.
		products[i] = *f.Products[i].ToProduct(uuid.NewString(), now.Add(time.Duration(i)*time.Second))
	}
	if err := s.Products.CreateMany(ctx, products); err != nil {
		return fmt.Errorf("create products: %w", err)
	}
	log.Info("Created products", zap.Int("count", len(products)))
	return nil
}
