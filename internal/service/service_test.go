package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/config"
	"campusDelivery/internal/events"
	"campusDelivery/internal/logging"
	"campusDelivery/internal/metrics"
	"campusDelivery/internal/testutil"
	"campusDelivery/models"
	"campusDelivery/repository"
)

type fixture struct {
	users  *UserService
	ests   *EstablishmentService
	orders *OrderService
	pub    *events.Memory
	userDB *repository.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, t.Name())
	userRepo := repository.NewUserRepository(d)
	estRepo := repository.NewEstablishmentRepository(d)
	orderRepo := repository.NewOrderRepository(d, userRepo)
	log := logging.Discard()
	pub := &events.Memory{}

	f := &fixture{
		users: NewUserService(userRepo,
			config.IdentityConfig{EmailDomain: "temple.edu", StartingPoints: 100},
			config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 30 * time.Minute}),
		ests:   NewEstablishmentService(estRepo, log),
		orders: NewOrderService(orderRepo, estRepo, pub, metrics.New(), log, config.OrdersConfig{MaxImageBytes: 1024}),
		pub:    pub,
		userDB: userRepo,
	}
	// Strictly increasing clock so creation order is deterministic.
	var mu sync.Mutex
	tick := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	f.orders.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	if _, err := f.ests.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: name, Email: name + "@temple.edu", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func (f *fixture) place(t *testing.T, customer *models.User, points int64) *models.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), customer.ID, sampleOrder(points))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func (f *fixture) balance(t *testing.T, id string) (int64, int64) {
	t.Helper()
	u, err := f.userDB.GetByID(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u.Points, u.ReservedPoints
}

func sampleOrder(points int64) CreateOrderInput {
	return CreateOrderInput{
		EstablishmentID:  EstablishmentID("Starbucks"),
		Items:            []models.OrderItem{{Name: "Grande Pike Place Roast", Quantity: 2, Price: 2.85}},
		DeliveryLocation: models.Location{Latitude: 39.9812, Longitude: -75.1554, Address: "Paley Library"},
		DeliveryPoints:   points,
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (%v)", got, kind, err)
	}
}

func placedAt() time.Time {
	return time.Date(2025, 9, 1, 12, 0, 0, 123456000, time.UTC)
}
