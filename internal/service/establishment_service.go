package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/geo"
	"campusDelivery/models"
	"campusDelivery/repository"

	"github.com/google/uuid"
)

// Point is a caller-supplied position used to annotate distances.
type Point struct {
	Lat float64
	Lon float64
}

// EstablishmentService serves the read-only catalog.
type EstablishmentService struct {
	repo repository.EstablishmentRepositoryI
	log  *slog.Logger
}

func NewEstablishmentService(repo repository.EstablishmentRepositoryI, log *slog.Logger) *EstablishmentService {
	return &EstablishmentService{repo: repo, log: log}
}

// Seed stores the built-in establishments that are not present yet.
// Safe to call on every start.
func (s *EstablishmentService) Seed(ctx context.Context) (int, error) {
	var missing []models.Establishment
	for _, e := range SeedEstablishments() {
		existing, err := s.repo.GetByID(ctx, e.ID)
		if err != nil {
			return 0, apperr.Internal("check establishment", err)
		}
		if existing == nil {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	n, err := s.repo.Seed(ctx, missing)
	if err != nil {
		return 0, apperr.Internal("seed establishments", err)
	}
	s.log.Info("seeded establishments", "inserted", n)
	return n, nil
}

// List returns active establishments, nearest first when at is given.
func (s *EstablishmentService) List(ctx context.Context, at *Point) ([]models.Establishment, error) {
	if err := validatePoint(at); err != nil {
		return nil, err
	}
	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internal("list establishments", err)
	}
	return withDistance(list, at), nil
}

// Search matches query against name and category, ignoring case.
func (s *EstablishmentService) Search(ctx context.Context, query string, at *Point) ([]models.Establishment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("query must not be empty")
	}
	if err := validatePoint(at); err != nil {
		return nil, err
	}
	list, err := s.repo.SearchActive(ctx, query)
	if err != nil {
		return nil, apperr.Internal("search establishments", err)
	}
	return withDistance(list, at), nil
}

// Get returns one establishment, active or not.
func (s *EstablishmentService) Get(ctx context.Context, id string) (*models.Establishment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidInput("invalid establishment id format")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("load establishment", err)
	}
	if e == nil {
		return nil, apperr.NotFound("establishment not found")
	}
	return e, nil
}

// Menu returns the establishment's menu; never nil.
func (s *EstablishmentService) Menu(ctx context.Context, id string) ([]models.MenuItem, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.MenuItems == nil {
		return []models.MenuItem{}, nil
	}
	return e.MenuItems, nil
}

func validatePoint(at *Point) error {
	if at != nil && !geo.ValidCoordinates(at.Lat, at.Lon) {
		return apperr.InvalidInput("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	return nil
}

// withDistance annotates each establishment with its distance from at and
// sorts ascending. Ties keep the storage order.
func withDistance(list []models.Establishment, at *Point) []models.Establishment {
	if list == nil {
		list = []models.Establishment{}
	}
	if at == nil {
		return list
	}
	for i := range list {
		d := geo.HaversineMiles(at.Lat, at.Lon, list[i].Location.Latitude, list[i].Location.Longitude)
		list[i].Distance = &d
	}
	sort.SliceStable(list, func(i, j int) bool { return *list[i].Distance < *list[j].Distance })
	return list
}
