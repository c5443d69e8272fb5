package poi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/nominatim"
)

type mockReverse struct {
	mock.Mock
}

func (m *mockReverse) Reverse(ctx context.Context, lat, lon float64) (*nominatim.Address, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nominatim.Address), args.Error(1)
}

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) Nearby(ctx context.Context, lat, lon float64, radiusMeters int, includedTypes []string) ([]model.POICandidate, error) {
	args := m.Called(ctx, lat, lon, radiusMeters, includedTypes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.POICandidate), args.Error(1)
}

type mockTrails struct {
	mock.Mock
}

func (m *mockTrails) NearbyTrails(ctx context.Context, lat, lon float64, radiusMeters int) ([]model.POICandidate, error) {
	args := m.Called(ctx, lat, lon, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.POICandidate), args.Error(1)
}
