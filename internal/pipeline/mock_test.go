package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/rep-ingest/internal/geography"
	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/source"
)

// --- Gateway Mock ---

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) UpsertGeography(ctx context.Context, geo model.Geography) (int64, error) {
	args := m.Called(ctx, geo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) UpsertRepresentative(ctx context.Context, rep model.Representative) (int64, error) {
	args := m.Called(ctx, rep)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) UpsertMapping(ctx context.Context, mp model.Mapping) error {
	args := m.Called(ctx, mp)
	return args.Error(0)
}

// --- Adapter Mock ---

type mockAdapter struct {
	mock.Mock
	name string
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Fetch(ctx context.Context, zip string, geo *model.Geography) (source.Result, error) {
	args := m.Called(ctx, zip, geo)
	return args.Get(0).(source.Result), args.Error(1)
}

// --- Resolver stub ---

type stubResolver map[string]model.Geography

func (s stubResolver) Resolve(_ context.Context, zip string) (*model.Geography, error) {
	g, ok := s[zip]
	if !ok {
		return nil, geography.ErrNotFound
	}
	return &g, nil
}

type errResolver struct{ err error }

func (e errResolver) Resolve(context.Context, string) (*model.Geography, error) {
	return nil, e.err
}
