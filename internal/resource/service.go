package resource

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Name string
	Type Type
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Deactivate(ctx context.Context, id string) (*Resource, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	res := &Resource{
		Name: strings.TrimSpace(req.Name),
		Type: req.Type,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

// Deactivate hides a resource from new bookings. Existing bookings keep pointing at it.
func (s *service) Deactivate(ctx context.Context, id string) (*Resource, error) {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
