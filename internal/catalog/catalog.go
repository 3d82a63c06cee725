// Package catalog holds the named medical specialties used to tag and
// filter slots. Names are unique, case-sensitive, and never deleted;
// a slot may outlive its specialty, so consumers must treat the tag as
// opaque text.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrDuplicateName = errors.New("specialty name already exists")
	ErrEmptyName     = errors.New("specialty name must not be empty")
)

type Specialty struct {
	Name        string
	Description string
	CreatedAt   time.Time
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// Create registers a new specialty. The name is the identity: empty names
// and exact-match duplicates are rejected.
func (s *Service) Create(ctx context.Context, name, description string) (*Specialty, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	sp, err := s.repo.Create(ctx, name, description)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return nil, err
		}
		return nil, fmt.Errorf("create specialty: %w", err)
	}

	s.log.Info("specialty created", zap.String("name", sp.Name))
	return sp, nil
}

// ListAll returns every specialty in creation order.
func (s *Service) ListAll(ctx context.Context) ([]Specialty, error) {
	specialties, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	return specialties, nil
}
