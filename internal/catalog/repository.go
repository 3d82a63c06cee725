package catalog

import "context"

// Repository persists specialties. Create must reject an exact duplicate
// name with ErrDuplicateName; ListAll returns creation order.
type Repository interface {
	Create(ctx context.Context, name, description string) (*Specialty, error)
	ListAll(ctx context.Context) ([]Specialty, error)
}
