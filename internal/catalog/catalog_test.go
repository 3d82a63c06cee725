package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AndListInCreationOrder(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, "Cardiologia", "Heart")
	require.NoError(t, err)
	assert.Equal(t, "Cardiologia", first.Name)

	_, err = svc.Create(ctx, "Pediatria", "Children")
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cardiologia", all[0].Name)
	assert.Equal(t, "Pediatria", all[1].Name)
}

func TestCreate_EmptyName(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)

	_, err := svc.Create(context.Background(), "", "desc")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Create(context.Background(), "   ", "desc")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestCreate_DuplicateName(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Cardiologia", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Cardiologia", "again")
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Exact match is case-sensitive, so a different casing is a new name.
	_, err = svc.Create(ctx, "cardiologia", "")
	require.NoError(t, err)
}
