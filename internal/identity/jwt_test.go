package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTProvider_RoundTrip(t *testing.T) {
	p := NewJWTProvider("test-secret")

	token, err := p.Sign("user-42", "Ana", time.Minute)
	require.NoError(t, err)

	u, err := p.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", u.ID)
	assert.Equal(t, "Ana", u.Name)
}

func TestJWTProvider_WrongSecret(t *testing.T) {
	token, err := NewJWTProvider("secret-a").Sign("user-42", "", time.Minute)
	require.NoError(t, err)

	_, err = NewJWTProvider("secret-b").CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTProvider_Expired(t *testing.T) {
	p := NewJWTProvider("test-secret")

	token, err := p.Sign("user-42", "", -time.Minute)
	require.NoError(t, err)

	_, err = p.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTProvider_EmptySubject(t *testing.T) {
	p := NewJWTProvider("test-secret")

	token, err := p.Sign("", "", time.Minute)
	require.NoError(t, err)

	_, err = p.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTProvider_Garbage(t *testing.T) {
	p := NewJWTProvider("test-secret")

	_, err := p.CurrentUser(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	ctx = WithUser(ctx, &User{ID: "user-1"})
	u, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", u.ID)
}
