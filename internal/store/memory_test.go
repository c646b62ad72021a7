package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/notification"
)

func TestMemoryContract(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := mustUser(t, s, "dave")

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	got.TotalPoints = 5000
	got.Badges[uuid.New()] = got.CreatedAt

	again, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, again.TotalPoints)
	assert.Empty(t, again.Badges)
}

func TestMemoryDeviceTokenMovesBetweenUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := mustUser(t, s, "erin")
	b := mustUser(t, s, "frank")

	require.NoError(t, s.RegisterDevice(ctx, a.ID, notification.DeviceToken{Token: "tok", Platform: "android"}))
	require.NoError(t, s.RegisterDevice(ctx, b.ID, notification.DeviceToken{Token: "tok", Platform: "android"}))

	aTokens, err := s.ListDeviceTokens(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, aTokens)

	bTokens, err := s.ListDeviceTokens(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, bTokens, 1)
}
