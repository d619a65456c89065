package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

func setupAddressesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  line1 TEXT NOT NULL,
  line2 TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func baseInput() Input {
	return Input{
		Label:      "Hostel",
		Line1:      "Room 12, Block A",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Phone:      "9999900000",
	}
}

func TestCreateAndResolve(t *testing.T) {
	svc, err := NewService(NewRepository(setupAddressesTestDB(t)))
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()

	addr, err := svc.Create(ctx, userID, baseInput())
	require.NoError(t, err)

	got, err := svc.ResolveForUser(ctx, userID, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, addr.ID, got.ID)
}

func TestResolveHidesOtherUsersAddresses(t *testing.T) {
	svc, err := NewService(NewRepository(setupAddressesTestDB(t)))
	require.NoError(t, err)

	ctx := context.Background()
	owner := uuid.New()
	addr, err := svc.Create(ctx, owner, baseInput())
	require.NoError(t, err)

	// Another purchaser sees not-found, not forbidden, to avoid leaking
	// address existence.
	_, err = svc.ResolveForUser(ctx, uuid.New(), addr.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, err := NewService(NewRepository(setupAddressesTestDB(t)))
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()
	addr, err := svc.Create(ctx, userID, baseInput())
	require.NoError(t, err)

	input := baseInput()
	input.City = "Mumbai"
	updated, err := svc.Update(ctx, userID, addr.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.City)

	require.NoError(t, svc.Delete(ctx, userID, addr.ID))
	_, err = svc.ResolveForUser(ctx, userID, addr.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSnapshotCopiesFields(t *testing.T) {
	svc, err := NewService(NewRepository(setupAddressesTestDB(t)))
	require.NoError(t, err)

	addr, err := svc.Create(context.Background(), uuid.New(), baseInput())
	require.NoError(t, err)

	snap := Snapshot(addr)
	assert.Equal(t, addr.Line1, snap.Line1)
	assert.Equal(t, addr.PostalCode, snap.PostalCode)
	assert.False(t, snap.IsZero())
}
