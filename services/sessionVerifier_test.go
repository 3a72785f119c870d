package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/models"
)

func seedStaff(t *testing.T, store *database.MemoryStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store.Seed(database.StaffCollection, map[string]bson.M{
		"st-1": {"email": "ana@pablos.ph", "password": string(hash), "firstName": "Ana", "lastName": "Cruz", "role": "admin"},
		"st-2": {"email": "ben@pablos.ph", "password": string(hash), "role": "Driver", "status": "inactive"},
	})
}

func TestLogin(t *testing.T) {
	app, store := newTestApp(t)
	seedStaff(t, store)
	ctx := context.Background()

	staff, err := app.Sessions.Login(ctx, " Ana@Pablos.ph ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "st-1", staff.ID)
	assert.Equal(t, models.RoleAdmin, staff.Role)
	assert.Equal(t, models.Session{StaffID: "st-1", Email: "ana@pablos.ph", Name: "Ana Cruz", Role: models.RoleAdmin}, SessionFor(staff))

	_, err = app.Sessions.Login(ctx, "ana@pablos.ph", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = app.Sessions.Login(ctx, "nobody@pablos.ph", "s3cret")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = app.Sessions.Login(ctx, "ben@pablos.ph", "s3cret")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = app.Sessions.Login(ctx, "", "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestVerify(t *testing.T) {
	app, store := newTestApp(t)
	seedStaff(t, store)
	ctx := context.Background()

	session, err := app.Sessions.Verify(ctx, models.Session{StaffID: "st-1", Email: "ana@pablos.ph", Role: models.RoleDriver})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Role)

	_, err = app.Sessions.Verify(ctx, models.Session{StaffID: "st-1", Email: "someone@else.ph"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = app.Sessions.Verify(ctx, models.Session{StaffID: "st-2", Email: "ben@pablos.ph"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = app.Sessions.Verify(ctx, models.Session{StaffID: "gone", Email: "x@y.z"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestListStaff_HidesPasswords(t *testing.T) {
	app, store := newTestApp(t)
	seedStaff(t, store)

	staff, err := app.Sessions.ListStaff(context.Background())
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Ana Cruz", staff[0].DisplayName())
	for _, s := range staff {
		assert.Empty(t, s.Password)
	}
}

func TestCustomerDirectory(t *testing.T) {
	app, store := newTestApp(t)
	store.Seed(database.CustomerCollection, map[string]bson.M{
		"c1": {"firstName": "Maria", "lastName": "Santos", "email": "maria@mail.ph"},
		"c2": {"firstName": "", "lastName": ""},
		"c3": {"displayName": "Jun"},
	})
	ctx := context.Background()

	c, err := app.Customers.Lookup(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", c.FullName)
	assert.Equal(t, "maria@mail.ph", c.Email)

	c, err = app.Customers.Lookup(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "User", c.FullName)

	c, err = app.Customers.Lookup(ctx, "c3")
	require.NoError(t, err)
	assert.Equal(t, "Jun", c.FullName)

	_, err = app.Customers.Lookup(ctx, "nope")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
