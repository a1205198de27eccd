package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aau-transit/bustrack/internal/auth"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/model"
)

func ptr[T any](v T) *T { return &v }

func newService() *Service {
	return NewService(db.NewMemoryStore())
}

func TestCreate_Student(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	a, err := svc.Create(ctx, CreateInput{
		Kind:          model.KindStudent,
		Name:          " Lina Haddad ",
		Email:         "Lina@AAU.edu.jo",
		Password:      "bus2campus",
		StudentNumber: ptr("202012345"),
		Major:         ptr("Computer Science"),
		BusNumber:     ptr(3),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "Lina Haddad", a.Name)
	assert.Equal(t, "lina@aau.edu.jo", a.Email)
	assert.True(t, a.IsActive)
	assert.Nil(t, a.BusNumber, "driver fields are ignored for students")
	assert.NotEqual(t, "bus2campus", a.HashedPassword)
	assert.True(t, auth.CheckPassword(a.HashedPassword, "bus2campus"))
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"unknown kind", CreateInput{Kind: "conductor", Name: "x", Email: "x@aau.edu.jo", Password: "password1"}},
		{"missing name", CreateInput{Kind: model.KindAdmin, Email: "x@aau.edu.jo", Password: "password1"}},
		{"bad email", CreateInput{Kind: model.KindAdmin, Name: "x", Email: "not-an-email", Password: "password1"}},
		{"weak password", CreateInput{Kind: model.KindAdmin, Name: "x", Email: "x@aau.edu.jo", Password: "short"}},
		{"driver without bus", CreateInput{Kind: model.KindDriver, Name: "x", Email: "d@aau.edu.jo", Password: "password1", Phone: ptr("0790000000")}},
		{"student without number", CreateInput{Kind: model.KindStudent, Name: "x", Email: "s@aau.edu.jo", Password: "password1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	in := CreateInput{Kind: model.KindAdmin, Name: "Admin", Email: "admin@aau.edu.jo", Password: "password1"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	in.Email = "ADMIN@aau.edu.jo"
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NotErrorIs(t, err, ErrStudentNumberTaken)
}

func TestCreate_DuplicateStudentNumber(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Create(ctx, CreateInput{Kind: model.KindStudent, Name: "Sara", Email: "sara@aau.edu.jo", Password: "password1", StudentNumber: ptr("202012345")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Kind: model.KindStudent, Name: "Omar", Email: "omar@aau.edu.jo", Password: "password1", StudentNumber: ptr("202012345")})
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.ErrorIs(t, err, ErrStudentNumberTaken)
	assert.NotErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	driver, err := svc.Create(ctx, CreateInput{
		Kind: model.KindDriver, Name: "Omar", Email: "omar@aau.edu.jo", Password: "drive2024",
		BusNumber: ptr(7), Phone: ptr("0791234567"),
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "OMAR@aau.edu.jo", "drive2024", "")
	require.NoError(t, err)
	assert.Equal(t, driver.ID, got.ID)

	got, err = svc.Authenticate(ctx, "omar@aau.edu.jo", "drive2024", model.KindDriver)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, got.ID)

	_, err = svc.Authenticate(ctx, "omar@aau.edu.jo", "drive2024", model.KindStudent)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "omar@aau.edu.jo", "wrong-pass1", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@aau.edu.jo", "drive2024", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, svc.Delete(ctx, driver.ID, model.KindDriver))
	_, err = svc.Authenticate(ctx, "omar@aau.edu.jo", "drive2024", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_Deactivated(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	a, err := svc.Create(ctx, CreateInput{Kind: model.KindAdmin, Name: "A", Email: "a@aau.edu.jo", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, a.ID, "", UpdateInput{IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@aau.edu.jo", "password1", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	a, err := svc.Create(ctx, CreateInput{Kind: model.KindStudent, Name: "Sara", Email: "sara@aau.edu.jo", Password: "password1", StudentNumber: ptr("1")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Kind: model.KindStudent, Name: "Taken", Email: "taken@aau.edu.jo", Password: "password1", StudentNumber: ptr("2")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, model.KindStudent, UpdateInput{Name: ptr("Sara K."), Password: ptr("newpass99"), Major: ptr("Nursing")})
	require.NoError(t, err)
	assert.Equal(t, "Sara K.", updated.Name)
	assert.Equal(t, "sara@aau.edu.jo", updated.Email)
	require.NotNil(t, updated.Major)
	assert.Equal(t, "Nursing", *updated.Major)

	_, err = svc.Authenticate(ctx, "sara@aau.edu.jo", "newpass99", "")
	assert.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, model.KindStudent, UpdateInput{Email: ptr("taken@aau.edu.jo")})
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Update(ctx, a.ID, model.KindStudent, UpdateInput{StudentNumber: ptr("2")})
	assert.ErrorIs(t, err, ErrStudentNumberTaken)

	_, err = svc.Update(ctx, a.ID, model.KindDriver, UpdateInput{Name: ptr("x")})
	assert.ErrorIs(t, err, db.ErrNotFound, "kind mismatch looks like a missing account")

	_, err = svc.Update(ctx, uuid.New(), "", UpdateInput{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	a, err := svc.Create(ctx, CreateInput{Kind: model.KindAdmin, Name: "A", Email: "a@aau.edu.jo", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID, model.KindAdmin))
	_, err = svc.Get(ctx, a.ID, "")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, a.ID, model.KindAdmin), db.ErrNotFound)

	// the email is free again after deletion
	_, err = svc.Create(ctx, CreateInput{Kind: model.KindAdmin, Name: "B", Email: "a@aau.edu.jo", Password: "password1"})
	assert.NoError(t, err)
}
