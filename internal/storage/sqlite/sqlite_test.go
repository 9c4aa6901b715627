package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmind/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnsureAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.EnsureAdmin(ctx, "admin", "admin123"))
	require.NoError(t, store.EnsureAdmin(ctx, "admin", "other"))

	user, err := store.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestStudentRegistrationAndLogin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.RegisterStudent(ctx, "narayan", "student123"))

	user, err := store.Authenticate(ctx, "narayan", "student123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.True(t, user.Approved)

	_, err = store.Authenticate(ctx, "narayan", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.Authenticate(ctx, "nobody", "student123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.RegisterStudent(ctx, "dup", "pw"))
	assert.ErrorIs(t, store.RegisterStudent(ctx, "dup", "pw2"), ErrUsernameTaken)
	assert.ErrorIs(t, store.RegisterStaff(ctx, "dup", "pw3", "SOET"), ErrUsernameTaken)
}

func TestStaffApprovalWorkflow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.RegisterStaff(ctx, "prof", "pw", "SOM"))

	_, err := store.Authenticate(ctx, "prof", "pw")
	assert.ErrorIs(t, err, ErrApprovalPending)

	pending, err := store.PendingStaff(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "prof", pending[0].Username)
	assert.Equal(t, "SOM", pending[0].School)

	require.NoError(t, store.Approve(ctx, pending[0].ID))

	user, err := store.Authenticate(ctx, "prof", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, user.Role)

	pending, err = store.PendingStaff(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAnalyticsCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.RegisterStudent(ctx, "s1", "pw"))
	require.NoError(t, store.RegisterStudent(ctx, "s2", "pw"))
	require.NoError(t, store.RegisterStaff(ctx, "t1", "pw", "SOET"))

	students, staff, err := store.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, students)
	assert.Equal(t, 0, staff, "unapproved staff are not counted")

	pending, err := store.PendingStaff(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Approve(ctx, pending[0].ID))

	_, staff, err = store.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, staff)
}

func TestPYQCatalogSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.InsertPYQ(ctx, domain.CatalogEntry{
		Subject: "Data Structures", SubjectCode: "CS201", Year: 2025,
		School: "SOET", Course: "B.Tech", FilePath: "documents/pyqs/cs201.pdf",
	}))
	require.NoError(t, store.InsertPYQ(ctx, domain.CatalogEntry{
		Subject: "Thermodynamics", SubjectCode: "ME102", Year: 2024,
		FilePath: "documents/pyqs/me102.pdf",
	}))

	byName, err := store.SearchPYQs(ctx, "structures")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "CS201", byName[0].SubjectCode)

	byCode, err := store.SearchPYQs(ctx, "ME1")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "Thermodynamics", byCode[0].Subject)

	none, err := store.SearchPYQs(ctx, "biology")
	require.NoError(t, err)
	assert.Empty(t, none)
}
