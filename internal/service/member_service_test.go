package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-vseg/piwo/internal/domain"
)

func TestRegister(t *testing.T) {
	svc := NewMemberService(newTestStorage(t))

	t.Run("regular member waits for approval", func(t *testing.T) {
		member, err := svc.Register(100, "Anna", "Janssen", false)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, member.Role)
		assert.False(t, member.Approved)
		assert.Len(t, member.ID, 20)
	})

	t.Run("admin is approved immediately", func(t *testing.T) {
		member, err := svc.Register(200, "Bram", "", true)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, member.Role)
		assert.True(t, member.Approved)
		assert.True(t, member.IsAdmin())
	})

	t.Run("duplicate telegram id", func(t *testing.T) {
		_, err := svc.Register(100, "Anna", "Janssen", false)
		assert.Error(t, err)
	})
}

func TestApprove(t *testing.T) {
	svc := NewMemberService(newTestStorage(t))

	member, err := svc.Register(100, "Anna", "Janssen", false)
	require.NoError(t, err)

	require.NoError(t, svc.Approve(member.ID))

	got, err := svc.Get(member.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)

	assert.ErrorIs(t, svc.Approve("nope"), domain.ErrNotFound)
}

func TestGetByTelegramID(t *testing.T) {
	svc := NewMemberService(newTestStorage(t))

	member, err := svc.Register(100, "Anna", "Janssen", false)
	require.NoError(t, err)

	got, err := svc.GetByTelegramID(100)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, member.ID, got.ID)

	// Unknown ids come back nil without an error, the caller decides.
	got, err = svc.GetByTelegramID(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListApproved(t *testing.T) {
	svc := NewMemberService(newTestStorage(t))

	_, err := svc.Register(100, "Anna", "Janssen", false)
	require.NoError(t, err)
	admin, err := svc.Register(200, "Bram", "", true)
	require.NoError(t, err)

	approved, err := svc.ListApproved()
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, admin.ID, approved[0].ID)
}

func TestDisplayNames(t *testing.T) {
	svc := NewMemberService(newTestStorage(t))

	anna, err := svc.Register(100, "Anna", "Janssen", false)
	require.NoError(t, err)
	bram, err := svc.Register(200, "Bram", "", true)
	require.NoError(t, err)

	names, err := svc.DisplayNames()
	require.NoError(t, err)
	assert.Equal(t, "Anna Janssen", names[anna.ID])
	assert.Equal(t, "Bram", names[bram.ID])
}

func TestDeleteAccount(t *testing.T) {
	store := newTestStorage(t)
	svc := NewMemberService(store)
	availability := NewAvailabilityService(store)

	member, err := svc.Register(100, "Anna", "Janssen", false)
	require.NoError(t, err)
	other, err := svc.Register(200, "Bram", "", false)
	require.NoError(t, err)

	require.NoError(t, availability.SetStatus("occ1", member.ID, statusPtr(domain.StatusPresent)))
	require.NoError(t, availability.SetStatus("occ2", member.ID, statusPtr(domain.StatusAbsent)))
	require.NoError(t, availability.SetStatus("occ1", other.ID, statusPtr(domain.StatusMaybe)))

	require.NoError(t, svc.DeleteAccount(member.ID))

	_, err = svc.Get(member.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	gone, err := availability.GetStatus("occ1", member.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := availability.GetStatus("occ1", other.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	assert.ErrorIs(t, svc.DeleteAccount("nope"), domain.ErrNotFound)
}
