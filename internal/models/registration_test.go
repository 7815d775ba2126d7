package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationStatusTransition(t *testing.T) {
	next, err := RegistrationPending.Transition(RegistrationApproved)
	require.NoError(t, err)
	assert.Equal(t, RegistrationApproved, next)

	next, err = RegistrationPending.Transition(RegistrationRejected)
	require.NoError(t, err)
	assert.Equal(t, RegistrationRejected, next)

	illegal := [][2]RegistrationStatus{
		{RegistrationApproved, RegistrationRejected},
		{RegistrationApproved, RegistrationApproved},
		{RegistrationRejected, RegistrationApproved},
		{RegistrationRejected, RegistrationPending},
		{RegistrationPending, RegistrationPending},
	}
	for _, pair := range illegal {
		got, err := pair[0].Transition(pair[1])
		assert.True(t, errors.Is(err, ErrIllegalTransition), "%s -> %s", pair[0], pair[1])
		assert.Equal(t, pair[0], got)
	}
}

func TestSplitFullName(t *testing.T) {
	first, last := SplitFullName("Ada Lovelace")
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "Lovelace", last)

	first, last = SplitFullName("Madonna")
	assert.Equal(t, "Madonna", first)
	assert.Equal(t, "Madonna", last)

	first, last = SplitFullName("  Chidi   Anagonye  Okafor ")
	assert.Equal(t, "Chidi", first)
	assert.Equal(t, "Anagonye Okafor", last)
}

func TestRequestedRoleTables(t *testing.T) {
	cases := []struct {
		role    RequestedRole
		prefix  string
		account UserRole
		profile ProfileKind
	}{
		{RequestedSupervisor, "SUP", RoleSupervisor, ProfileSupervisor},
		{RequestedHR, "HR", RoleSecretary, ProfileSecretary},
		{RequestedSecretary, "SEC", RoleSecretary, ProfileSecretary},
		{RequestedGeneralSupervisor, "GSUP", RoleGeneralSupervisor, ProfileSupervisor},
		{RequestedGuard, "GRD", RoleOperator, ProfileOperator},
	}
	for _, tc := range cases {
		assert.True(t, tc.role.Valid())
		assert.Equal(t, tc.prefix, tc.role.EmployeeIDPrefix())
		assert.Equal(t, tc.account, tc.role.AccountRole())
		assert.Equal(t, tc.profile, tc.role.Profile())
	}
	assert.False(t, RequestedRole("JANITOR").Valid())
	assert.Len(t, RequestedRoles, len(cases))
}

func TestNewStatsWindow(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	now := time.Date(2024, 3, 14, 9, 30, 0, 0, loc)

	w := NewStatsWindow(now)

	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, loc), w.DayStart)
	assert.Equal(t, now.Add(-168*time.Hour), w.WeekStart)
}

func TestRedactedDropsPassword(t *testing.T) {
	pw := "Gf@GRD00001abc"
	req := RegistrationRequest{ID: "r1", GeneratedPassword: &pw}

	red := req.Redacted()

	assert.Nil(t, red.GeneratedPassword)
	assert.NotNil(t, req.GeneratedPassword)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "new.guard@x.com", NormalizeEmail("  New.Guard@X.com "))
}
