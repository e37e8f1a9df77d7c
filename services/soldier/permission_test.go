package soldier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"milpoint/pkg/errutil"
)

func TestHasPermission(t *testing.T) {
	held := []Permission{GivePoint, AmmoCommander}

	require.True(t, HasPermission(held, []Permission{GivePoint}))
	require.True(t, HasPermission(held, []Permission{Admin, AmmoCommander}))
	require.False(t, HasPermission(held, []Permission{Admin, PointAdmin}))
	require.False(t, HasPermission(nil, []Permission{GivePoint}))
	require.False(t, HasPermission(held, nil))
}

func TestIsCommanderRole(t *testing.T) {
	for _, role := range AllCommanderRoles {
		require.True(t, IsCommanderRole(role))
	}
	require.False(t, IsCommanderRole(Admin))
	require.False(t, IsCommanderRole(Permission("BattalionMascot")))
}

func TestCommanderRoles(t *testing.T) {
	sol := &Soldier{Permissions: []Permission{HqCommander, GivePoint, AmmoCommander}}

	// Role order is fixed regardless of the order the tags were granted in.
	require.Equal(t, []Permission{AmmoCommander, HqCommander}, sol.CommanderRoles())
	require.Empty(t, (&Soldier{Permissions: []Permission{GivePoint}}).CommanderRoles())
}

func TestCheckPointLimit(t *testing.T) {
	cases := []struct {
		name  string
		value int64
		held  []Permission
		want  errutil.CoreStatus
	}{
		{name: "admin uncapped", value: 500, held: []Permission{Admin}},
		{name: "point admin uncapped", value: -500, held: []Permission{PointAdmin}},
		{name: "large grant at cap", value: 10, held: []Permission{GiveLargePoint}},
		{name: "large grant over cap", value: 11, held: []Permission{GiveLargePoint}, want: errutil.StatusForbidden},
		{name: "large grant negative over cap", value: -11, held: []Permission{GiveLargePoint}, want: errutil.StatusForbidden},
		{name: "basic grant at cap", value: -5, held: []Permission{GivePoint}},
		{name: "basic grant over cap", value: 6, held: []Permission{GivePoint}, want: errutil.StatusForbidden},
		{name: "large grant shadows basic", value: 8, held: []Permission{GivePoint, GiveLargePoint}},
		{name: "no grant", value: 1, held: []Permission{UsePoint}, want: errutil.StatusForbidden},
		{name: "empty", value: 1, want: errutil.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPointLimit(tc.value, tc.held)
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			var be errutil.BaseError
			require.ErrorAs(t, err, &be)
			require.Equal(t, tc.want, be.Code)
		})
	}
}
