package point

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"milpoint/pkg/errutil"
	"milpoint/services/soldier"
	"milpoint/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// directoryStub replaces the soldier service. CurrentSoldier returns whoever
// the test signed in as; FetchSoldier resolves against a fixed roster.
type directoryStub struct {
	current *soldier.Soldier
	roster  map[string]*soldier.Soldier
}

func (d *directoryStub) CurrentSoldier(ctx context.Context) (*soldier.Soldier, error) {
	if d.current == nil {
		return nil, errutil.Unauthorized("please sign in and retry")
	}
	return d.current, nil
}

func (d *directoryStub) FetchSoldier(ctx context.Context, sn string) (*soldier.Soldier, error) {
	return d.roster[sn], nil
}

func newTestService(t *testing.T) (*Service, *directoryStub, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, append(soldier.Models(), Models()...)...)
	dir := &directoryStub{roster: map[string]*soldier.Soldier{}}
	svc := NewService(ServiceParams{DB: db, Directory: dir})
	return svc, dir, db
}

// enroll registers a soldier with the directory stub and persists the row, so
// code paths that read the soldiers table directly (row locking in redeem)
// see the same roster.
func enroll(t *testing.T, db *gorm.DB, dir *directoryStub, sn, name string, typ soldier.Type, perms ...soldier.Permission) *soldier.Soldier {
	t.Helper()

	sol := &soldier.Soldier{SN: sn, Name: name, Type: typ, Permissions: perms}
	require.NoError(t, db.Create(sol).Error)
	dir.roster[sn] = sol
	return sol
}

func requireStatus(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()

	require.Error(t, err)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "expected BaseError, got %T: %v", err, err)
	require.Equal(t, want, be.Code)
}

func givenAt() time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestCreatePoint_Validation(t *testing.T) {
	svc, dir, db := newTestService(t)
	nco := enroll(t, db, dir, "24-70000001", "Sgt Kim", soldier.NCO, soldier.GivePoint)
	enroll(t, db, dir, "24-70000002", "Pvt Lee", soldier.Enlisted)
	dir.current = nco

	cases := []struct {
		name string
		req  CreateRequest
		want errutil.CoreStatus
	}{
		{
			name: "missing reason",
			req:  CreateRequest{Value: 1, ReceiverID: "24-70000002", Reason: "  ", GivenAt: givenAt()},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "fractional value",
			req:  CreateRequest{Value: 1.5, ReceiverID: "24-70000002", Reason: "exercise merit", GivenAt: givenAt()},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "zero value",
			req:  CreateRequest{Value: 0, ReceiverID: "24-70000002", Reason: "exercise merit", GivenAt: givenAt()},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "missing target",
			req:  CreateRequest{Value: 1, Reason: "exercise merit", GivenAt: givenAt()},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "unknown target",
			req:  CreateRequest{Value: 1, ReceiverID: "no-such-sn", Reason: "exercise merit", GivenAt: givenAt()},
			want: errutil.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireStatus(t, svc.CreatePoint(context.Background(), tc.req), tc.want)
		})
	}

	var count int64
	require.NoError(t, db.Model(&Point{}).Count(&count).Error)
	require.Zero(t, count, "rejected requests must not insert rows")
}

func TestCreatePoint_PeerRequest(t *testing.T) {
	svc, dir, db := newTestService(t)
	enlisted := enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	enroll(t, db, dir, "24-70000002", "Sgt Kim", soldier.NCO, soldier.GivePoint)
	dir.current = enlisted

	err := svc.CreatePoint(context.Background(), CreateRequest{
		Value:   2,
		GiverID: "24-70000002",
		Reason:  "barracks cleanup",
		GivenAt: givenAt(),
	})
	require.NoError(t, err)

	var record Point
	require.NoError(t, db.First(&record).Error)
	require.Equal(t, "24-70000002", record.GiverID)
	require.Equal(t, "24-70000001", record.ReceiverID)
	require.EqualValues(t, 2, record.Value)
	require.Nil(t, record.CommanderRole)
	require.True(t, record.Pending())
}

func TestCreatePoint_SelfAward(t *testing.T) {
	svc, dir, db := newTestService(t)
	enlisted := enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	dir.current = enlisted

	err := svc.CreatePoint(context.Background(), CreateRequest{
		Value:   2,
		GiverID: enlisted.SN,
		Reason:  "barracks cleanup",
		GivenAt: givenAt(),
	})
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestCreatePoint_CommanderAward(t *testing.T) {
	svc, dir, db := newTestService(t)
	nco := enroll(t, db, dir, "24-70000001", "Sgt Kim", soldier.NCO, soldier.GivePoint)
	enroll(t, db, dir, "24-70000002", "Pvt Lee", soldier.Enlisted)
	dir.current = nco

	err := svc.CreatePoint(context.Background(), CreateRequest{
		Value:         -3,
		ReceiverID:    "24-70000002",
		Reason:        "late to formation",
		GivenAt:       givenAt(),
		CommanderRole: string(soldier.AmmoCommander),
	})
	require.NoError(t, err)

	var record Point
	require.NoError(t, db.First(&record).Error)
	require.Equal(t, nco.SN, record.GiverID)
	require.Equal(t, "24-70000002", record.ReceiverID)
	require.EqualValues(t, -3, record.Value)
	require.NotNil(t, record.CommanderRole)
	require.Equal(t, string(soldier.AmmoCommander), *record.CommanderRole)
	require.True(t, record.Pending())
}

func TestCreatePoint_CommanderRoleRequired(t *testing.T) {
	svc, dir, db := newTestService(t)
	nco := enroll(t, db, dir, "24-70000001", "Sgt Kim", soldier.NCO, soldier.GivePoint)
	enroll(t, db, dir, "24-70000002", "Pvt Lee", soldier.Enlisted)
	dir.current = nco

	err := svc.CreatePoint(context.Background(), CreateRequest{
		Value:      1,
		ReceiverID: "24-70000002",
		Reason:     "exercise merit",
		GivenAt:    givenAt(),
	})
	requireStatus(t, err, errutil.StatusValidationFailed)

	err = svc.CreatePoint(context.Background(), CreateRequest{
		Value:         1,
		ReceiverID:    "24-70000002",
		Reason:        "exercise merit",
		GivenAt:       givenAt(),
		CommanderRole: "BattalionMascot",
	})
	requireStatus(t, err, errutil.StatusValidationFailed)
}

func TestCreatePoint_MagnitudeCap(t *testing.T) {
	svc, dir, db := newTestService(t)
	enroll(t, db, dir, "24-70000002", "Pvt Lee", soldier.Enlisted)

	cases := []struct {
		name  string
		perms []soldier.Permission
		value float64
		want  errutil.CoreStatus
	}{
		{name: "give point within cap", perms: []soldier.Permission{soldier.GivePoint}, value: 5},
		{name: "give point over cap", perms: []soldier.Permission{soldier.GivePoint}, value: 6, want: errutil.StatusForbidden},
		{name: "large within cap", perms: []soldier.Permission{soldier.GiveLargePoint}, value: -10},
		{name: "large over cap", perms: []soldier.Permission{soldier.GiveLargePoint}, value: -11, want: errutil.StatusForbidden},
		{name: "point admin uncapped", perms: []soldier.Permission{soldier.PointAdmin}, value: 100},
		{name: "no grant at all", perms: nil, value: 1, want: errutil.StatusForbidden},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir.current = &soldier.Soldier{SN: "giver", Name: "Giver", Type: soldier.NCO, Permissions: tc.perms}
			err := svc.CreatePoint(context.Background(), CreateRequest{
				Value:         tc.value,
				ReceiverID:    "24-70000002",
				Reason:        "exercise merit",
				GivenAt:       givenAt(),
				CommanderRole: string(soldier.GuardCommander),
			})
			if tc.want == "" {
				require.NoError(t, err, "case %d", i)
			} else {
				requireStatus(t, err, tc.want)
			}
		})
	}
}

func seedPoint(t *testing.T, db *gorm.DB, record *Point) *Point {
	t.Helper()
	require.NoError(t, db.Create(record).Error)
	return record
}

func strptr(s string) *string { return &s }

func TestFetchPendingPoints(t *testing.T) {
	svc, dir, db := newTestService(t)

	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "peer request", Value: 1})
	seedPoint(t, db, &Point{GiverID: "sgt-2", ReceiverID: "pvt-1", Reason: "other peer request", Value: 1})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-2", Reason: "ammo queue", Value: 2, CommanderRole: strptr(string(soldier.AmmoCommander))})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-2", Reason: "guard queue", Value: 2, CommanderRole: strptr(string(soldier.GuardCommander))})
	now := time.Now()
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "already decided", Value: 1, VerifiedAt: &now})

	t.Run("admin sees every pending record", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "adm", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.Admin}}
		records, err := svc.FetchPendingPoints(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 4)
	})

	t.Run("commander sees only their role queue", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "cmd", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.AmmoCommander}}
		records, err := svc.FetchPendingPoints(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "ammo queue", records[0].Reason)
	})

	t.Run("plain cadre sees peer requests addressed to them", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}
		records, err := svc.FetchPendingPoints(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "peer request", records[0].Reason)
	})
}

func TestVerifyPoint_PeerApprove(t *testing.T) {
	svc, dir, db := newTestService(t)
	record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "barracks cleanup", Value: 2})
	dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}

	require.NoError(t, svc.VerifyPoint(context.Background(), record.ID, true, ""))

	var got Point
	require.NoError(t, db.First(&got, record.ID).Error)
	require.NotNil(t, got.VerifiedAt)
	require.Nil(t, got.RejectedAt)
}

func TestVerifyPoint_PeerReject(t *testing.T) {
	svc, dir, db := newTestService(t)
	record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "barracks cleanup", Value: 2})
	dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}

	requireStatus(t, svc.VerifyPoint(context.Background(), record.ID, false, "   "), errutil.StatusValidationFailed)

	require.NoError(t, svc.VerifyPoint(context.Background(), record.ID, false, "not performed"))

	var got Point
	require.NoError(t, db.First(&got, record.ID).Error)
	require.Nil(t, got.VerifiedAt)
	require.NotNil(t, got.RejectedAt)
	require.NotNil(t, got.RejectedReason)
	require.Equal(t, "not performed", *got.RejectedReason)
}

func TestVerifyPoint_Authorization(t *testing.T) {
	svc, dir, db := newTestService(t)
	peer := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "peer request", Value: 2})
	commander := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "commander award", Value: 2, CommanderRole: strptr(string(soldier.AmmoCommander))})

	t.Run("enlisted cannot decide", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "pvt-1", Type: soldier.Enlisted}
		requireStatus(t, svc.VerifyPoint(context.Background(), peer.ID, true, ""), errutil.StatusForbidden)
	})

	t.Run("peer request is only the giver's to decide", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "sgt-2", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}
		requireStatus(t, svc.VerifyPoint(context.Background(), peer.ID, true, ""), errutil.StatusForbidden)
	})

	t.Run("commander award needs the stored role", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "cmd", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GuardCommander}}
		requireStatus(t, svc.VerifyPoint(context.Background(), commander.ID, true, ""), errutil.StatusForbidden)

		dir.current = &soldier.Soldier{SN: "cmd", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.AmmoCommander}}
		require.NoError(t, svc.VerifyPoint(context.Background(), commander.ID, true, ""))
	})

	t.Run("missing record", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO}
		requireStatus(t, svc.VerifyPoint(context.Background(), 99999, true, ""), errutil.StatusNotFound)
	})
}

func TestVerifyPoint_PeerApproveRechecksCap(t *testing.T) {
	svc, dir, db := newTestService(t)
	record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "big ask", Value: 8})
	dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}

	requireStatus(t, svc.VerifyPoint(context.Background(), record.ID, true, ""), errutil.StatusForbidden)

	// Rejection is allowed regardless of the cap.
	require.NoError(t, svc.VerifyPoint(context.Background(), record.ID, false, "over my limit"))
}

func TestVerifyPoint_AlreadyDecided(t *testing.T) {
	svc, dir, db := newTestService(t)
	record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "barracks cleanup", Value: 2})
	dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO, Permissions: []soldier.Permission{soldier.GivePoint}}

	require.NoError(t, svc.VerifyPoint(context.Background(), record.ID, true, ""))

	// A second decision, approve or reject, hits zero rows and conflicts.
	requireStatus(t, svc.VerifyPoint(context.Background(), record.ID, true, ""), errutil.StatusConflict)
	requireStatus(t, svc.VerifyPoint(context.Background(), record.ID, false, "too late"), errutil.StatusConflict)

	var got Point
	require.NoError(t, db.First(&got, record.ID).Error)
	require.NotNil(t, got.VerifiedAt)
	require.Nil(t, got.RejectedAt)
}

func TestDeletePoint(t *testing.T) {
	svc, dir, db := newTestService(t)

	t.Run("cadre cannot delete", func(t *testing.T) {
		record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "pending", Value: 1})
		dir.current = &soldier.Soldier{SN: "sgt-1", Type: soldier.NCO}
		requireStatus(t, svc.DeletePoint(context.Background(), record.ID), errutil.StatusForbidden)
	})

	t.Run("only the receiver may delete", func(t *testing.T) {
		record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "pending", Value: 1})
		dir.current = &soldier.Soldier{SN: "pvt-2", Type: soldier.Enlisted}
		requireStatus(t, svc.DeletePoint(context.Background(), record.ID), errutil.StatusForbidden)
	})

	t.Run("decided records are immutable", func(t *testing.T) {
		now := time.Now()
		record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "approved", Value: 1, VerifiedAt: &now})
		dir.current = &soldier.Soldier{SN: "pvt-1", Type: soldier.Enlisted}
		requireStatus(t, svc.DeletePoint(context.Background(), record.ID), errutil.StatusConflict)
	})

	t.Run("receiver withdraws a pending request", func(t *testing.T) {
		record := seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "pending", Value: 1})
		dir.current = &soldier.Soldier{SN: "pvt-1", Type: soldier.Enlisted}
		require.NoError(t, svc.DeletePoint(context.Background(), record.ID))

		err := db.First(&Point{}, record.ID).Error
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("missing record", func(t *testing.T) {
		dir.current = &soldier.Soldier{SN: "pvt-1", Type: soldier.Enlisted}
		requireStatus(t, svc.DeletePoint(context.Background(), 99999), errutil.StatusNotFound)
	})
}

func TestRedeemPoint(t *testing.T) {
	svc, dir, db := newTestService(t)
	enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	admin := enroll(t, db, dir, "24-70000009", "SSgt Park", soldier.NCO, soldier.UsePoint)

	now := time.Now()
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "24-70000001", Reason: "approved merit", Value: 5, VerifiedAt: &now})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "24-70000001", Reason: "still pending", Value: 100})

	dir.current = admin

	t.Run("insufficient balance counts approved records only", func(t *testing.T) {
		err := svc.RedeemPoint(context.Background(), RedeemRequest{Value: 6, UserID: "24-70000001", Reason: "phone time"})
		requireStatus(t, err, errutil.StatusConflict)
	})

	t.Run("redeems against the approved balance", func(t *testing.T) {
		require.NoError(t, svc.RedeemPoint(context.Background(), RedeemRequest{Value: 3, UserID: "24-70000001", Reason: "phone time"}))

		var used UsedPoint
		require.NoError(t, db.First(&used).Error)
		require.Equal(t, "24-70000001", used.UserID)
		require.Equal(t, admin.SN, used.RecordedBy)
		require.EqualValues(t, 3, used.Value)
	})

	t.Run("redeemed total debits the balance", func(t *testing.T) {
		err := svc.RedeemPoint(context.Background(), RedeemRequest{Value: 3, UserID: "24-70000001", Reason: "phone time"})
		requireStatus(t, err, errutil.StatusConflict)

		require.NoError(t, svc.RedeemPoint(context.Background(), RedeemRequest{Value: 2, UserID: "24-70000001", Reason: "phone time"}))
	})
}

func TestRedeemPoint_Guards(t *testing.T) {
	svc, dir, db := newTestService(t)
	enlisted := enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	plain := enroll(t, db, dir, "24-70000002", "Sgt Kim", soldier.NCO, soldier.GivePoint)

	cases := []struct {
		name string
		as   *soldier.Soldier
		req  RedeemRequest
		want errutil.CoreStatus
	}{
		{
			name: "missing reason",
			as:   plain,
			req:  RedeemRequest{Value: 1, UserID: enlisted.SN},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "non-positive value",
			as:   plain,
			req:  RedeemRequest{Value: 0, UserID: enlisted.SN, Reason: "phone time"},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "fractional value",
			as:   plain,
			req:  RedeemRequest{Value: 1.5, UserID: enlisted.SN, Reason: "phone time"},
			want: errutil.StatusValidationFailed,
		},
		{
			name: "enlisted cannot redeem",
			as:   enlisted,
			req:  RedeemRequest{Value: 1, UserID: enlisted.SN, Reason: "phone time"},
			want: errutil.StatusForbidden,
		},
		{
			name: "unknown target",
			as:   plain,
			req:  RedeemRequest{Value: 1, UserID: "no-such-sn", Reason: "phone time"},
			want: errutil.StatusNotFound,
		},
		{
			name: "missing redeem grant",
			as:   plain,
			req:  RedeemRequest{Value: 1, UserID: enlisted.SN, Reason: "phone time"},
			want: errutil.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir.current = tc.as
			requireStatus(t, svc.RedeemPoint(context.Background(), tc.req), tc.want)
		})
	}

	var count int64
	require.NoError(t, db.Model(&UsedPoint{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFetchPointSummary(t *testing.T) {
	svc, _, db := newTestService(t)

	now := time.Now()
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "merit", Value: 5, VerifiedAt: &now})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "merit", Value: 3, VerifiedAt: &now})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "demerit", Value: -2, VerifiedAt: &now})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-1", Reason: "pending merit", Value: 100})
	seedPoint(t, db, &Point{GiverID: "sgt-1", ReceiverID: "pvt-2", Reason: "someone else", Value: 7, VerifiedAt: &now})
	require.NoError(t, db.Create(&UsedPoint{UserID: "pvt-1", RecordedBy: "adm", Reason: "phone time", Value: 4}).Error)

	summary, err := svc.FetchPointSummary(context.Background(), "pvt-1")
	require.NoError(t, err)
	require.EqualValues(t, 8, summary.Merit)
	require.EqualValues(t, 2, summary.Demerit)
	require.EqualValues(t, 4, summary.UsedMerit)
}

func TestListPoints(t *testing.T) {
	svc, dir, db := newTestService(t)
	enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	enroll(t, db, dir, "24-70000002", "Sgt Kim", soldier.NCO, soldier.GivePoint)

	seedPoint(t, db, &Point{GiverID: "24-70000002", ReceiverID: "24-70000001", Reason: "received", Value: 1})
	seedPoint(t, db, &Point{GiverID: "24-70000002", ReceiverID: "pvt-9", Reason: "given elsewhere", Value: 1})
	require.NoError(t, db.Create(&UsedPoint{UserID: "24-70000001", RecordedBy: "adm", Reason: "phone time", Value: 1}).Error)

	t.Run("enlisted history lists received records and redemptions", func(t *testing.T) {
		listing, err := svc.ListPoints(context.Background(), "24-70000001", 0)
		require.NoError(t, err)
		require.EqualValues(t, 1, listing.Count)
		require.Len(t, listing.Data, 1)
		require.Equal(t, "received", listing.Data[0].Reason)
		require.Len(t, listing.UsedPoints, 1)
	})

	t.Run("cadre history lists given records", func(t *testing.T) {
		listing, err := svc.ListPoints(context.Background(), "24-70000002", 0)
		require.NoError(t, err)
		require.EqualValues(t, 2, listing.Count)
		require.Len(t, listing.Data, 2)
		require.Nil(t, listing.UsedPoints)
	})

	t.Run("unknown soldier", func(t *testing.T) {
		_, err := svc.ListPoints(context.Background(), "no-such-sn", 0)
		requireStatus(t, err, errutil.StatusNotFound)
	})
}

func TestFetchPoint(t *testing.T) {
	svc, dir, db := newTestService(t)
	enroll(t, db, dir, "24-70000001", "Pvt Lee", soldier.Enlisted)
	enroll(t, db, dir, "24-70000002", "Sgt Kim", soldier.NCO)
	record := seedPoint(t, db, &Point{GiverID: "24-70000002", ReceiverID: "24-70000001", Reason: "barracks cleanup", Value: 1})

	detail, err := svc.FetchPoint(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "Sgt Kim", detail.GiverName)
	require.Equal(t, "Pvt Lee", detail.ReceiverName)
	require.Equal(t, record.ID, detail.ID)

	_, err = svc.FetchPoint(context.Background(), 99999)
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestListPointTemplates(t *testing.T) {
	svc, _, db := newTestService(t)

	merit := int64(2)
	require.NoError(t, db.Create(&PointTemplate{Reason: "exercise merit", Merit: &merit}).Error)

	templates, err := svc.ListPointTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Equal(t, "exercise merit", templates[0].Reason)
}
