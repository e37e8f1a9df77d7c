package point

import (
	"time"

	"gorm.io/datatypes"
)

// Point mirrors the points table: a single merit (value > 0) or demerit
// (value < 0) award. A record with neither verified_at nor rejected_at set is
// pending; the two are mutually exclusive, enforced by the conditional
// update in VerifyPoint.
type Point struct {
	ID             int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	GivenAt        datatypes.Date `gorm:"column:given_at" json:"given_at"`
	GiverID        string         `gorm:"column:giver_id" json:"giver_id"`
	ReceiverID     string         `gorm:"column:receiver_id" json:"receiver_id"`
	Reason         string         `gorm:"column:reason" json:"reason"`
	Value          int64          `gorm:"column:value" json:"value"`
	VerifiedAt     *time.Time     `gorm:"column:verified_at" json:"verified_at"`
	RejectedAt     *time.Time     `gorm:"column:rejected_at" json:"rejected_at"`
	RejectedReason *string        `gorm:"column:rejected_reason" json:"rejected_reason"`
	CommanderRole  *string        `gorm:"column:commander_role" json:"commander_role"`
}

func (Point) TableName() string { return "points" }

// ApprovalMode tags who may decide a pending record.
type ApprovalMode int

const (
	// ApprovalPeer: the named giver decides. Used for enlisted-initiated
	// requests.
	ApprovalPeer ApprovalMode = iota
	// ApprovalCommander: whoever holds the stored commander role decides.
	// Used for cadre-issued awards.
	ApprovalCommander
)

func (p *Point) Mode() ApprovalMode {
	if p.CommanderRole != nil && *p.CommanderRole != "" {
		return ApprovalCommander
	}
	return ApprovalPeer
}

func (p *Point) Pending() bool {
	return p.VerifiedAt == nil && p.RejectedAt == nil
}

// UsedPoint mirrors the used_points table: a redemption debiting the user's
// approved balance. Immutable once created.
type UsedPoint struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UserID     string    `gorm:"column:user_id" json:"user_id"`
	RecordedBy string    `gorm:"column:recorded_by" json:"recorded_by"`
	Reason     string    `gorm:"column:reason" json:"reason"`
	Value      int64     `gorm:"column:value" json:"value"`
}

func (UsedPoint) TableName() string { return "used_points" }

// PointTemplate mirrors the point_templates table: the static catalogue of
// award reasons with their merit/demerit values.
type PointTemplate struct {
	ID      int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Reason  string  `gorm:"column:reason" json:"reason"`
	Merit   *int64  `gorm:"column:merit" json:"merit"`
	Demerit *int64  `gorm:"column:demerit" json:"demerit"`
	Unit    *string `gorm:"column:unit" json:"unit"`
}

func (PointTemplate) TableName() string { return "point_templates" }

// Summary aggregates a soldier's approved merit, approved demerit (as a
// magnitude) and redeemed total.
type Summary struct {
	Merit     int64 `json:"merit"`
	Demerit   int64 `json:"demerit"`
	UsedMerit int64 `json:"used_merit"`
}

// PointDetail is a Point joined with the giver's and receiver's names.
type PointDetail struct {
	Point
	GiverName    string `json:"giver_name"`
	ReceiverName string `json:"receiver_name"`
}

// Listing is one page of a soldier's point history. UsedPoints is populated
// for enlisted soldiers only.
type Listing struct {
	Data       []*Point     `json:"data"`
	Count      int64        `json:"count"`
	UsedPoints []*UsedPoint `json:"used_points,omitempty"`
}

// Models lists the gorm models owned by this package, for migration.
func Models() []any {
	return []any{&Point{}, &UsedPoint{}, &PointTemplate{}}
}
