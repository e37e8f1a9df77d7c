package soldier

import "time"

// Type distinguishes enlisted soldiers from cadre (NCOs and officers).
type Type string

const (
	Enlisted Type = "enlisted"
	NCO      Type = "nco"
)

// Soldier mirrors the soldiers table. Password holds a bcrypt hash.
// VerifiedAt/RejectedAt track account approval, which is outside this
// service's scope but kept for schema compatibility.
type Soldier struct {
	SN         string     `gorm:"column:sn;primaryKey" json:"sn"`
	Name       string     `gorm:"column:name" json:"name"`
	Password   string     `gorm:"column:password" json:"-"`
	Type       Type       `gorm:"column:type" json:"type"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
	VerifiedAt *time.Time `gorm:"column:verified_at" json:"-"`
	RejectedAt *time.Time `gorm:"column:rejected_at" json:"-"`
	DeletedAt  *time.Time `gorm:"column:deleted_at" json:"-"`
	DeletedBy  *string    `gorm:"column:deleted_by" json:"-"`

	// Permissions is loaded from the permissions table, not a gorm relation.
	Permissions []Permission `gorm:"-" json:"permissions"`
}

func (Soldier) TableName() string { return "soldiers" }

// Has reports whether the soldier holds the given permission tag.
func (s *Soldier) Has(p Permission) bool {
	for _, held := range s.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// CommanderRoles returns the commander-role tags the soldier holds, in the
// fixed role order.
func (s *Soldier) CommanderRoles() []Permission {
	var out []Permission
	for _, role := range AllCommanderRoles {
		if s.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

// PermissionRow mirrors the permissions table, one tag per row.
type PermissionRow struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SoldiersID string    `gorm:"column:soldiers_id;index"`
	Value      string    `gorm:"column:value"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (PermissionRow) TableName() string { return "permissions" }

// Models lists the gorm models owned by this package, for migration.
func Models() []any {
	return []any{&Soldier{}, &PermissionRow{}}
}
