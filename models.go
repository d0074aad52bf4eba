package tourdesk

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleName is the label stored in the roles lookup table
type RoleName string

const (
	// RoleAdmin may manage operators and guides
	RoleAdmin RoleName = "ADMIN"
	// RoleUser is a regular account
	RoleUser RoleName = "USER"
	// RoleGuest is a read-only visitor account
	RoleGuest RoleName = "GUEST"
)

// StatusName is the label stored in the statuses lookup table
type StatusName string

const (
	StatusActive   StatusName = "ACTIVE"
	StatusInactive StatusName = "INACTIVE"
)

// Conventional lookup-row ids, matching the seeded fixtures. Rows are real
// foreign-key targets, not embedded enums, so the labels can be edited
// without rewriting user records.
const (
	RoleIDAdmin = 1
	RoleIDUser  = 2
	RoleIDGuest = 3

	StatusIDActive   = 1
	StatusIDInactive = 2
)

// Role is a lookup-table row users reference by id
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            int64    `bun:"id,pk,autoincrement" json:"id"`
	Name          RoleName `bun:"name,notnull,unique" json:"name"`
}

// Status is a lookup-table row users reference by id
type Status struct {
	bun.BaseModel `bun:"table:statuses,alias:sts"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Name          StatusName `bun:"name,notnull,unique" json:"name"`
}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RoleID        int64      `bun:"role_id,notnull" json:"role_id,omitempty"`
	StatusID      int64      `bun:"status_id,notnull" json:"status_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Status        *Status    `bun:"rel:belongs-to,join:status_id=id" json:"status,omitempty"`
	NationalID    string     `bun:"national_id,notnull,unique" json:"national_id,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// RoleName resolves the current role label, falling back to the id
// convention when the relation was not loaded.
func (u *User) RoleName() RoleName {
	if u.Role != nil {
		return u.Role.Name
	}
	return roleNameFromID(u.RoleID)
}

// StatusName resolves the current status label, falling back to the id
// convention when the relation was not loaded.
func (u *User) StatusName() StatusName {
	if u.Status != nil {
		return u.Status.Name
	}
	return statusNameFromID(u.StatusID)
}

// IsActive reports whether the user's current status allows access.
func (u *User) IsActive() bool {
	return u.StatusName() == StatusActive
}

// IsSuperuser reports whether the user's current role is ADMIN.
func (u *User) IsSuperuser() bool {
	return u.RoleName() == RoleAdmin
}

// Operator is a tour-operator company
type Operator struct {
	bun.BaseModel `bun:"table:operators,alias:opr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	LegalName     string     `bun:"legal_name" json:"legal_name,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Address       string     `bun:"address" json:"address,omitempty"`
	CreatedByID   uuid.UUID  `bun:"created_by_id,nullzero,type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID   uuid.UUID  `bun:"updated_by_id,nullzero,type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Guide links a user to the operator they guide for
type Guide struct {
	bun.BaseModel `bun:"table:guides,alias:gde"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	OperatorID    uuid.UUID  `bun:"operator_id,notnull,type:uuid" json:"operator_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Operator      *Operator  `bun:"rel:belongs-to,join:operator_id=id" json:"operator,omitempty"`
	Rating        int        `bun:"rating" json:"rating,omitempty"`
	Languages     []string   `bun:"languages,type:jsonb" json:"languages,omitempty"`
	CreatedByID   uuid.UUID  `bun:"created_by_id,nullzero,type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID   uuid.UUID  `bun:"updated_by_id,nullzero,type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

func roleNameFromID(id int64) RoleName {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDUser:
		return RoleUser
	case RoleIDGuest:
		return RoleGuest
	default:
		return ""
	}
}

func statusNameFromID(id int64) StatusName {
	switch id {
	case StatusIDActive:
		return StatusActive
	case StatusIDInactive:
		return StatusInactive
	default:
		return ""
	}
}
