package tourdesk

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user storage surface. Reads used by the auth core always
// load the Role and Status relations so gates see the current labels.
type Users interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	List(ctx context.Context, limit, offset int) ([]*User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, statusID int64) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, roleID int64) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

// GetByIdentifierTx resolves a user by uuid or email, in that order of
// preference, loading the live Role and Status rows alongside.
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	for _, opt := range resolveUserIdentifier(identifier) {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Relation("Role").
			Relation("Status").
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if isNoRows(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) List(ctx context.Context, limit, offset int) ([]*User, error) {
	records := []*User{}
	err := a.db.NewSelect().
		Model(&records).
		Relation("Role").
		Relation("Status").
		Limit(clampLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatus points the user at a different status row. Already-issued
// tokens stay valid, but gates read the new status on their next call.
func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, statusID int64) (*User, error) {
	return a.updateReference(ctx, id, "status_id", statusID)
}

// UpdateRole points the user at a different role row.
func (a *users) UpdateRole(ctx context.Context, id uuid.UUID, roleID int64) (*User, error) {
	return a.updateReference(ctx, id, "role_id", roleID)
}

func (a *users) updateReference(ctx context.Context, id uuid.UUID, column string, value int64) (*User, error) {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set(fmt.Sprintf("%s = ?", column), value).
		Set("updated_at = ?", now).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.GetByIdentifier(ctx, id.String())
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.RoleID == 0 {
		record.RoleID = RoleIDUser
	}
	if record.StatusID == 0 {
		record.StatusID = StatusIDActive
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	if len(options) == 0 {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
