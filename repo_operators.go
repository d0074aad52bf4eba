package tourdesk

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Operators is the storage surface for operator companies
type Operators interface {
	Get(ctx context.Context, id uuid.UUID) (*Operator, error)
	List(ctx context.Context, limit, offset int) ([]*Operator, error)
	Create(ctx context.Context, record *Operator, criteria ...repository.InsertCriteria) (*Operator, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Operator, criteria ...repository.InsertCriteria) (*Operator, error)
	Update(ctx context.Context, record *Operator) (*Operator, error)
	Delete(ctx context.Context, id uuid.UUID) (*Operator, error)
}

type operators struct {
	repository.Repository[*Operator]
	db *bun.DB
}

var _ Operators = (*operators)(nil)

func NewOperatorsRepository(db *bun.DB) Operators {
	repo := repository.NewRepository[*Operator](db, repository.ModelHandlers[*Operator]{
		NewRecord: func() *Operator { return &Operator{} },
		GetID: func(o *Operator) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Operator, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
	})

	return &operators{
		Repository: repo,
		db:         db,
	}
}

func (r *operators) Get(ctx context.Context, id uuid.UUID) (*Operator, error) {
	record := &Operator{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (r *operators) List(ctx context.Context, limit, offset int) ([]*Operator, error) {
	records := []*Operator{}
	err := r.db.NewSelect().
		Model(&records).
		Limit(clampLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *operators) Create(ctx context.Context, record *Operator, criteria ...repository.InsertCriteria) (*Operator, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *operators) CreateTx(ctx context.Context, tx bun.IDB, record *Operator, criteria ...repository.InsertCriteria) (*Operator, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Update writes the patch record and stamps updated_at; the caller is
// responsible for setting UpdatedByID before calling.
func (r *operators) Update(ctx context.Context, record *Operator) (*Operator, error) {
	now := time.Now()
	record.UpdatedAt = &now
	if _, err := r.Repository.Update(ctx, record, repository.UpdateByID(record.ID.String())); err != nil {
		return nil, err
	}
	return r.Get(ctx, record.ID)
}

// Delete removes the row, returning the record as it stood so the handler
// can echo it.
func (r *operators) Delete(ctx context.Context, id uuid.UUID) (*Operator, error) {
	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.NewDelete().
		Model((*Operator)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

// maxPageSize caps list page sizes the way the API contract does.
const maxPageSize = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
