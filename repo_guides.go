package tourdesk

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Guides is the storage surface for guide assignments
type Guides interface {
	Get(ctx context.Context, id uuid.UUID) (*Guide, error)
	List(ctx context.Context, limit, offset int) ([]*Guide, error)
	Create(ctx context.Context, record *Guide, criteria ...repository.InsertCriteria) (*Guide, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Guide, criteria ...repository.InsertCriteria) (*Guide, error)
	Update(ctx context.Context, record *Guide) (*Guide, error)
	Delete(ctx context.Context, id uuid.UUID) (*Guide, error)
}

type guides struct {
	repository.Repository[*Guide]
	db *bun.DB
}

var _ Guides = (*guides)(nil)

func NewGuidesRepository(db *bun.DB) Guides {
	repo := repository.NewRepository[*Guide](db, repository.ModelHandlers[*Guide]{
		NewRecord: func() *Guide { return &Guide{} },
		GetID: func(g *Guide) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *Guide, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
	})

	return &guides{
		Repository: repo,
		db:         db,
	}
}

// Get loads the guide with its user and operator relations, the shape list
// and detail responses expose.
func (r *guides) Get(ctx context.Context, id uuid.UUID) (*Guide, error) {
	record := &Guide{}
	err := r.db.NewSelect().
		Model(record).
		Relation("User").
		Relation("Operator").
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

func (r *guides) List(ctx context.Context, limit, offset int) ([]*Guide, error) {
	records := []*Guide{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("User").
		Relation("Operator").
		Limit(clampLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *guides) Create(ctx context.Context, record *Guide, criteria ...repository.InsertCriteria) (*Guide, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *guides) CreateTx(ctx context.Context, tx bun.IDB, record *Guide, criteria ...repository.InsertCriteria) (*Guide, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *guides) Update(ctx context.Context, record *Guide) (*Guide, error) {
	now := time.Now()
	record.UpdatedAt = &now
	if _, err := r.Repository.Update(ctx, record, repository.UpdateByID(record.ID.String())); err != nil {
		return nil, err
	}
	return r.Get(ctx, record.ID)
}

func (r *guides) Delete(ctx context.Context, id uuid.UUID) (*Guide, error) {
	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.NewDelete().
		Model((*Guide)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}
