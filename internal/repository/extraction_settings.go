package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

const settingsTable = "extraction_settings"

type settingsRow struct {
	OwnerID   string    `sql:"owner_id"`
	APIKey    string    `sql:"api_key"`
	ModelName string    `sql:"model_name"`
	Enabled   bool      `sql:"enabled"`
	UpdatedAt time.Time `sql:"updated_at"`
}

type ExtractionSettingsRepository interface {
	// GetByOwner returns nil, nil when the owner has no settings row.
	GetByOwner(ctx context.Context, ownerID string) (*entity.ExtractionSettings, error)
	Upsert(ctx context.Context, s *entity.ExtractionSettings) error
}

type extractionSettingsRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionSettingsRepository(db *DB, log *slog.Logger) ExtractionSettingsRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionSettingsRepo{db: db, log: log}
}

func (r *extractionSettingsRepo) GetByOwner(ctx context.Context, ownerID string) (*entity.ExtractionSettings, error) {
	b := r.db.builder()
	q, args := b.Select("owner_id", "api_key", "model_name", "enabled", "updated_at").
		From(b.Table(settingsTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		Query()

	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, common.NewAppError(common.CodePersist, "query settings", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()
	var found []settingsRow
	if err := entsql.ScanSlice(rows, &found); err != nil {
		return nil, common.NewAppError(common.CodePersist, "scan settings", errors.Join(common.ErrDatabase, err))
	}
	if len(found) == 0 {
		return nil, nil
	}
	s := found[0]
	return &entity.ExtractionSettings{
		OwnerID:   s.OwnerID,
		APIKey:    s.APIKey,
		ModelName: s.ModelName,
		Enabled:   s.Enabled,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func (r *extractionSettingsRepo) Upsert(ctx context.Context, s *entity.ExtractionSettings) error {
	if err := s.Validate(); err != nil {
		return common.NewAppError(common.CodeValidation, "invalid settings", errors.Join(common.ErrValidation, err))
	}
	s.UpdatedAt = time.Now().UTC()
	q, args := r.db.builder().Insert(settingsTable).
		Columns("owner_id", "api_key", "model_name", "enabled", "updated_at").
		Values(s.OwnerID, s.APIKey, s.ModelName, s.Enabled, s.UpdatedAt).
		OnConflict(entsql.ConflictColumns("owner_id"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extraction_settings upsert failed", "owner_id", s.OwnerID, "err", err)
		return common.NewAppError(common.CodePersist, "upsert settings", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extraction_settings saved", "owner_id", s.OwnerID, "enabled", s.Enabled, "model", s.ModelName)
	return nil
}
