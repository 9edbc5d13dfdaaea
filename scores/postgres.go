package scores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type scoreRow struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID  string    `gorm:"column:session_id"`
	Score      int       `gorm:"column:score"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (scoreRow) TableName() string { return "scores" }

func (r scoreRow) entry() Entry {
	return Entry{ID: r.ID, SessionID: r.SessionID, Score: r.Score, RecordedAt: r.RecordedAt.UTC()}
}

// Postgres stores scores through gorm
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.applyMigrations(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) applyMigrations(ctx context.Context) error {
	const meta = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if err := p.db.WithContext(ctx).Exec(meta).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationFiles("migrations/postgres")
	if err != nil {
		return err
	}
	for _, name := range files {
		var count int64
		if err := p.db.WithContext(ctx).Table("schema_migrations").Where("version = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(body)).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			if err := tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`, name, time.Now()).Error; err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Add(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	row := scoreRow{SessionID: e.SessionID, Score: e.Score, RecordedAt: e.RecordedAt.UTC()}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	rows := []scoreRow{}
	query := p.db.WithContext(ctx).Order("score DESC, recorded_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

func (p *Postgres) Best(ctx context.Context) (Entry, error) {
	var row scoreRow
	err := p.db.WithContext(ctx).Order("score DESC, recorded_at ASC, id ASC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return row.entry(), nil
}

func (p *Postgres) Reset(ctx context.Context) error {
	if err := p.db.WithContext(ctx).Exec(`DELETE FROM scores`).Error; err != nil {
		return fmt.Errorf("reset scores: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
