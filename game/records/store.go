// Package records keeps an append-only audit log of finished robot runs in
// SQLite. Records are never loaded back into a simulation.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/service"
)

// List limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// RunRecord is the stored row for one finished run
type RunRecord struct {
	ID         string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID  string         `json:"sessionId" gorm:"size:64;index:idx_run_records_session"`
	RunID      uint64         `json:"runId"`
	ScenarioID string         `json:"scenarioId" gorm:"size:127"`
	Outcome    string         `json:"outcome" gorm:"size:16"`
	Success    bool           `json:"success"`
	Ticks      uint64         `json:"ticks"`
	Error      string         `json:"error" gorm:"size:2000"`
	History    datatypes.JSON `json:"history"`
	StartedAt  time.Time      `json:"startedAt"`
	EndedAt    time.Time      `json:"endedAt" gorm:"index:idx_run_records_ended"`
}

// TableName pins the table name
func (RunRecord) TableName() string {
	return "run_records"
}

// GormStore implements service.RunStore on gorm
type GormStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open opens or creates a SQLite database file and migrates it. An empty
// path opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*GormStore, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	if path == "" {
		log.Info().Msg("Using in-memory run database")
	} else {
		log.Info().Str("path", path).Msg("Using local SQLite run database")
	}
	return New(db, log)
}

// New wraps an open database and migrates the schema
func New(db *gorm.DB, log zerolog.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run records: %w", err)
	}
	return &GormStore{db: db, logger: log}, nil
}

// Record appends a finished run
func (s *GormStore) Record(ctx context.Context, sessionID string, report executor.RunReport) error {
	history, err := json.Marshal(report.History)
	if err != nil {
		return fmt.Errorf("failed to encode run history: %w", err)
	}

	row := RunRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		RunID:      uint64(report.RunID),
		ScenarioID: report.ScenarioID,
		Outcome:    string(report.Outcome),
		Success:    report.Success,
		Ticks:      report.Ticks,
		Error:      report.Err,
		History:    datatypes.JSON(history),
		StartedAt:  report.StartedAt,
		EndedAt:    report.EndedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}

	s.logger.Debug().
		Str("session", sessionID).
		Uint64("run_id", row.RunID).
		Str("outcome", row.Outcome).
		Msg("run recorded")
	return nil
}

// List returns records newest first. An empty session id lists every session.
func (s *GormStore) List(ctx context.Context, sessionID string, limit int) ([]*service.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := s.db.WithContext(ctx).Order("ended_at desc").Order("run_id desc").Limit(limit)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var rows []RunRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}

	result := make([]*service.RunRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toService()
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

func (r RunRecord) toService() (*service.RunRecord, error) {
	var history engine.RunHistory
	if len(r.History) > 0 {
		if err := json.Unmarshal(r.History, &history); err != nil {
			return nil, fmt.Errorf("run record %s: failed to decode history: %w", r.ID, err)
		}
	}
	return &service.RunRecord{
		ID:         r.ID,
		SessionID:  r.SessionID,
		RunID:      r.RunID,
		ScenarioID: r.ScenarioID,
		Outcome:    r.Outcome,
		Success:    r.Success,
		Ticks:      r.Ticks,
		Error:      r.Error,
		History:    history,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
	}, nil
}
