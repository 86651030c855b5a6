// Package storage persists historical contract analyses in Postgres and
// streams them back for model training.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clauselens/riskcore/internal/contract"
)

const dateLayout = "2006-01-02"

// ContractRow is the contracts table model. Clause and entity maps live in
// JSONB columns: their shape is owned by the NLP pipeline, not the schema.
type ContractRow struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ContractName     string         `gorm:"not null"`
	RawText          string         `gorm:"type:text"`
	ExtractedClauses datatypes.JSON `gorm:"type:jsonb"`
	Entities         datatypes.JSON `gorm:"type:jsonb"`
	RiskLevel        string         `gorm:"index"`
	RiskScore        *float64
	StartDate        *time.Time
	EndDate          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName sets the table name for GORM.
func (ContractRow) TableName() string { return "contracts" }

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// ContractRepository reads and writes historical contract rows.
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a repository over an open connection.
func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Migrate creates or updates the contracts table.
func (r *ContractRepository) Migrate() error {
	return r.db.AutoMigrate(&ContractRow{})
}

// Save stores one analyzed contract.
func (r *ContractRepository) Save(ctx context.Context, rec contract.Record) (uuid.UUID, error) {
	row, err := toRow(rec)
	if err != nil {
		return uuid.Nil, err
	}
	row.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("saving contract: %w", err)
	}
	return row.ID, nil
}

// ForEachBatch streams labeled rows in batches, implementing
// training.Store. Rows without text or without an analyzed risk level are
// filtered in SQL; the assembler applies the authoritative eligibility
// policy on top.
func (r *ContractRepository) ForEachBatch(ctx context.Context, batchSize int, fn func(records []contract.Record) error) error {
	var rows []ContractRow
	result := r.db.WithContext(ctx).
		Where("raw_text <> '' AND risk_level <> ''").
		FindInBatches(&rows, batchSize, func(_ *gorm.DB, _ int) error {
			records := make([]contract.Record, 0, len(rows))
			for _, row := range rows {
				rec, err := toRecord(row)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}
			return fn(records)
		})
	if result.Error != nil {
		return fmt.Errorf("streaming contracts: %w", result.Error)
	}
	return nil
}

// DatabaseStats summarizes the historical corpus.
type DatabaseStats struct {
	TotalContracts int64            `json:"total_contracts"`
	ByRiskLevel    map[string]int64 `json:"by_risk_level"`
}

// Stats counts stored contracts overall and per risk level.
func (r *ContractRepository) Stats(ctx context.Context) (DatabaseStats, error) {
	stats := DatabaseStats{ByRiskLevel: make(map[string]int64)}

	if err := r.db.WithContext(ctx).Model(&ContractRow{}).Count(&stats.TotalContracts).Error; err != nil {
		return stats, fmt.Errorf("counting contracts: %w", err)
	}

	var rows []struct {
		RiskLevel string
		N         int64
	}
	err := r.db.WithContext(ctx).Model(&ContractRow{}).
		Select("risk_level, count(*) as n").
		Where("risk_level <> ''").
		Group("risk_level").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("counting by risk level: %w", err)
	}
	for _, row := range rows {
		stats.ByRiskLevel[row.RiskLevel] = row.N
	}
	return stats, nil
}

func toRow(rec contract.Record) (ContractRow, error) {
	clauses, err := json.Marshal(rec.ExtractedClauses)
	if err != nil {
		return ContractRow{}, fmt.Errorf("marshaling clauses: %w", err)
	}
	entities, err := json.Marshal(rec.Entities)
	if err != nil {
		return ContractRow{}, fmt.Errorf("marshaling entities: %w", err)
	}

	row := ContractRow{
		ContractName:     rec.ContractName,
		RawText:          rec.RawText,
		ExtractedClauses: datatypes.JSON(clauses),
		Entities:         datatypes.JSON(entities),
		RiskLevel:        string(rec.RiskLevel),
		RiskScore:        rec.RiskScore,
	}
	if t, err := time.Parse(dateLayout, rec.StartDate); err == nil {
		row.StartDate = &t
	}
	if t, err := time.Parse(dateLayout, rec.EndDate); err == nil {
		row.EndDate = &t
	}
	return row, nil
}

func toRecord(row ContractRow) (contract.Record, error) {
	rec := contract.Record{
		ContractName: row.ContractName,
		RawText:      row.RawText,
		RiskLevel:    contract.RiskLevel(row.RiskLevel),
		RiskScore:    row.RiskScore,
	}
	if len(row.ExtractedClauses) > 0 {
		if err := json.Unmarshal(row.ExtractedClauses, &rec.ExtractedClauses); err != nil {
			return rec, fmt.Errorf("parsing clauses for %s: %w", row.ContractName, err)
		}
	}
	if len(row.Entities) > 0 {
		if err := json.Unmarshal(row.Entities, &rec.Entities); err != nil {
			return rec, fmt.Errorf("parsing entities for %s: %w", row.ContractName, err)
		}
	}
	if row.StartDate != nil {
		rec.StartDate = row.StartDate.Format(dateLayout)
	}
	if row.EndDate != nil {
		rec.EndDate = row.EndDate.Format(dateLayout)
	}
	return rec, nil
}
