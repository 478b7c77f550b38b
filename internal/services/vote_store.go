package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agreepoll/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRecentLimit caps ListRecent.
const MaxRecentLimit = 1000

var ErrInvalidInput = errors.New("invalid vote input")

// RecordResult tells the caller whether RecordVote stored a new row.
type RecordResult int

const (
	Inserted RecordResult = iota
	Ignored
)

func (r RecordResult) String() string {
	if r == Ignored {
		return "ignored"
	}
	return "inserted"
}

// VoteStore owns every query against the votes table.
type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// RecordVote inserts the vote unless ip already voted, in which case nothing
// changes and Ignored is returned. The unique index on ip decides races.
func (s *VoteStore) RecordVote(ctx context.Context, ip string, choice models.Choice) (RecordResult, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" || !choice.Valid() {
		return Ignored, ErrInvalidInput
	}

	vote := models.Vote{IP: ip, Choice: choice}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ip"}},
			DoNothing: true,
		}).
		Create(&vote)
	if result.Error != nil {
		return Ignored, fmt.Errorf("failed to record vote: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return Ignored, nil
	}
	return Inserted, nil
}

// GetAggregate counts votes per choice in a single statement so the three
// numbers always come from the same snapshot.
func (s *VoteStore) GetAggregate(ctx context.Context) (models.Aggregate, error) {
	var agg models.Aggregate
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0) AS agree, "+
				"COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0) AS oppose",
			models.ChoiceAgree, models.ChoiceOppose,
		).
		Scan(&agg).Error
	if err != nil {
		return models.Aggregate{}, fmt.Errorf("failed to aggregate votes: %w", err)
	}
	return agg, nil
}

// ListRecent returns up to limit votes, newest first.
func (s *VoteStore) ListRecent(ctx context.Context, limit int) ([]models.Vote, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent votes: %w", err)
	}
	return votes, nil
}

// ExportAll walks every vote newest first without loading the table into
// memory. Iteration stops at the first error returned by fn.
func (s *VoteStore) ExportAll(ctx context.Context, fn func(models.Vote) error) error {
	tx := s.db.WithContext(ctx)
	rows, err := tx.Model(&models.Vote{}).
		Order("created_at DESC").
		Order("id DESC").
		Rows()
	if err != nil {
		return fmt.Errorf("failed to export votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.Vote
		if err := tx.ScanRows(rows, &v); err != nil {
			return fmt.Errorf("failed to scan vote: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating votes: %w", err)
	}
	return nil
}

// Ping checks that the pool can still reach the database.
func (s *VoteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
