package numbering

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const redisSequenceKey = "invoicedesk:invoice_seq:%s"

// Sequencer returns the next value of a named counter, starting at 1.
type Sequencer interface {
	Next(ctx context.Context, period string) (int64, error)
}

// Sequence is the database counter row for one period (YYYYMM).
type Sequence struct {
	Period string `gorm:"primaryKey;type:varchar(6)"`
	Value  int64  `gorm:"not null"`
}

func (Sequence) TableName() string { return "invoice_sequences" }

type dbSequencer struct {
	db *gorm.DB
}

func NewDBSequencer(db *gorm.DB) Sequencer {
	return &dbSequencer{db: db}
}

func (s *dbSequencer) Next(ctx context.Context, period string) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Sequence{Period: period, Value: 0}).Error; err != nil {
			return err
		}
		result := tx.Model(&Sequence{}).
			Where("period = ?", period).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("sequence %s not found", period)
		}
		return tx.Model(&Sequence{}).
			Select("value").
			Where("period = ?", period).
			Scan(&next).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

type redisSequencer struct {
	client *redis.Client
}

func NewRedisSequencer(client *redis.Client) Sequencer {
	return &redisSequencer{client: client}
}

func (s *redisSequencer) Next(ctx context.Context, period string) (int64, error) {
	return s.client.Incr(ctx, fmt.Sprintf(redisSequenceKey, period)).Result()
}
