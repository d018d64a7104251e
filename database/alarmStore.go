package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"firealarm/model"
)

// AlarmStore persists alarm records with gorm.
type AlarmStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAlarmStore(db *gorm.DB) *AlarmStore {
	return &AlarmStore{db: db, now: time.Now}
}

func (s *AlarmStore) Latest(ctx context.Context, deviceID string) (*model.AlarmRecord, error) {
	var rec model.AlarmRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, nil
	}
	return &rec, nil
}

func (s *AlarmStore) Get(ctx context.Context, id string) (*model.AlarmRecord, error) {
	var rec model.AlarmRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *AlarmStore) Create(ctx context.Context, rec *model.AlarmRecord) error {
	if rec == nil || rec.ID == "" || rec.DeviceID == "" {
		return errors.New("alarm store: missing fields")
	}
	now := model.NewJsonTime(s.now())
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return s.db.WithContext(ctx).Create(rec).Error
}

// Save writes every column of an existing record.
func (s *AlarmStore) Save(ctx context.Context, rec *model.AlarmRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("alarm store: missing id")
	}
	rec.UpdatedAt = model.NewJsonTime(s.now())
	return s.db.WithContext(ctx).Save(rec).Error
}

func (s *AlarmStore) List(ctx context.Context, limit int) ([]model.AlarmRecord, error) {
	recs := make([]model.AlarmRecord, 0)
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *AlarmStore) ListByDevice(ctx context.Context, deviceID string) ([]model.AlarmRecord, error) {
	recs := make([]model.AlarmRecord, 0)
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
