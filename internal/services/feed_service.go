package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/models"
)

type FeedFilter struct {
	Platform string
	Type     string
	Limit    int
}

type FeedService struct {
	db *gorm.DB
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// List returns activity events newest first. "all" or empty disables a filter.
func (s *FeedService) List(ctx context.Context, f FeedFilter) ([]models.ActivityEvent, error) {
	q := s.db.WithContext(ctx).Model(&models.ActivityEvent{})

	if f.Platform != "" && f.Platform != "all" {
		p, err := models.ParsePlatform(f.Platform)
		if err != nil {
			return nil, invalid("platform", err)
		}
		q = q.Where("platform = ?", p)
	}
	if f.Type != "" && f.Type != "all" {
		t, err := models.ParseActivityType(f.Type)
		if err != nil {
			return nil, invalid("type", err)
		}
		q = q.Where("activity_type = ?", t)
	}
	limit, err := clampLimit(f.Limit, 20, 100)
	if err != nil {
		return nil, err
	}

	feed := []models.ActivityEvent{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&feed).Error; err != nil {
		return nil, storageErr("list feed", err)
	}
	return feed, nil
}
