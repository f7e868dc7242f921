package dto

import "github.com/weseeyou/backend/internal/models"

type SubmitReportRequest struct {
	Platform     string   `json:"platform"`
	Handle       string   `json:"handle"`
	Category     string   `json:"category"`
	Description  *string  `json:"description"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type ReporterCountResponse struct {
	Count int64 `json:"count"`
}

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
