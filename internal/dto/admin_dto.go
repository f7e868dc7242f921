package dto

import "time"

type SetStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type ExportMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Tier        string    `json:"tier"`
	Count       int       `json:"count"`
}
