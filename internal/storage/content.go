package storage

import "time"

type ContentText struct {
	Key       string    `json:"key"`
	TextKM    string    `json:"text_km"`
	TextEN    string    `json:"text_en"`
	UpdatedAt time.Time `json:"updated_at"`
}
