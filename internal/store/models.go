package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID              uuid.UUID       `json:"id"`
	ResumeName      string          `json:"resume_name"`
	Profile         json.RawMessage `json:"profile"`
	TotalScore      int32           `json:"total_score"`
	BestSuitedSkill string          `json:"best_suited_skill"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
