package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/cv-screener/internal/skills"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Message asks for one document to be analyzed. Either Text or ObjectKey is set.
type Message struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MIME      string `json:"mime,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
	Text      string `json:"text,omitempty"`
	Skills    any    `json:"skills,omitempty"`
}

// Update reports the progress of one analysis.
type Update struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	TotalScore      *int      `json:"total_score,omitempty"`
	BestSuitedSkill string    `json:"best_suited_skill,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// DecodeMessage parses a queue body and its optional catalog overrides.
func DecodeMessage(body []byte) (*Message, []skills.Entry, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal message: %w", err)
	}

	if strings.TrimSpace(msg.ID) == "" {
		return &msg, nil, errors.New("message id is required")
	}
	if msg.Text == "" && strings.TrimSpace(msg.ObjectKey) == "" {
		return &msg, nil, errors.New("either text or object_key is required")
	}

	extra, err := skills.DecodeEntries(msg.Skills)
	if err != nil {
		return &msg, nil, fmt.Errorf("decode skills: %w", err)
	}

	return &msg, extra, nil
}

func routingKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("analysis.%s", id)
}
