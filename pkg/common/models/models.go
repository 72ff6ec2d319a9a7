package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is the generic response envelope returned by message-only endpoints.
type Message struct {
	Message string `json:"message"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // session_created, config_saved, session_submitted
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// User is the minimal account record the studio needs for token issuance.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
}
