package model

import (
	"encoding/json"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type AuditEntry struct {
	ID        int64             `json:"id"`
	ActorID   *int64            `json:"actor_id,omitempty"`
	Action    enums.AuditAction `json:"action"`
	Payload   json.RawMessage   `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}
