package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a recorded contract operation.
type Action string

const (
	ActionContractCreated Action = "contract_created"
	ActionContractUpdated Action = "contract_updated"
	ActionContractDeleted Action = "contract_deleted"
)

// Event is emitted from the contract service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  uuid.UUID `json:"session_id"`
	Action     Action    `json:"action"`
	ContractID int       `json:"contract_id"`
	Detail     string    `json:"detail,omitempty"`
}
