package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names a committed ledger mutation.
type EventType string

const (
	EventCategoryAdded    EventType = "category.added"
	EventExpenseAdded     EventType = "expense.added"
	EventExpensesChanged  EventType = "expenses.committed"
	EventBudgetAllocated  EventType = "budget.allocated"
	EventBudgetReset      EventType = "budget.reset"
	EventSavingsDeposited EventType = "savings.deposited"
	EventGoalCreated      EventType = "goal.created"
	EventGoalDeleted      EventType = "goal.deleted"
)

// LedgerEvent is a lightweight notice that a store changed. Consumers read
// current state from the ledger rather than replaying events.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Store     string    `json:"store"`
	ID        string    `json:"id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, store, id, amount string) *LedgerEvent {
	return &LedgerEvent{
		Type:      typ,
		Store:     store,
		ID:        id,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message body and rejects events without a
// type or store.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode ledger event: %w", err)
	}
	if msg.Type == "" || msg.Store == "" {
		return nil, errors.New("decode ledger event: missing type or store")
	}
	return &msg, nil
}
