package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"subrecommend/internal/core"
)

var ErrInvalidMessage = errors.New("invalid top spending message")

// TopSpendingMessage is the event body published after each spending write.
// It carries no timestamp: consumers apply messages in delivery order.
type TopSpendingMessage struct {
	UserID        string          `json:"userId"`
	TopCategory   string          `json:"topCategory"`
	TotalSpending decimal.Decimal `json:"totalSpending"`
}

func NewTopSpendingMessage(top core.TopSpending) *TopSpendingMessage {
	return &TopSpendingMessage{
		UserID:        top.UserID,
		TopCategory:   top.TopCategory,
		TotalSpending: top.TotalSpending,
	}
}

// ToJSON converts the message to JSON bytes. The total is encoded as a
// decimal string so no precision is lost.
func (m *TopSpendingMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *TopSpendingMessage) ToDomain() core.TopSpending {
	return core.TopSpending{
		UserID:        m.UserID,
		TopCategory:   m.TopCategory,
		TotalSpending: m.TotalSpending,
	}
}

// TopSpendingMessageFromJSON decodes and validates a message body. The total
// may be a JSON number or a decimal string.
func TopSpendingMessageFromJSON(data []byte) (*TopSpendingMessage, error) {
	var raw struct {
		UserID        string           `json:"userId"`
		TopCategory   string           `json:"topCategory"`
		TotalSpending *decimal.Decimal `json:"totalSpending"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(raw.UserID) == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidMessage)
	}
	if strings.TrimSpace(raw.TopCategory) == "" {
		return nil, fmt.Errorf("%w: missing topCategory", ErrInvalidMessage)
	}
	if raw.TotalSpending == nil {
		return nil, fmt.Errorf("%w: missing totalSpending", ErrInvalidMessage)
	}
	return &TopSpendingMessage{
		UserID:        raw.UserID,
		TopCategory:   raw.TopCategory,
		TotalSpending: *raw.TotalSpending,
	}, nil
}
