package purchase

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// Purchase is a row in the payment ledger. The ledger is owned by the
// payment-capture flow; this service only ever reads it.
type Purchase struct {
	OrderID   string    `db:"order_id"`
	Email     string    `db:"email"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (p *Purchase) IsCompleted() bool {
	return p.Status == StatusCompleted
}
