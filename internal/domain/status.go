package domain

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPrinting  Status = "printing"
	StatusPrinted   Status = "printed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// statusRank orders the fulfillment chain. Cancelled sits outside the chain.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusActive:    1,
	StatusPrinting:  2,
	StatusPrinted:   3,
	StatusShipped:   4,
	StatusCompleted: 5,
}

func ValidStatus(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no transition leads out of s other than the
// explicit un-cancel path out of cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodVipps   PaymentMethod = "vipps"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodInvoice PaymentMethod = "invoice"
)

// Values persisted in the cancelledBy field of a cancelled order.
const (
	CancelledByCustomer = "customer"
	CancelledByAdmin    = "admin"
)
