package payment

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Method is the tagged payment-method variant. Each method is dispatched to
// its handler through the gateway registry.
type Method string

const (
	MethodCard   Method = "card"
	MethodPayPal Method = "paypal"
	MethodWallet Method = "wallet"
)

func (m Method) String() string {
	return string(m)
}

func (m Method) IsValid() bool {
	switch m {
	case MethodCard, MethodPayPal, MethodWallet:
		return true
	default:
		return false
	}
}
