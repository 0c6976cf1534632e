package entities

// PaymentStatusSuccess is the only status the simulated gateway reports.
const PaymentStatusSuccess = "success"

// Payment is the receipt of a simulated charge
type Payment struct {
	ID     string  `json:"payment_id"`
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
}
