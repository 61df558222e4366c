// Package hydro is the typed client for the water-billing backend API.
package hydro

import "encoding/json"

// DateRange bounds a usage query with ISO dates (YYYY-MM-DD), inclusive.
type DateRange struct {
	Start string
	End   string
}

// UsageRecord is one daily meter reading as reported by the backend.
type UsageRecord struct {
	ID            int64    `json:"id"`
	CustomerID    int64    `json:"customer_id"`
	UsageDate     string   `json:"usage_date"`
	DailyUsageCCF Quantity `json:"daily_usage_ccf"`
	IsEstimated   bool     `json:"is_estimated"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerEmail string   `json:"customer_email,omitempty"`
}

// Usage returns the decoded usage volume in CCF.
func (r UsageRecord) Usage() float64 {
	return r.DailyUsageCCF.Float64()
}

// UsageQuery scopes a usage lookup. CustomerID is only honoured for admin callers.
type UsageQuery struct {
	Range      DateRange
	CustomerID int64
}

// Customer is the read-only reference entity shared by several responses.
type Customer struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email,omitempty"`
	CustomerType string `json:"customer_type,omitempty"`
}

// Bill statuses known to the backend.
const (
	StatusPaid    = "paid"
	StatusSent    = "sent"
	StatusOverdue = "overdue"
	StatusPending = "pending"
)

// Bill is a single billing period for a customer.
type Bill struct {
	ID                 int64    `json:"id"`
	BillingPeriodStart string   `json:"billing_period_start"`
	BillingPeriodEnd   string   `json:"billing_period_end"`
	TotalUsageCCF      Quantity `json:"total_usage_ccf"`
	TotalAmount        Quantity `json:"total_amount"`
	DueDate            string   `json:"due_date"`
	Status             string   `json:"status"`
}

// ChargeSummary is the per-customer rollup shown in the admin charges table.
type ChargeSummary struct {
	CustomerID   int64          `json:"customer_id"`
	CustomerName string         `json:"customer_name"`
	Email        string         `json:"email,omitempty"`
	CustomerType string         `json:"customer_type,omitempty"`
	BillCount    int            `json:"bill_count"`
	TotalAmount  Quantity       `json:"total_amount"`
	StatusCounts map[string]int `json:"status_counts"`
	Bills        []Bill         `json:"bills"`
}

// Customer projects the reference fields out of the summary.
func (c ChargeSummary) Customer() Customer {
	return Customer{
		CustomerID:   c.CustomerID,
		CustomerName: c.CustomerName,
		Email:        c.Email,
		CustomerType: c.CustomerType,
	}
}

// TopCustomer is one entry of the usage leaderboard.
type TopCustomer struct {
	CustomerID    int64    `json:"customer_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	CustomerType  string   `json:"customer_type,omitempty"`
	TotalUsageCCF Quantity `json:"total_usage_ccf"`
	RecordCount   int      `json:"record_count"`
}

// UsageSummary carries the backend computed totals for the caller's own usage.
// EstimatedCost and RatePerCCF are nil when the backend could not price the usage.
type UsageSummary struct {
	TotalUsageCCF   Quantity  `json:"total_usage_ccf"`
	AverageDailyCCF Quantity  `json:"average_daily_ccf"`
	MaxDailyCCF     Quantity  `json:"max_daily_ccf"`
	DaysCount       int       `json:"days_count"`
	RatePerCCF      *Quantity `json:"rate_per_ccf"`
	EstimatedCost   *Quantity `json:"estimated_cost"`
}

// ImportResult is returned by the data import endpoint. Errors lists per-row
// failures of a partially successful import.
type ImportResult struct {
	Message          string   `json:"message"`
	ImportedRecords  int      `json:"imported_records"`
	CustomersCreated int      `json:"customers_created"`
	Errors           []string `json:"errors"`
}

// DetectionResult is returned by an anomaly detection run.
type DetectionResult struct {
	Message   string            `json:"message"`
	Anomalies []json.RawMessage `json:"anomalies"`
}

// BillGenerationResult is returned by the historical bill generation run.
type BillGenerationResult struct {
	Message    string `json:"message"`
	TotalBills int    `json:"total_bills"`
}

// LoginResult is the token hand-off returned by the backend auth endpoint.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
		Role  Role        `json:"role"`
	} `json:"user"`
}

type usageEnvelope struct {
	Usage []UsageRecord `json:"usage"`
}

type summaryEnvelope struct {
	Summary *UsageSummary `json:"summary"`
}

type topCustomersEnvelope struct {
	TopCustomers []TopCustomer `json:"top_customers"`
}

type chargesEnvelope struct {
	Customers []ChargeSummary `json:"customers"`
}
