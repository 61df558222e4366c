package admin

import (
	"encoding/json"
	"fmt"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Action names one of the long running admin operations.
type Action string

const (
	ActionImport Action = "import"
	ActionDetect Action = "detect"
	ActionBills  Action = "bills"
)

// Actions lists the panel actions in display order.
var Actions = []Action{ActionImport, ActionDetect, ActionBills}

// State is the lifecycle of an action as seen by the panel.
type State string

const (
	StateIdle     State = "idle"
	StateInFlight State = "in-flight"
	StateSettled  State = "settled"
)

// Fallback messages shown when the backend gives no explanation.
const (
	MsgImportFailed    = "Import failed"
	MsgDetectFailed    = "Anomaly detection failed"
	MsgBillsFailed     = "Bill generation failed"
	MsgFileRequired    = "Please select a file first"
	MsgAlreadyRunning  = "This action is already running"
	MaxImportErrorRows = 10
)

// Outcome is the settled result of one action. It is carried through the
// session from the POST handler to the next page render.
type Outcome struct {
	Action  Action   `json:"action"`
	State   State    `json:"state"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
	// Errors holds at most MaxImportErrorRows per-row import errors;
	// ErrorCount is the full number reported.
	Errors     []string `json:"errors,omitempty"`
	ErrorCount int      `json:"error_count,omitempty"`
	Err        string   `json:"err,omitempty"`
}

// Failed reports whether the action settled with an error.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

func failed(action Action, err error, fallback string) Outcome {
	return Outcome{Action: action, State: StateSettled, Err: hydro.Message(err, fallback)}
}

func importOutcome(res hydro.ImportResult) Outcome {
	out := Outcome{
		Action:  ActionImport,
		State:   StateSettled,
		Message: res.Message,
		Details: []string{
			fmt.Sprintf("Records imported: %d", res.ImportedRecords),
			fmt.Sprintf("Customers created: %d", res.CustomersCreated),
		},
		ErrorCount: len(res.Errors),
	}
	if len(res.Errors) > 0 {
		shown := res.Errors
		if len(shown) > MaxImportErrorRows {
			shown = shown[:MaxImportErrorRows]
		}
		out.Errors = append([]string(nil), shown...)
	}
	return out
}

func detectOutcome(res hydro.DetectionResult) Outcome {
	return Outcome{
		Action:  ActionDetect,
		State:   StateSettled,
		Message: res.Message,
		Details: []string{fmt.Sprintf("Detected %d anomalies across all customers", len(res.Anomalies))},
	}
}

func billsOutcome(res hydro.BillGenerationResult) Outcome {
	return Outcome{
		Action:  ActionBills,
		State:   StateSettled,
		Message: res.Message,
		Details: []string{fmt.Sprintf("Generated %d bills", res.TotalBills)},
	}
}

// EncodeOutcome serialises an outcome for storage between requests.
func EncodeOutcome(o Outcome) (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeOutcome restores an outcome stored by EncodeOutcome.
func DecodeOutcome(raw string) (Outcome, bool) {
	if raw == "" {
		return Outcome{}, false
	}
	var o Outcome
	if err := json.Unmarshal([]byte(raw), &o); err != nil || o.Action == "" {
		return Outcome{}, false
	}
	return o, true
}
