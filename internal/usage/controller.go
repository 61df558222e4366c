package usage

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// MsgLoadFailed is shown when the backend gives no better explanation.
const MsgLoadFailed = "Failed to load usage data"

// ErrNotAdmin is returned when an admin-only load is attempted with a
// customer credential.
var ErrNotAdmin = errors.New("usage: admin role required")

// API is the slice of the backend the usage views read from.
type API interface {
	Usage(ctx context.Context, cred hydro.Credential, q hydro.UsageQuery) ([]hydro.UsageRecord, error)
	UsageSummary(ctx context.Context, cred hydro.Credential, r hydro.DateRange) (*hydro.UsageSummary, error)
	TopCustomers(ctx context.Context, cred hydro.Credential, r hydro.DateRange) ([]hydro.TopCustomer, error)
	AdminCharges(ctx context.Context, cred hydro.Credential) ([]hydro.ChargeSummary, error)
}

// Controller decides which reads a page needs for its caller. It is built per
// request with the caller's credential, which it attaches to every call.
type Controller struct {
	api    API
	cred   hydro.Credential
	window Window
	rng    hydro.DateRange
}

// NewController constructs a Controller for window ending at now.
func NewController(api API, cred hydro.Credential, window Window, now time.Time) *Controller {
	return &Controller{api: api, cred: cred, window: window, rng: window.Range(now)}
}

// Range returns the date range every read is scoped to.
func (c *Controller) Range() hydro.DateRange {
	return c.rng
}

// Window returns the selected window.
func (c *Controller) Window() Window {
	return c.window
}

// IsAdmin reports whether the caller gets the admin view.
func (c *Controller) IsAdmin() bool {
	return c.cred.IsAdmin()
}

// AdminData backs the admin usage overview. Error is the page level failure
// (leaderboard); DirectoryError only affects the customer search.
type AdminData struct {
	TopCustomers   []hydro.TopCustomer
	Customers      []hydro.ChargeSummary
	Error          string
	DirectoryError string
}

// LoadAdmin fetches the leaderboard and the customer directory concurrently.
func (c *Controller) LoadAdmin(ctx context.Context) (AdminData, error) {
	if !c.cred.IsAdmin() {
		return AdminData{}, ErrNotAdmin
	}
	var (
		data       AdminData
		g          errgroup.Group
		topErr     error
		chargesErr error
	)
	g.Go(func() error {
		data.TopCustomers, topErr = c.api.TopCustomers(ctx, c.cred, c.rng)
		return nil
	})
	g.Go(func() error {
		data.Customers, chargesErr = c.api.AdminCharges(ctx, c.cred)
		return nil
	})
	_ = g.Wait()

	if topErr != nil {
		data.TopCustomers = nil
		data.Error = hydro.Message(topErr, MsgLoadFailed)
	}
	if chargesErr != nil {
		data.Customers = nil
		data.DirectoryError = hydro.Message(chargesErr, MsgLoadFailed)
	}
	return data, nil
}

// CustomerData backs the customer's own usage page.
type CustomerData struct {
	Records []hydro.UsageRecord
	// Summary is nil when the optional summary read failed or returned nothing.
	Summary *hydro.UsageSummary
	Error   string
}

// LoadCustomer fetches the caller's usage and summary concurrently. Only the
// usage read can fail the page.
func (c *Controller) LoadCustomer(ctx context.Context) (CustomerData, error) {
	var (
		data       CustomerData
		g          errgroup.Group
		summaryErr error
	)
	g.Go(func() error {
		records, err := c.api.Usage(ctx, c.cred, hydro.UsageQuery{Range: c.rng})
		if err != nil {
			return err
		}
		data.Records = records
		return nil
	})
	g.Go(func() error {
		data.Summary, summaryErr = c.api.UsageSummary(ctx, c.cred, c.rng)
		return nil
	})
	if err := g.Wait(); err != nil {
		data.Records = nil
		data.Error = hydro.Message(err, MsgLoadFailed)
	}
	if summaryErr != nil {
		data.Summary = nil
	}
	return data, nil
}

// LoadCustomerDetail fetches one customer's usage for the admin detail view.
// On failure it returns an empty record set together with the error.
func (c *Controller) LoadCustomerDetail(ctx context.Context, customerID int64) ([]hydro.UsageRecord, error) {
	if !c.cred.IsAdmin() {
		return nil, ErrNotAdmin
	}
	records, err := c.api.Usage(ctx, c.cred, hydro.UsageQuery{Range: c.rng, CustomerID: customerID})
	if err != nil {
		return []hydro.UsageRecord{}, err
	}
	return records, nil
}
