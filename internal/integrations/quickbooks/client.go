// Package quickbooks pushes invoices to QuickBooks Online.
package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
)

const (
	SandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"
	ProductionBaseURL = "https://quickbooks.api.intuit.com"

	minorVersion  = "75"
	defaultItemID = "1"
)

func BaseURL(environment string) string {
	if environment == "production" {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// Client calls the accounting API. One limiter is shared by every company so
// the app stays under Intuit's per-app throttle.
type Client struct {
	baseURL string
	limiter *rate.Limiter
}

func NewClient(baseURL string, requestsPerSecond float64) *Client {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Account is the authorized client and realm of one company.
type Account struct {
	HTTP    *http.Client
	RealmID string
	ItemID  string
}

type ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type customer struct {
	ID          string `json:"Id,omitempty"`
	DisplayName string `json:"DisplayName"`
}

type salesItemLineDetail struct {
	ItemRef   ref     `json:"ItemRef"`
	Qty       float64 `json:"Qty"`
	UnitPrice float64 `json:"UnitPrice"`
}

type line struct {
	Amount              float64             `json:"Amount"`
	Description         string              `json:"Description,omitempty"`
	DetailType          string              `json:"DetailType"`
	SalesItemLineDetail salesItemLineDetail `json:"SalesItemLineDetail"`
}

type invoice struct {
	ID          string `json:"Id,omitempty"`
	DocNumber   string `json:"DocNumber"`
	TxnDate     string `json:"TxnDate"`
	DueDate     string `json:"DueDate"`
	CustomerRef ref    `json:"CustomerRef"`
	Line        []line `json:"Line"`
	PrivateNote string `json:"PrivateNote,omitempty"`
}

// APIError is a non-2xx answer from QuickBooks.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks: status %d: %s", e.Status, e.Body)
}

// PushInvoice creates the invoice under customerName, creating the customer
// when no customer has that display name, and returns the QuickBooks invoice id.
func (c *Client) PushInvoice(ctx context.Context, acct Account, inv *invoicedomain.Invoice, customerName string) (string, error) {
	customerID, err := c.ensureCustomer(ctx, acct, customerName)
	if err != nil {
		return "", err
	}

	itemID := acct.ItemID
	if itemID == "" {
		itemID = defaultItemID
	}

	body := invoice{
		DocNumber:   inv.Number,
		TxnDate:     inv.IssueDate.String(),
		DueDate:     inv.DueDate.String(),
		CustomerRef: ref{Value: customerID},
		Line:        make([]line, 0, len(inv.LineItems)+1),
		PrivateNote: inv.Notes,
	}
	for _, it := range inv.LineItems {
		body.Line = append(body.Line, line{
			Amount:      dollars(it.TotalCents),
			Description: it.Description,
			DetailType:  "SalesItemLineDetail",
			SalesItemLineDetail: salesItemLineDetail{
				ItemRef:   ref{Value: itemID},
				Qty:       it.Quantity,
				UnitPrice: dollars(it.UnitPriceCents),
			},
		})
	}
	if inv.TaxCents > 0 {
		body.Line = append(body.Line, line{
			Amount:      dollars(inv.TaxCents),
			Description: "Sales tax",
			DetailType:  "SalesItemLineDetail",
			SalesItemLineDetail: salesItemLineDetail{
				ItemRef:   ref{Value: itemID},
				Qty:       1,
				UnitPrice: dollars(inv.TaxCents),
			},
		})
	}

	var out struct {
		Invoice invoice `json:"Invoice"`
	}
	if err := c.do(ctx, acct, http.MethodPost, "/invoice", nil, body, &out); err != nil {
		return "", fmt.Errorf("create invoice %s: %w", inv.Number, err)
	}
	if out.Invoice.ID == "" {
		return "", fmt.Errorf("create invoice %s: empty id in response", inv.Number)
	}
	return out.Invoice.ID, nil
}

func (c *Client) ensureCustomer(ctx context.Context, acct Account, name string) (string, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("select Id, DisplayName from Customer where DisplayName = '%s'", escapeQuery(name)))

	var found struct {
		QueryResponse struct {
			Customer []customer `json:"Customer"`
		} `json:"QueryResponse"`
	}
	if err := c.do(ctx, acct, http.MethodGet, "/query", q, nil, &found); err != nil {
		return "", fmt.Errorf("find customer: %w", err)
	}
	if len(found.QueryResponse.Customer) > 0 {
		return found.QueryResponse.Customer[0].ID, nil
	}

	var created struct {
		Customer customer `json:"Customer"`
	}
	if err := c.do(ctx, acct, http.MethodPost, "/customer", nil, customer{DisplayName: name}, &created); err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return created.Customer.ID, nil
}

func (c *Client) do(ctx context.Context, acct Account, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("minorversion", minorVersion)
	u := fmt.Sprintf("%s/v3/company/%s%s?%s", c.baseURL, url.PathEscape(acct.RealmID), path, query.Encode())

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := acct.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func dollars(cents int64) float64 {
	return float64(cents) / 100
}
