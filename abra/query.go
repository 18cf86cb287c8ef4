package abra

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultTake bounds list queries when no take is given; unbounded
	// queries are a correctness hazard against large collections.
	DefaultTake = 50
	// MaxTake is the hard per-request cap.
	MaxTake = 1000
)

// QueryIntent is one list request against a collection. It exists per
// tool invocation and is discarded after the call returns.
type QueryIntent struct {
	// Collection is the business-object collection name, e.g. "firms".
	Collection string
	// Select lists the fields to return, comma-separated.
	Select string
	// Where is a filter expression in the ABRA query language,
	// e.g. `Amount gt 10000`. Passed through verbatim.
	Where string
	// OrderBy is the sorting specification, e.g. "Amount desc".
	OrderBy string
	// Expand includes related objects, e.g. "Firm_ID".
	Expand string
	// GroupBy is the grouping field.
	GroupBy string
	// Skip is the number of records to skip.
	Skip int
	// Take bounds the number of records returned; 0 means DefaultTake.
	Take int
}

// QueryResult is the normalized response shape of every operation.
type QueryResult struct {
	Collection string           `json:"collection"`
	Total      int              `json:"count"`
	Items      []map[string]any `json:"results"`
	Err        bool             `json:"error,omitempty"`
}

// Query executes one filtered list request. Exactly one HTTP request is
// issued; the same intent always encodes to the same request.
func (c *Client) Query(ctx context.Context, intent QueryIntent) (*QueryResult, error) {
	if err := c.checkCollection(intent.Collection); err != nil {
		return nil, err
	}
	if intent.Skip < 0 {
		return nil, NewValidationError("skip must not be negative")
	}
	take := intent.Take
	switch {
	case take < 0:
		return nil, NewValidationError("take must not be negative")
	case take == 0:
		take = DefaultTake
	case take > MaxTake:
		take = MaxTake
	}

	params := url.Values{}
	if intent.Select != "" {
		params.Set("select", intent.Select)
	}
	if intent.Where != "" {
		params.Set("where", intent.Where)
	}
	if intent.OrderBy != "" {
		params.Set("orderby", intent.OrderBy)
	}
	if intent.Expand != "" {
		params.Set("expand", intent.Expand)
	}
	if intent.GroupBy != "" {
		params.Set("groupby", intent.GroupBy)
	}
	if intent.Skip > 0 {
		params.Set("skip", strconv.Itoa(intent.Skip))
	}
	params.Set("take", strconv.Itoa(take))

	data, err := c.get(ctx, c.constructURL(intent.Collection, "", "", params))
	if err != nil {
		return nil, err
	}

	items := normalizeItems(data)
	return &QueryResult{
		Collection: intent.Collection,
		Total:      len(items),
		Items:      items,
	}, nil
}

// GetResource fetches one record by identifier. A missing record
// surfaces as NotFoundError, not a generic RemoteError.
func (c *Client) GetResource(ctx context.Context, collection, resourceID, expand string) (*QueryResult, error) {
	if err := c.checkCollection(collection); err != nil {
		return nil, err
	}
	if resourceID == "" {
		return nil, NewValidationError("resource_id is required")
	}

	params := url.Values{}
	if expand != "" {
		params.Set("expand", expand)
	}

	data, err := c.get(ctx, c.constructURL(collection, resourceID, "", params))
	if err != nil {
		return nil, err
	}

	items := normalizeItems(data)
	return &QueryResult{
		Collection: collection,
		Total:      len(items),
		Items:      items,
	}, nil
}

// ListFirms lists firms/customers, optionally filtered by a
// case-insensitive search over name and code.
func (c *Client) ListFirms(ctx context.Context, search string, limit, offset int) (*QueryResult, error) {
	var where string
	if search != "" {
		where = fmt.Sprintf("(upper(Name) like upper('%%%s%%') or upper(Code) like upper('%%%s%%'))", search, search)
	}
	return c.Query(ctx, QueryIntent{
		Collection: "firms",
		Select:     "ID,Code,Name,Email,Phone",
		Where:      where,
		OrderBy:    "Name",
		Skip:       offset,
		Take:       limit,
	})
}

// ListInvoices lists issued invoices, optionally bounded by document
// date and filtered by firm.
func (c *Client) ListInvoices(ctx context.Context, fromDate, toDate, firmID string, limit, offset int) (*QueryResult, error) {
	var conds []string
	if fromDate != "" {
		conds = append(conds, fmt.Sprintf("DocDate ge timestamp'%s'", fromDate))
	}
	if toDate != "" {
		conds = append(conds, fmt.Sprintf("DocDate le timestamp'%s'", toDate))
	}
	if firmID != "" {
		conds = append(conds, fmt.Sprintf("Firm_ID eq '%s'", firmID))
	}
	return c.Query(ctx, QueryIntent{
		Collection: "issuedinvoices",
		Select:     "ID,OrdNumber,Amount,DocDate,Firm_ID.Name",
		Where:      strings.Join(conds, " and "),
		OrderBy:    "OrdNumber desc",
		Expand:     "Firm_ID",
		Skip:       offset,
		Take:       limit,
	})
}

// ListProducts lists store cards, optionally filtered by a
// case-insensitive search over name and code.
func (c *Client) ListProducts(ctx context.Context, search string, limit, offset int) (*QueryResult, error) {
	var where string
	if search != "" {
		where = fmt.Sprintf("(upper(Name) like upper('%%%s%%') or upper(Code) like upper('%%%s%%'))", search, search)
	}
	return c.Query(ctx, QueryIntent{
		Collection: "storecards",
		Select:     "ID,Code,Name,EAN",
		Where:      where,
		OrderBy:    "Code",
		Skip:       offset,
		Take:       limit,
	})
}

// normalizeItems maps a decoded JSON response into an ordered item
// slice: lists stay lists, a single object becomes a one-item list.
func normalizeItems(data any) []map[string]any {
	switch v := data.(type) {
	case nil:
		return []map[string]any{}
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	case map[string]any:
		return []map[string]any{v}
	default:
		return []map[string]any{}
	}
}
