package abratools

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/abrachat/abrachat/abra"
	"github.com/abrachat/abrachat/chatmodel"
	"github.com/abrachat/abrachat/llmutils"
	"github.com/abrachat/abrachat/schema"
	"github.com/abrachat/abrachat/tools"
)

const ListInvoicesToolName = "abra_list_invoices"

// ListInvoicesInput represents the abra_list_invoices tool input.
type ListInvoicesInput struct {
	FromDate string `json:"from_date,omitempty" yaml:"from_date,omitempty" jsonschema:"title=from_date,description=Start date for filtering in ISO format YYYY-MM-DD or datetime YYYY-MM-DDTHH:MM:SS"`
	ToDate   string `json:"to_date,omitempty" yaml:"to_date,omitempty" jsonschema:"title=to_date,description=End date for filtering in ISO format YYYY-MM-DD or datetime YYYY-MM-DDTHH:MM:SS"`
	FirmID   string `json:"firm_id,omitempty" yaml:"firm_id,omitempty" jsonschema:"title=firm_id,description=Filter by specific customer/firm ID"`
	Limit    int    `json:"limit,omitempty" yaml:"limit,omitempty" jsonschema:"title=limit,description=Maximum number of results to return,default=50"`
	Offset   int    `json:"offset,omitempty" yaml:"offset,omitempty" jsonschema:"title=offset,description=Number of results to skip for pagination,default=0"`
}

// ListInvoicesTool lists issued invoices.
type ListInvoicesTool struct {
	client     *abra.Client
	funcParams any
}

var _ tools.Tool[ListInvoicesInput, abra.QueryResult] = (*ListInvoicesTool)(nil)

func NewListInvoicesTool(client *abra.Client) (*ListInvoicesTool, error) {
	sc, err := schema.New(reflect.TypeOf(ListInvoicesInput{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &ListInvoicesTool{
		client:     client,
		funcParams: sc.Parameters,
	}, nil
}

func (t *ListInvoicesTool) Name() string {
	return ListInvoicesToolName
}

func (t *ListInvoicesTool) Description() string {
	return "Get a list of issued invoices from Abra Gen. " +
		"Returns invoice details including number, amount, customer, and period. " +
		"Supports date filtering and pagination."
}

func (t *ListInvoicesTool) Parameters() any {
	return t.funcParams
}

func (t *ListInvoicesTool) Run(ctx context.Context, req *ListInvoicesInput) (*abra.QueryResult, error) {
	return t.client.ListInvoices(ctx, req.FromDate, req.ToDate, req.FirmID, req.Limit, req.Offset)
}

func (t *ListInvoicesTool) Call(ctx context.Context, input string) (string, error) {
	var req ListInvoicesInput
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}
