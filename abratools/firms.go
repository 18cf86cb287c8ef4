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

const ListFirmsToolName = "abra_list_firms"

// ListFirmsInput represents the abra_list_firms tool input.
type ListFirmsInput struct {
	Search string `json:"search,omitempty" yaml:"search,omitempty" jsonschema:"title=search,description=Search term to filter firms by name or code (case-insensitive)"`
	Limit  int    `json:"limit,omitempty" yaml:"limit,omitempty" jsonschema:"title=limit,description=Maximum number of results to return,default=50"`
	Offset int    `json:"offset,omitempty" yaml:"offset,omitempty" jsonschema:"title=offset,description=Number of results to skip for pagination,default=0"`
}

// ListFirmsTool lists firms/customers.
type ListFirmsTool struct {
	client     *abra.Client
	funcParams any
}

var _ tools.Tool[ListFirmsInput, abra.QueryResult] = (*ListFirmsTool)(nil)

func NewListFirmsTool(client *abra.Client) (*ListFirmsTool, error) {
	sc, err := schema.New(reflect.TypeOf(ListFirmsInput{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &ListFirmsTool{
		client:     client,
		funcParams: sc.Parameters,
	}, nil
}

func (t *ListFirmsTool) Name() string {
	return ListFirmsToolName
}

func (t *ListFirmsTool) Description() string {
	return "Get a list of firms/customers from Abra Gen. " +
		"Returns basic information including ID, code, name, and contact details. " +
		"Supports searching and pagination."
}

func (t *ListFirmsTool) Parameters() any {
	return t.funcParams
}

func (t *ListFirmsTool) Run(ctx context.Context, req *ListFirmsInput) (*abra.QueryResult, error) {
	return t.client.ListFirms(ctx, req.Search, req.Limit, req.Offset)
}

func (t *ListFirmsTool) Call(ctx context.Context, input string) (string, error) {
	var req ListFirmsInput
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}
