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

const GetResourceToolName = "abra_get_resource"

// GetResourceInput represents the abra_get_resource tool input.
type GetResourceInput struct {
	Collection string `json:"collection" yaml:"collection" jsonschema:"title=collection,description=Business object collection name such as 'issuedinvoices' or 'firms' or 'storecards'"`
	ResourceID string `json:"resource_id" yaml:"resource_id" jsonschema:"title=resource_id,description=ID of the resource to retrieve"`
	Expand     string `json:"expand,omitempty" yaml:"expand,omitempty" jsonschema:"title=expand,description=Related objects to include such as 'Firm_ID' or 'Rows'"`
}

// GetResourceTool fetches a single record by identifier.
type GetResourceTool struct {
	client     *abra.Client
	funcParams any
}

var _ tools.Tool[GetResourceInput, abra.QueryResult] = (*GetResourceTool)(nil)

func NewGetResourceTool(client *abra.Client) (*GetResourceTool, error) {
	sc, err := schema.New(reflect.TypeOf(GetResourceInput{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &GetResourceTool{
		client:     client,
		funcParams: sc.Parameters,
	}, nil
}

func (t *GetResourceTool) Name() string {
	return GetResourceToolName
}

func (t *GetResourceTool) Description() string {
	return "Get a specific resource by ID from any Abra Gen collection. " +
		"Returns detailed information about a single business object. " +
		"Useful when you know the exact ID of the record you want to retrieve."
}

func (t *GetResourceTool) Parameters() any {
	return t.funcParams
}

func (t *GetResourceTool) Run(ctx context.Context, req *GetResourceInput) (*abra.QueryResult, error) {
	return t.client.GetResource(ctx, req.Collection, req.ResourceID, req.Expand)
}

func (t *GetResourceTool) Call(ctx context.Context, input string) (string, error) {
	var req GetResourceInput
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}
