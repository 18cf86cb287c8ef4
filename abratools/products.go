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

const ListProductsToolName = "abra_list_products"

// ListProductsInput represents the abra_list_products tool input.
type ListProductsInput struct {
	Search string `json:"search,omitempty" yaml:"search,omitempty" jsonschema:"title=search,description=Search term to filter products by name or code (case-insensitive)"`
	Limit  int    `json:"limit,omitempty" yaml:"limit,omitempty" jsonschema:"title=limit,description=Maximum number of results to return,default=50"`
	Offset int    `json:"offset,omitempty" yaml:"offset,omitempty" jsonschema:"title=offset,description=Number of results to skip for pagination,default=0"`
}

// ListProductsTool lists products/store cards.
type ListProductsTool struct {
	client     *abra.Client
	funcParams any
}

var _ tools.Tool[ListProductsInput, abra.QueryResult] = (*ListProductsTool)(nil)

func NewListProductsTool(client *abra.Client) (*ListProductsTool, error) {
	sc, err := schema.New(reflect.TypeOf(ListProductsInput{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &ListProductsTool{
		client:     client,
		funcParams: sc.Parameters,
	}, nil
}

func (t *ListProductsTool) Name() string {
	return ListProductsToolName
}

func (t *ListProductsTool) Description() string {
	return "Get a list of products/store cards from Abra Gen. " +
		"Returns product information including code, name, and EAN. " +
		"Supports searching and pagination."
}

func (t *ListProductsTool) Parameters() any {
	return t.funcParams
}

func (t *ListProductsTool) Run(ctx context.Context, req *ListProductsInput) (*abra.QueryResult, error) {
	return t.client.ListProducts(ctx, req.Search, req.Limit, req.Offset)
}

func (t *ListProductsTool) Call(ctx context.Context, input string) (string, error) {
	var req ListProductsInput
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}
