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

const QueryToolName = "abra_query"

// QueryInput represents the abra_query tool input.
type QueryInput struct {
	Collection string `json:"collection" yaml:"collection" jsonschema:"title=collection,description=Business object collection name such as 'issuedinvoices' or 'firms' or 'storecards'"`
	Select     string `json:"select,omitempty" yaml:"select,omitempty" jsonschema:"title=select,description=Comma-separated fields to return. Use '*' for all fields."`
	Where      string `json:"where,omitempty" yaml:"where,omitempty" jsonschema:"title=where,description=Filter condition in the Abra query language such as 'Amount gt 10000'"`
	OrderBy    string `json:"orderby,omitempty" yaml:"orderby,omitempty" jsonschema:"title=orderby,description=Sorting specification such as 'Amount desc' or 'Name'"`
	Expand     string `json:"expand,omitempty" yaml:"expand,omitempty" jsonschema:"title=expand,description=Related objects to include such as 'Firm_ID' or 'Rows'"`
	GroupBy    string `json:"groupby,omitempty" yaml:"groupby,omitempty" jsonschema:"title=groupby,description=Grouping field"`
	Skip       int    `json:"skip,omitempty" yaml:"skip,omitempty" jsonschema:"title=skip,description=Number of records to skip for pagination"`
	Take       int    `json:"take,omitempty" yaml:"take,omitempty" jsonschema:"title=take,description=Maximum number of records to return"`
}

// QueryTool executes flexible queries on any allowed collection.
type QueryTool struct {
	client     *abra.Client
	funcParams any
}

var _ tools.Tool[QueryInput, abra.QueryResult] = (*QueryTool)(nil)

func NewQueryTool(client *abra.Client) (*QueryTool, error) {
	sc, err := schema.New(reflect.TypeOf(QueryInput{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &QueryTool{
		client:     client,
		funcParams: sc.Parameters,
	}, nil
}

func (t *QueryTool) Name() string {
	return QueryToolName
}

func (t *QueryTool) Description() string {
	return "Execute a flexible query on any Abra Gen business object collection. " +
		"Supports filtering (where), field selection (select), sorting (orderby), " +
		"expanding related objects (expand), and pagination (skip/take). " +
		"Use this for custom queries on any collection like 'issuedinvoices', " +
		"'firms', 'storecards', etc."
}

func (t *QueryTool) Parameters() any {
	return t.funcParams
}

func (t *QueryTool) Run(ctx context.Context, req *QueryInput) (*abra.QueryResult, error) {
	return t.client.Query(ctx, abra.QueryIntent{
		Collection: req.Collection,
		Select:     req.Select,
		Where:      req.Where,
		OrderBy:    req.OrderBy,
		Expand:     req.Expand,
		GroupBy:    req.GroupBy,
		Skip:       req.Skip,
		Take:       req.Take,
	})
}

func (t *QueryTool) Call(ctx context.Context, input string) (string, error) {
	var req QueryInput
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}
