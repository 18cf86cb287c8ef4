// Package abratools exposes the ABRA Gen client as LLM tools. Each tool
// declares a reflected JSON parameter schema and returns the uniform
// query result payload, with failures classified by kind.
package abratools

import (
	"github.com/abrachat/abrachat/abra"
	"github.com/abrachat/abrachat/tools"
)

// All creates the full tool set over one client.
func All(client *abra.Client) ([]tools.ITool, error) {
	query, err := NewQueryTool(client)
	if err != nil {
		return nil, err
	}
	resource, err := NewGetResourceTool(client)
	if err != nil {
		return nil, err
	}
	firms, err := NewListFirmsTool(client)
	if err != nil {
		return nil, err
	}
	invoices, err := NewListInvoicesTool(client)
	if err != nil {
		return nil, err
	}
	products, err := NewListProductsTool(client)
	if err != nil {
		return nil, err
	}
	return []tools.ITool{query, resource, firms, invoices, products}, nil
}
