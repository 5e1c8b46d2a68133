// MCP transport for the cart proxy using the official MCP Go SDK.
// Exposes the cart operations as tools so agentic shoppers can manage a
// cart over the same engine the REST surface uses.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abhilash2200/beyuvana-sub000/internal/cartsync"
	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// === Tool Input Types ===
// Identity is ambient: the Storefront-Session header on the MCP HTTP
// request flows through the session middleware into the tool context, the
// same way it does for REST calls. Tools never carry credentials in their
// arguments.

// ViewCartInput is the input schema for the view_cart tool.
type ViewCartInput struct{}

// AddToCartInput is the input schema for the add_to_cart tool.
type AddToCartInput struct {
	ProductID      string `json:"product_id" jsonschema:"product ID,required"`
	ProductPriceID string `json:"product_price_id" jsonschema:"price tier ID,required"`
	Name           string `json:"name,omitempty" jsonschema:"display name for the line"`
	Quantity       int    `json:"quantity,omitempty" jsonschema:"units to add (default 1)"`
	PackQty        int    `json:"pack_qty,omitempty" jsonschema:"pack size of the selected tier"`
	UnitName       string `json:"unit_name,omitempty" jsonschema:"unit name of the selected tier"`
}

// SetItemQuantityInput is the input schema for the set_item_quantity tool.
type SetItemQuantityInput struct {
	ItemID   string  `json:"item_id" jsonschema:"cart line ID,required"`
	Quantity float64 `json:"quantity" jsonschema:"absolute quantity (clamped to 1-10),required"`
}

// RemoveItemInput is the input schema for the remove_item tool.
type RemoveItemInput struct {
	ItemID string `json:"item_id" jsonschema:"cart line ID,required"`
}

// ClearCartInput is the input schema for the clear_cart tool.
type ClearCartInput struct{}

// NewMCPServer creates an MCP server with the cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "beyuvana-cart-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Beyuvana cart operations. Use these tools to view and " +
				"modify the shopper's cart. Quantity changes are applied " +
				"immediately in the returned snapshot; the backend write may " +
				"lag by a debounce window.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "Get the current cart: items, subtotal, and any pending notices.",
	}, h.mcpViewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Requires the product's price tier ID.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_item_quantity",
		Description: "Set a cart line to an absolute quantity (clamped to 1-10).",
	}, h.mcpSetItemQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a line from the cart.",
	}, h.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Remove every line from the cart.",
	}, h.mcpClearCart)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

// mcpEngine resolves the caller's engine from the ambient identity, or
// errors when the MCP request carried no usable session.
func (h *Handler) mcpEngine(ctx context.Context) (*cartsync.Engine, error) {
	id := session.FromContext(ctx)
	if id.EngineKey() == "" {
		return nil, fmt.Errorf("session_required: send a %s header with the MCP request", session.HeaderName)
	}
	return h.carts.Engine(id), nil
}

func (h *Handler) mcpViewCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ViewCartInput,
) (*mcp.CallToolResult, *CartSnapshot, error) {
	e, err := h.mcpEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	e.Sync(ctx)
	snap := snapshot(e)
	return nil, &snap, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartSnapshot, error) {
	e, err := h.mcpEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}

	if err := e.AddToCart(ctx, model.CartItem{
		ProductID:      input.ProductID,
		ProductPriceID: input.ProductPriceID,
		Name:           input.Name,
		Quantity:       qty,
		PackQty:        input.PackQty,
		UnitName:       input.UnitName,
		InStock:        true,
	}); err != nil {
		return nil, nil, h.mcpError(err)
	}

	snap := snapshot(e)
	return nil, &snap, nil
}

func (h *Handler) mcpSetItemQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SetItemQuantityInput,
) (*mcp.CallToolResult, *CartSnapshot, error) {
	e, err := h.mcpEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	if input.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}

	e.UpdateItemQuantity(input.ItemID, input.Quantity)
	snap := snapshot(e)
	return nil, &snap, nil
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, *CartSnapshot, error) {
	e, err := h.mcpEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	if input.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}

	if err := e.RemoveFromCart(ctx, input.ItemID); err != nil {
		return nil, nil, h.mcpError(err)
	}

	snap := snapshot(e)
	return nil, &snap, nil
}

func (h *Handler) mcpClearCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ClearCartInput,
) (*mcp.CallToolResult, *CartSnapshot, error) {
	e, err := h.mcpEngine(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := e.ClearCart(ctx); err != nil {
		return nil, nil, h.mcpError(err)
	}

	snap := snapshot(e)
	return nil, &snap, nil
}

// mcpError converts engine errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
