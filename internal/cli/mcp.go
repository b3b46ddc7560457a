package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/colthorp/ziskej-cli-go/internal/core"
	"github.com/colthorp/ziskej-cli-go/internal/model"
	"github.com/colthorp/ziskej-cli-go/internal/output"
)

// MCP Protocol types
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type MCPResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type MCPToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type MCPInitializeResult struct {
	ProtocolVersion string        `json:"protocolVersion"`
	ServerInfo      MCPServerInfo `json:"serverInfo"`
	Capabilities    any           `json:"capabilities"`
}

// toolParams is the union of the arguments the tools accept.
type toolParams struct {
	Eppn          string `json:"eppn"`
	TicketID      string `json:"ticket_id"`
	TicketType    string `json:"ticket_type"`
	OpenOnly      bool   `json:"open_only"`
	Service       string `json:"service"`
	NumberOfPages int    `json:"number_of_pages"`
	EddSubtype    string `json:"edd_subtype"`
}

const maxMCPMessage = 10 * 1024 * 1024

func (a *App) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			srv := &mcpServer{app: a, s: s, out: a.Out}
			return srv.serve(cmd.Context(), a.In)
		},
	}
}

// mcpServer answers JSON-RPC requests, one per line.
type mcpServer struct {
	app *App
	s   *session
	out io.Writer
}

func (m *mcpServer) serve(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxMCPMessage)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			// Without an id there is nobody to answer.
			m.s.log.Warn("mcp parse error", "error", err)
			continue
		}

		m.handle(ctx, &req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

func (m *mcpServer) handle(ctx context.Context, req *MCPRequest) {
	switch req.Method {
	case "initialize":
		m.sendResponse(req.ID, MCPInitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      MCPServerInfo{Name: "ziskej-cli", Version: core.Version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "initialized", "notifications/initialized":
		return
	case "tools/list":
		m.sendResponse(req.ID, map[string]any{"tools": mcpTools()})
	case "tools/call":
		m.handleToolsCall(ctx, req)
	default:
		// Notifications (no ID) are ignored.
		if req.ID != nil {
			m.sendError(req.ID, -32601, "Method not found", req.Method)
		}
	}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func mcpTools() []MCPToolInfo {
	eppn := stringProp("Reader eduPersonPrincipalName; defaults to the CLI's --eppn")
	return []MCPToolInfo{
		{
			Name:        "list_libraries",
			Description: "List the siglas of libraries offering a Ziskej service.",
			InputSchema: objectSchema(map[string]any{
				"service": map[string]any{
					"type":        "string",
					"description": "Service type",
					"enum":        model.LibraryServiceTypes,
					"default":     model.ServiceAny,
				},
			}),
		},
		{
			Name:        "list_tickets",
			Description: "List the reader's interlibrary loan tickets with details, closed ones included.",
			InputSchema: objectSchema(map[string]any{
				"eppn": eppn,
				"ticket_type": map[string]any{
					"type":        "string",
					"description": "Only tickets of this type",
					"enum":        model.TicketTypes,
				},
				"open_only": map[string]any{
					"type":        "boolean",
					"description": "Only open tickets",
					"default":     false,
				},
			}),
		},
		{
			Name:        "get_ticket",
			Description: "Fetch one ticket with its status history.",
			InputSchema: objectSchema(map[string]any{
				"eppn":      eppn,
				"ticket_id": stringProp("Ticket id"),
			}, "ticket_id"),
		},
		{
			Name:        "get_messages",
			Description: "Fetch the conversation on a ticket, oldest message first.",
			InputSchema: objectSchema(map[string]any{
				"eppn":      eppn,
				"ticket_id": stringProp("Ticket id"),
			}, "ticket_id"),
		},
		{
			Name:        "edd_estimate",
			Description: "Estimate the fee of an electronic document delivery request.",
			InputSchema: objectSchema(map[string]any{
				"number_of_pages": map[string]any{"type": "integer", "minimum": 1},
				"edd_subtype": map[string]any{
					"type":    "string",
					"enum":    model.TicketEddSubtypes,
					"default": model.EddSubtypeArticle,
				},
			}, "number_of_pages"),
		},
	}
}

func (m *mcpServer) handleToolsCall(ctx context.Context, req *MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		m.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	var args toolParams
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			m.sendToolError(req.ID, fmt.Sprintf("Invalid arguments: %v", err))
			return
		}
	}
	if args.Eppn == "" {
		args.Eppn = m.app.eppn
	}

	var (
		result any
		err    error
	)
	switch params.Name {
	case "list_libraries":
		result, err = m.listLibraries(ctx, args)
	case "list_tickets":
		result, err = m.listTickets(ctx, args)
	case "get_ticket":
		result, err = m.getTicket(ctx, args)
	case "get_messages":
		result, err = m.getMessages(ctx, args)
	case "edd_estimate":
		result, err = m.eddEstimate(ctx, args)
	default:
		m.sendError(req.ID, -32602, "Unknown tool", params.Name)
		return
	}
	if err != nil {
		m.sendToolError(req.ID, err.Error())
		return
	}
	m.sendToolResult(req.ID, result)
}

func (m *mcpServer) listLibraries(ctx context.Context, args toolParams) (any, error) {
	service := model.ServiceAny
	if args.Service != "" {
		var err error
		if service, err = model.ParseLibraryServiceType(args.Service); err != nil {
			return nil, err
		}
	}
	libs, err := m.s.client.GetLibraries(ctx, service, false)
	if err != nil {
		return nil, err
	}
	return map[string]any{"service": service, "count": libs.Len(), "siglas": siglaList(libs.All())}, nil
}

func (m *mcpServer) listTickets(ctx context.Context, args toolParams) (any, error) {
	if args.Eppn == "" {
		return nil, fmt.Errorf("eppn is required")
	}
	var typ model.TicketType
	if args.TicketType != "" {
		var err error
		if typ, err = model.ParseTicketType(args.TicketType); err != nil {
			return nil, err
		}
	}
	tickets, err := m.s.client.ListTickets(ctx, args.Eppn, typ)
	if err != nil {
		return nil, err
	}
	list := tickets.All()
	if args.OpenOnly {
		list = tickets.Open()
	}
	records, err := output.TicketRecords(list)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(records), "tickets": records}, nil
}

func (m *mcpServer) getTicket(ctx context.Context, args toolParams) (any, error) {
	if args.Eppn == "" || args.TicketID == "" {
		return nil, fmt.Errorf("eppn and ticket_id are required")
	}
	ticket, err := m.s.client.GetTicket(ctx, args.Eppn, args.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, fmt.Errorf("ticket %s not found", args.TicketID)
	}
	return output.TicketRecord(ticket)
}

func (m *mcpServer) getMessages(ctx context.Context, args toolParams) (any, error) {
	if args.Eppn == "" || args.TicketID == "" {
		return nil, fmt.Errorf("eppn and ticket_id are required")
	}
	msgs, err := m.s.client.GetMessages(ctx, args.Eppn, args.TicketID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticket_id": args.TicketID,
		"count":     msgs.Len(),
		"unread":    msgs.Unread(),
		"messages":  msgs.All(),
	}, nil
}

func (m *mcpServer) eddEstimate(ctx context.Context, args toolParams) (any, error) {
	subtype := model.EddSubtypeArticle
	if args.EddSubtype != "" {
		var err error
		if subtype, err = model.ParseTicketEddSubtype(args.EddSubtype); err != nil {
			return nil, err
		}
	}
	return m.s.client.GetEddEstimate(ctx, args.NumberOfPages, subtype)
}

func (m *mcpServer) write(resp MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		m.s.log.Error("mcp encode response", "error", err)
		return
	}
	fmt.Fprintln(m.out, string(data))
}

func (m *mcpServer) sendResponse(id, result any) {
	m.write(MCPResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (m *mcpServer) sendError(id any, code int, message, data string) {
	m.write(MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	})
}

func (m *mcpServer) sendToolResult(id, result any) {
	m.sendResponse(id, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": mustMarshal(result)},
		},
	})
}

func (m *mcpServer) sendToolError(id any, message string) {
	m.sendResponse(id, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": message},
		},
		"isError": true,
	})
}

func mustMarshal(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}
