package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/parser"
	"github.com/starford/koinecards/internal/render"
	"github.com/starford/koinecards/internal/testutil"
)

type stubSource struct {
	cards []models.Card
	err   error
}

func (s stubSource) Load(context.Context) ([]models.Card, error) { return s.cards, s.err }

func testServer(t *testing.T, src stubSource) *Server {
	t.Helper()
	svc := deckservice.NewService(src, nil)
	_ = svc.Load(context.Background())
	return New(svc, "test")
}

func greetings() stubSource {
	return stubSource{cards: []models.Card{
		parser.Parse(testutil.GreetingA, "01_a.txt"),
		parser.Parse(testutil.GreetingB, "02_b.txt"),
	}}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_domains":
		result, err = srv.listDomains(ctx, req)
	case "list_cards":
		result, err = srv.listCards(ctx, req)
	case "read_card":
		result, err = srv.readCard(ctx, req)
	case "get_card_format":
		result, err = srv.getCardFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListDomains(t *testing.T) {
	srv := testServer(t, greetings())
	r := callTool(t, srv, "list_domains", nil)
	var rows []render.DomainRow
	if err := json.Unmarshal([]byte(resultText(r)), &rows); err != nil {
		t.Fatalf("decode: %v (%q)", err, resultText(r))
	}
	if len(rows) != 1 || rows[0].Name != "Greetings" || rows[0].Count != 2 {
		t.Errorf("domains = %+v", rows)
	}
}

func TestListCards(t *testing.T) {
	srv := testServer(t, greetings())
	r := callTool(t, srv, "list_cards", map[string]interface{}{"domain": "Greetings"})
	var rows []render.CardRow
	if err := json.Unmarshal([]byte(resultText(r)), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Filename != "01_a.txt" || rows[1].Title != "World" {
		t.Errorf("cards = %+v", rows)
	}

	r = callTool(t, srv, "list_cards", map[string]interface{}{"domain": "Nope"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("unknown domain result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_cards", map[string]interface{}{})
	if !r.IsError {
		t.Error("missing domain argument should fail")
	}
}

func TestReadCard(t *testing.T) {
	srv := testServer(t, greetings())
	r := callTool(t, srv, "read_card", map[string]interface{}{"domain": "Greetings", "filename": "02_b.txt"})
	var d render.Detail
	if err := json.Unmarshal([]byte(resultText(r)), &d); err != nil {
		t.Fatal(err)
	}
	if d.Title != "World" || d.Body != "Body two" || d.Meta != "" {
		t.Errorf("detail = %+v", d)
	}

	r = callTool(t, srv, "read_card", map[string]interface{}{"domain": "Greetings", "filename": "nope.txt"})
	if !r.IsError {
		t.Error("expected error for missing card")
	}
}

func TestTools_LoadFailure(t *testing.T) {
	srv := testServer(t, stubSource{err: errors.New("loader: missing manifest index.json: status 404")})
	r := callTool(t, srv, "list_domains", nil)
	if !r.IsError || !strings.Contains(resultText(r), "status 404") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestCardFormat(t *testing.T) {
	srv := testServer(t, greetings())
	r := callTool(t, srv, "get_card_format", nil)
	if !strings.Contains(resultText(r), parser.Divider) {
		t.Error("format contract should name the divider")
	}

	contents, err := srv.readCardFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != CardFormatURI || tc.Text != CardFormatContract {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
