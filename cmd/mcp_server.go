package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/romaklym/kronsteen"
	"github.com/romaklym/kronsteen/internal/version"
	"github.com/romaklym/kronsteen/pkg/focus"
	"github.com/romaklym/kronsteen/pkg/match"
	"github.com/romaklym/kronsteen/pkg/platform"
)

// mcpServer wraps the MCP server with a shared automation client. Input
// actions are serialized: concurrent tool calls would interleave mouse
// and keyboard events.
type mcpServer struct {
	client   *kronsteen.Client
	clientMu sync.Mutex
	mcp      *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
}

// newMCPServer creates and configures an MCP server with all kronsteen tools.
func newMCPServer(client *kronsteen.Client) *mcpServer {
	s := &mcpServer{client: client}
	s.mcp = mcpserver.NewMCPServer(
		"kronsteen",
		version.Version,
	)
	s.registerTools()
	return s
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	// find
	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Wait until text (via OCR) or a template image appears on screen and return the matching regions in physical pixels"),
			mcp.WithString("text", mcp.Description("Text to find on screen")),
			mcp.WithString("template", mcp.Description("Path to a template image to find instead of text")),
			mcp.WithString("mode", mcp.Description("Text comparison mode: contains, equals, starts-with, regex")),
			mcp.WithBoolean("case-sensitive", mcp.Description("Require exact-case text match")),
			mcp.WithString("region", mcp.Description("Limit search to a region: \"x,y,w,h\"")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (0 = configured default)")),
			mcp.WithBoolean("all", mcp.Description("Return every match from a single capture")),
		),
		s.handleFind,
	)

	// click
	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Find text or a template image on screen and click the center of the match, or click at absolute coordinates"),
			mcp.WithString("text", mcp.Description("Text to find and click")),
			mcp.WithString("template", mcp.Description("Path to a template image to find and click")),
			mcp.WithNumber("x", mcp.Description("Click at X coordinate (with y, skips the visual query)")),
			mcp.WithNumber("y", mcp.Description("Click at Y coordinate")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithString("mode", mcp.Description("Text comparison mode: contains, equals, starts-with, regex")),
			mcp.WithString("region", mcp.Description("Limit search to a region: \"x,y,w,h\"")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (0 = configured default)")),
		),
		s.handleClick,
	)

	// wait
	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait until text appears on screen, or with gone=true until it is no longer visible"),
			mcp.WithString("text", mcp.Description("Text to wait for"), mcp.Required()),
			mcp.WithBoolean("gone", mcp.Description("Invert: wait until the text is NO LONGER visible")),
			mcp.WithString("mode", mcp.Description("Text comparison mode: contains, equals, starts-with, regex")),
			mcp.WithString("region", mcp.Description("Limit search to a region: \"x,y,w,h\"")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (0 = configured default)")),
		),
		s.handleWait,
	)

	// type
	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Type text into the focused element or press a key combination"),
			mcp.WithString("text", mcp.Description("Text to type")),
			mcp.WithString("key", mcp.Description("Key combo (e.g. 'cmd+c', 'enter', 'tab')")),
			mcp.WithNumber("delay", mcp.Description("Delay between keystrokes in ms")),
			mcp.WithBoolean("enter", mcp.Description("Press enter after typing")),
		),
		s.handleType,
	)

	// scroll
	s.mcp.AddTool(
		mcp.NewTool("scroll",
			mcp.WithDescription("Scroll the mouse wheel at the current pointer position"),
			mcp.WithString("direction", mcp.Description("Scroll direction: up, down")),
			mcp.WithNumber("amount", mcp.Description("Number of scroll clicks (default 3)")),
		),
		s.handleScroll,
	)

	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture the screen, or a region of it, and return a PNG image"),
			mcp.WithString("region", mcp.Description("Capture only a region: \"x,y,w,h\" in physical pixels")),
		),
		s.handleScreenshot,
	)

	// open / close
	s.mcp.AddTool(
		mcp.NewTool("open",
			mcp.WithDescription("Launch an application by name or path"),
			mcp.WithString("app", mcp.Description("Application name or path"), mcp.Required()),
			mcp.WithString("wait-text", mcp.Description("Block until this text appears on screen after launching")),
		),
		s.handleOpen,
	)
	s.mcp.AddTool(
		mcp.NewTool("close",
			mcp.WithDescription("Quit an application by name"),
			mcp.WithString("app", mcp.Description("Application name"), mcp.Required()),
		),
		s.handleClose,
	)

	// focus monitoring
	s.mcp.AddTool(
		mcp.NewTool("monitor_focus",
			mcp.WithDescription("Control window focus monitoring. While the monitored window is unfocused, all input tools pause until it regains focus."),
			mcp.WithString("action", mcp.Description("start, stop, or state"), mcp.Required()),
			mcp.WithString("window", mcp.Description("Window title to monitor (required for start)")),
			mcp.WithBoolean("exact", mcp.Description("Require exact window title match instead of substring")),
		),
		s.handleMonitorFocus,
	)
}

// stringParam extracts a string argument with a default.
func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// intParam extracts an integer argument with a default. JSON numbers
// arrive as float64.
func intParam(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return def
}

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// resultToText serializes a result struct to YAML for the MCP response.
func resultToText(result interface{}) string {
	b, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return string(b)
}

// textOptionsFromParams builds TextOptions from tool arguments.
func textOptionsFromParams(params map[string]interface{}) (kronsteen.TextOptions, error) {
	var opts kronsteen.TextOptions
	if modeStr := stringParam(params, "mode", ""); modeStr != "" {
		mode, err := match.ParseMode(modeStr)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	opts.CaseSensitive = boolParam(params, "case-sensitive", false)
	if regionStr := stringParam(params, "region", ""); regionStr != "" {
		region, err := match.ParseRegion(regionStr)
		if err != nil {
			return opts, err
		}
		opts.Region = &region
	}
	if timeoutSec := floatParam(params, "timeout", 0); timeoutSec > 0 {
		opts.Timeout = time.Duration(timeoutSec * float64(time.Second))
	}
	return opts, nil
}

func (s *mcpServer) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	template := stringParam(params, "template", "")
	if text == "" && template == "" {
		return mcp.NewToolResultError("specify text or template"), nil
	}

	opts, err := textOptionsFromParams(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	result := FindResult{OK: true, Action: "find", Query: text}
	start := time.Now()
	if template != "" {
		result.Query = template
		m, err := s.client.WaitForTemplate(ctx, template, kronsteen.TemplateOptions{
			Region:  opts.Region,
			Timeout: opts.Timeout,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result.Matches = []matchInfo{toMatchInfo(m)}
	} else if boolParam(params, "all", false) {
		matches, err := s.client.FindAllText(ctx, text, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for _, m := range matches {
			result.Matches = append(result.Matches, toMatchInfo(m))
		}
	} else {
		m, err := s.client.FindText(ctx, text, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result.Matches = []matchInfo{toMatchInfo(m)}
	}
	result.Elapsed = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
	result.Total = len(result.Matches)
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *mcpServer) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	template := stringParam(params, "template", "")
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)

	button, err := platform.ParseMouseButton(stringParam(params, "button", "left"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := 1
	if boolParam(params, "double", false) {
		count = 2
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if x >= 0 && y >= 0 {
		if err := s.client.ClickButton(ctx, x, y, button, count); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultToText(ClickResult{OK: true, Action: "click", X: x, Y: y})), nil
	}

	if text == "" && template == "" {
		return mcp.NewToolResultError("specify text, template, or both x and y"), nil
	}

	opts, err := textOptionsFromParams(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var m match.Match
	query := text
	if template != "" {
		query = template
		m, err = s.client.WaitForTemplate(ctx, template, kronsteen.TemplateOptions{
			Region:  opts.Region,
			Timeout: opts.Timeout,
		})
	} else {
		m, err = s.client.FindText(ctx, text, opts)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cx, cy := m.Region.Center()
	if err := s.client.ClickButton(ctx, cx, cy, button, count); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(ClickResult{
		OK: true, Action: "click", Query: query, X: cx, Y: cy, Match: matchInfoPtr(m),
	})), nil
}

func (s *mcpServer) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	opts, err := textOptionsFromParams(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	start := time.Now()
	if boolParam(params, "gone", false) {
		outcome, err := s.client.WaitForTextToDisappear(ctx, text, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultToText(WaitResult{
			OK:          true,
			Action:      "wait",
			Query:       text,
			Gone:        true,
			Elapsed:     fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
			Attempts:    outcome.Attempts,
			EverPresent: outcome.EverPresent,
		})), nil
	}

	m, err := s.client.WaitForText(ctx, text, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(WaitResult{
		OK:      true,
		Action:  "wait",
		Query:   text,
		Elapsed: fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
		Match:   matchInfoPtr(m),
	})), nil
}

func (s *mcpServer) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	key := stringParam(params, "key", "")
	if text == "" && key == "" {
		return mcp.NewToolResultError("specify text or key"), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if key != "" {
		if err := s.client.Press(ctx, key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultToText(TypeResult{OK: true, Action: "key", Key: key})), nil
	}

	opts := kronsteen.TypeOptions{
		Delay:      time.Duration(intParam(params, "delay", 0)) * time.Millisecond,
		PressEnter: boolParam(params, "enter", false),
	}
	if err := s.client.TypeText(ctx, text, opts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(TypeResult{OK: true, Action: "type", Text: text})), nil
}

func (s *mcpServer) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	direction := stringParam(params, "direction", "down")
	amount := intParam(params, "amount", 3)

	clicks := amount
	switch direction {
	case "up":
	case "down":
		clicks = -amount
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported direction: %s (use up or down)", direction)), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if err := s.client.Scroll(ctx, clicks); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(ScrollResult{
		OK: true, Action: "scroll", Direction: direction, Amount: amount,
	})), nil
}

func (s *mcpServer) handleScreenshot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	var region *match.Region
	if regionStr := stringParam(params, "region", ""); regionStr != "" {
		r, err := match.ParseRegion(regionStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		region = &r
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	img, err := s.client.Screenshot(region)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     b64,
				MIMEType: "image/png",
			},
		},
	}, nil
}

func (s *mcpServer) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	app := stringParam(params, "app", "")
	if app == "" {
		return mcp.NewToolResultError("app parameter is required"), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if err := s.client.Launch(app); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if waitText := stringParam(params, "wait-text", ""); waitText != "" {
		if _, err := s.client.WaitForText(ctx, waitText, kronsteen.TextOptions{}); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s launched but %q never appeared: %s", app, waitText, err)), nil
		}
	}
	return mcp.NewToolResultText(resultToText(OpenResult{OK: true, Action: "open", App: app})), nil
}

func (s *mcpServer) handleClose(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	app := stringParam(params, "app", "")
	if app == "" {
		return mcp.NewToolResultError("app parameter is required"), nil
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if err := s.client.CloseApp(app); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(OpenResult{OK: true, Action: "close", App: app})), nil
}

// focusResult is the monitor_focus tool output.
type focusResult struct {
	OK     bool   `yaml:"ok"`
	Action string `yaml:"action"`
	Window string `yaml:"window,omitempty"`
	State  string `yaml:"state"`
}

func (s *mcpServer) handleMonitorFocus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := stringParam(params, "action", "")

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	switch action {
	case "start":
		window := stringParam(params, "window", "")
		if window == "" {
			return mcp.NewToolResultError("window parameter is required for start"), nil
		}
		cfg := focus.Config{
			WindowName: window,
			Exact:      boolParam(params, "exact", false),
		}
		if err := s.client.StartWindowMonitoring(cfg); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultToText(focusResult{
			OK: true, Action: "start", Window: window, State: s.client.FocusState().String(),
		})), nil
	case "stop":
		s.client.StopWindowMonitoring()
		return mcp.NewToolResultText(resultToText(focusResult{
			OK: true, Action: "stop", State: s.client.FocusState().String(),
		})), nil
	case "state":
		return mcp.NewToolResultText(resultToText(focusResult{
			OK: true, Action: "state", State: s.client.FocusState().String(),
		})), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported action: %s (use start, stop, or state)", action)), nil
	}
}
