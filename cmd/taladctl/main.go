package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ratthapon/talad/internal/config"
	"github.com/ratthapon/talad/internal/profile"
	"github.com/ratthapon/talad/internal/rest"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		fatalf("error: %v", err)
	}
	profileName := profile.Resolve(*profileFlag, cfg.DefaultProfile)
	if err := profile.ValidateName(profileName); err != nil {
		fatalf("error: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := newClient(profile.SocketPath(profileName))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "login":
		if len(args) < 3 {
			fatalf("usage: taladctl login <token> <user-id>")
		}
		cmdLogin(ctx, c, args[1], args[2])
	case "logout":
		c.check(ctx, http.MethodDelete, "/v1/auth", nil)
		fmt.Println("logged out")
	case "kinds":
		cmdKinds(ctx, c, *jsonFlag)
	case "settings":
		outputJSON(c.do(ctx, http.MethodGet, "/v1/settings", nil))
	case "chats":
		cmdChats(ctx, c, *jsonFlag)
	case "listings":
		if len(args) < 2 {
			fatalf("usage: taladctl listings <kind> [refresh]")
		}
		cmdListings(ctx, c, args[1], len(args) > 2 && args[2] == "refresh", *jsonFlag)
	case "create":
		if len(args) < 3 {
			fatalf("usage: taladctl create <kind> <json-payload>")
		}
		cmdCreate(ctx, c, args[1], args[2])
	case "update":
		if len(args) < 4 {
			fatalf("usage: taladctl update <kind> <id> <json-fields>")
		}
		cmdUpdate(ctx, c, args[1], args[2], args[3])
	case "delete":
		if len(args) < 3 {
			fatalf("usage: taladctl delete <kind> <id>")
		}
		c.check(ctx, http.MethodDelete, "/v1/kinds/"+args[1]+"/listings/"+args[2], nil)
		fmt.Println("deleted")
	case "messages":
		if len(args) < 2 {
			fatalf("usage: taladctl messages <chat-id>")
		}
		cmdMessages(ctx, c, args[1], *jsonFlag)
	case "send":
		if len(args) < 3 {
			fatalf("usage: taladctl send <chat-id> <body>")
		}
		cmdSend(ctx, c, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "close":
		if len(args) < 2 {
			fatalf("usage: taladctl close <chat-id>")
		}
		c.check(ctx, http.MethodDelete, "/v1/chats/"+args[1], nil)
		fmt.Println("closed")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: taladctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                         Show daemon status")
	fmt.Fprintln(os.Stderr, "  login <token> <user-id>        Store credentials")
	fmt.Fprintln(os.Stderr, "  logout                         Clear stored credentials")
	fmt.Fprintln(os.Stderr, "  kinds                          List resource kinds")
	fmt.Fprintln(os.Stderr, "  settings                       Show app settings")
	fmt.Fprintln(os.Stderr, "  chats                          List conversations")
	fmt.Fprintln(os.Stderr, "  listings <kind> [refresh]      Show cached listings")
	fmt.Fprintln(os.Stderr, "  create <kind> <json>           Create a listing")
	fmt.Fprintln(os.Stderr, "  update <kind> <id> <json>      Update a listing")
	fmt.Fprintln(os.Stderr, "  delete <kind> <id>             Delete a listing")
	fmt.Fprintln(os.Stderr, "  messages <chat-id>             Show chat messages")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <body>          Send a chat message")
	fmt.Fprintln(os.Stderr, "  close <chat-id>                Unmount a chat screen")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// client talks to the daemon's control socket.
type client struct {
	hc *http.Client
}

func newClient(socketPath string) *client {
	return &client{hc: &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}}
}

func (c *client) do(ctx context.Context, method, path string, body any) []byte {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			fatalf("error: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, "http://talad"+path, reader)
	if err != nil {
		fatalf("error: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		fatalf("error: cannot reach daemon: %v (is taladd running?)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fatalf("error: %v", err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			fatalf("error: %s", e.Error)
		}
		fatalf("error: daemon returned status %d", resp.StatusCode)
	}
	return data
}

func (c *client) check(ctx context.Context, method, path string, body any) {
	_ = c.do(ctx, method, path, body)
}

func outputJSON(data []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(buf.String())
}

func cmdStatus(ctx context.Context, c *client, jsonOut bool) {
	data := c.do(ctx, http.MethodGet, "/v1/status", nil)
	if jsonOut {
		outputJSON(data)
		return
	}
	var st struct {
		Profile       string `json:"profile"`
		PID           int    `json:"pid"`
		UptimeSeconds int    `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(data, &st); err != nil {
		fatalf("error: %v", err)
	}
	fmt.Printf("Profile: %s\n", st.Profile)
	fmt.Printf("PID:     %d\n", st.PID)
	fmt.Printf("Uptime:  %ds\n", st.UptimeSeconds)
}

func cmdLogin(ctx context.Context, c *client, token, userID string) {
	c.check(ctx, http.MethodPost, "/v1/auth", map[string]string{"token": token, "user_id": userID})
	fmt.Println("credentials stored")
}

func cmdKinds(ctx context.Context, c *client, jsonOut bool) {
	data := c.do(ctx, http.MethodGet, "/v1/kinds", nil)
	if jsonOut {
		outputJSON(data)
		return
	}
	var kinds []struct {
		Kind   string `json:"kind"`
		Phase  string `json:"phase"`
		Cached int    `json:"cached"`
	}
	if err := json.Unmarshal(data, &kinds); err != nil {
		fatalf("error: %v", err)
	}
	for _, k := range kinds {
		fmt.Printf("%-15s %-8s %d cached\n", k.Kind, k.Phase, k.Cached)
	}
}

func cmdChats(ctx context.Context, c *client, jsonOut bool) {
	data := c.do(ctx, http.MethodGet, "/v1/chats", nil)
	if jsonOut {
		outputJSON(data)
		return
	}
	var chats []rest.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		fatalf("error: %v", err)
	}
	for _, ch := range chats {
		fmt.Printf("%-12s %s\n", ch.ID, ch.Title)
	}
}

func cmdListings(ctx context.Context, c *client, kind string, refresh, jsonOut bool) {
	path := "/v1/kinds/" + kind + "/listings"
	if refresh {
		path += "?refresh=1"
	}
	data := c.do(ctx, http.MethodGet, path, nil)
	if jsonOut {
		outputJSON(data)
		return
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		fatalf("error: %v", err)
	}
	for _, item := range items {
		title, _ := item["title"].(string)
		if title == "" {
			title, _ = item["name"].(string)
		}
		fmt.Printf("%-10v %s\n", item["id"], title)
	}
	fmt.Printf("%d listing(s)\n", len(items))
}

func cmdCreate(ctx context.Context, c *client, kind, payload string) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		fatalf("error: invalid payload: %v", err)
	}
	data := c.do(ctx, http.MethodPost, "/v1/kinds/"+kind+"/listings", fields)
	outputJSON(data)
}

func cmdUpdate(ctx context.Context, c *client, kind, id, payload string) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		fatalf("error: invalid fields: %v", err)
	}
	data := c.do(ctx, http.MethodPut, "/v1/kinds/"+kind+"/listings/"+id, fields)
	outputJSON(data)
}

func cmdMessages(ctx context.Context, c *client, chatID string, jsonOut bool) {
	data := c.do(ctx, http.MethodGet, "/v1/chats/"+chatID+"/messages", nil)
	if jsonOut {
		outputJSON(data)
		return
	}
	var msgs []rest.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		fatalf("error: %v", err)
	}
	for _, m := range msgs {
		if m.MediaURL != "" {
			fmt.Printf("[%s] <media> %s\n", m.SenderID, m.MediaURL)
			continue
		}
		fmt.Printf("[%s] %s\n", m.SenderID, m.Body)
	}
	fmt.Printf("%d message(s)\n", len(msgs))
}

func cmdSend(ctx context.Context, c *client, chatID, body string, jsonOut bool) {
	data := c.do(ctx, http.MethodPost, "/v1/chats/"+chatID+"/messages", map[string]string{"body": body})
	if jsonOut {
		outputJSON(data)
		return
	}
	fmt.Println("sent")
}
