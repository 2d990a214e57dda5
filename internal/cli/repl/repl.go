package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"matholymp/internal/cli/command"
	httpclient "matholymp/internal/cli/http"
	"matholymp/internal/cli/state"
	pkgerrors "matholymp/pkg/errors"

	"github.com/chzyer/readline"
	"github.com/google/renameio/v2"
	"github.com/google/shlex"
)

const prompt = "mo> "

// PromptFunc asks the user for the value of a missing field.
type PromptFunc func(field command.Field) (string, error)

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	tokenState *state.TokenState
	statePath  string
	prettyJSON bool
	out        io.Writer
	now        func() time.Time
}

func New(client *httpclient.Client, commands map[string]command.Command, tokenState *state.TokenState, statePath string, prettyJSON bool, out io.Writer) *Session {
	if out == nil {
		out = os.Stdout
	}
	return &Session{
		client:     client,
		commands:   commands,
		tokenState: tokenState,
		statePath:  statePath,
		prettyJSON: prettyJSON,
		out:        out,
		now:        time.Now,
	}
}

// Run reads commands until exit or end of input.
func (s *Session) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()
	s.out = rl.Stdout()

	ask := func(field command.Field) (string, error) {
		if field.Name == "password" {
			b, err := rl.ReadPassword(field.Prompt + ": ")
			return string(b), err
		}
		rl.SetPrompt(field.Prompt + ": ")
		defer rl.SetPrompt(prompt)
		line, err := rl.Readline()
		return strings.TrimSpace(line), err
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.Execute(ctx, line, ask); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) completer() *readline.PrefixCompleter {
	byResource := make(map[string][]readline.PrefixCompleterInterface)
	for _, cmd := range s.commands {
		byResource[cmd.Resource] = append(byResource[cmd.Resource], readline.PcItem(cmd.Action))
	}
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("logout"),
		readline.PcItem("set", readline.PcItem("base"), readline.PcItem("timeout"), readline.PcItem("token")),
		readline.PcItem("show", readline.PcItem("token"), readline.PcItem("config")),
	}
	for _, res := range command.Resources(s.commands) {
		items = append(items, readline.PcItem(res, byResource[res]...))
	}
	return readline.NewPrefixCompleter(items...)
}

// Execute runs one line. ask is called for required fields that were not
// given; it may be nil when no prompting is possible.
func (s *Session) Execute(ctx context.Context, line string, ask PromptFunc) error {
	if s.handleSystemCommand(line) {
		return nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <resource> <action> key=value ...")
	}
	cmd, ok := s.commands[tokens[0]+" "+tokens[1]]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", tokens[0], tokens[1])
	}
	params := command.Params{}
	for _, token := range tokens[2:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(key, value)
	}
	params.Canonicalize(cmd.Fields)

	if cmd.RequiresAuth && s.tokenState.AccessToken == "" {
		return fmt.Errorf("not logged in, use: auth login")
	}
	if cmd.RequiresAuth && s.tokenState.Expired(s.now()) {
		return fmt.Errorf("session expired, use: auth login")
	}
	if err := s.promptMissing(cmd, params, ask); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	if cmd.Download && resp.StatusCode == 200 && !resp.IsJSON() {
		return s.saveDownload(params.Get("out"), resp)
	}
	s.renderResponse(resp)
	if cmd.Key() == "auth login" {
		s.updateTokenFromResponse(resp.Body)
	}
	return nil
}

func (s *Session) handleSystemCommand(line string) bool {
	switch line {
	case "help":
		s.printHelp()
		return true
	case "logout":
		*s.tokenState = state.TokenState{}
		if err := state.Clear(s.statePath); err != nil {
			s.printLine("clear token failed: %v", err)
			return true
		}
		s.printLine("logged out")
		return true
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true
	}
	if strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
		return true
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.printLine("usage: set base|token|timeout")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.printLine("usage: set base http://127.0.0.1:8080")
			return
		}
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", parts[1])
	case "timeout":
		if len(parts) < 2 {
			s.printLine("usage: set timeout 10s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil {
			s.printLine("invalid duration: %v", err)
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	case "token":
		if len(parts) < 2 {
			s.printLine("usage: set token <access_token>")
			return
		}
		*s.tokenState = state.TokenState{AccessToken: parts[1]}
		if err := state.Save(s.statePath, *s.tokenState); err != nil {
			s.printLine("save token failed: %v", err)
			return
		}
		s.printLine("token updated")
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "token":
		if s.tokenState.AccessToken == "" {
			s.printLine("token: <empty>")
			return
		}
		token := s.tokenState.AccessToken
		if len(token) > 12 {
			token = token[:6] + "..." + token[len(token)-4:]
		}
		s.printLine("token: %s", token)
		if s.tokenState.Username != "" {
			s.printLine("user: %s roles: %s", s.tokenState.Username, strings.Join(s.tokenState.Roles, ","))
		}
		if !s.tokenState.ExpiresAt.IsZero() {
			s.printLine("expires: %s", s.tokenState.ExpiresAt.Format(time.RFC3339))
		}
	case "config":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("tokenStatePath: %s", s.statePath)
	default:
		s.printLine("usage: show token|config")
	}
}

func (s *Session) promptMissing(cmd command.Command, params command.Params, ask PromptFunc) error {
	for _, field := range cmd.Fields {
		if !field.Required || params.Get(field.Name) != "" {
			continue
		}
		if ask == nil {
			return fmt.Errorf("missing parameter: %s", field.Name)
		}
		value, err := ask(field)
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		if value == "" {
			return fmt.Errorf("missing parameter: %s", field.Name)
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) saveDownload(path string, resp httpclient.ResponseInfo) error {
	if err := renameio.WriteFile(path, resp.Body, 0o644); err != nil {
		return fmt.Errorf("write %s failed: %w", path, err)
	}
	s.printLine("HTTP %d (%s) saved %d bytes to %s", resp.StatusCode, resp.Duration, len(resp.Body), path)
	return nil
}

func (s *Session) renderResponse(resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) updateTokenFromResponse(body []byte) {
	type userInfo struct {
		Username  string   `json:"username"`
		CountryID int64    `json:"country_id"`
		Roles     []string `json:"roles"`
	}
	type loginData struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
		User        userInfo  `json:"user"`
	}
	type respEnvelope struct {
		Code int       `json:"code"`
		Data loginData `json:"data"`
	}
	var resp respEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return
	}
	if resp.Code != int(pkgerrors.Success) || resp.Data.AccessToken == "" {
		return
	}
	*s.tokenState = state.TokenState{
		AccessToken: resp.Data.AccessToken,
		ExpiresAt:   resp.Data.ExpiresAt,
		Username:    resp.Data.User.Username,
		CountryID:   resp.Data.User.CountryID,
		Roles:       resp.Data.User.Roles,
	}
	if err := state.Save(s.statePath, *s.tokenState); err != nil {
		s.printLine("save token failed: %v", err)
	}
}

func (s *Session) printHelp() {
	s.printLine("usage: <resource> <action> key=value ...")
	s.printLine("system: help | exit | logout | set base|timeout|token | show token|config")
	keys := make([]string, 0, len(s.commands))
	for key := range s.commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.printLine("commands:")
	for _, key := range keys {
		s.printLine("  %s", key)
	}
	s.printLine("examples:")
	s.printLine("  auth login username=admin")
	s.printLine("  country create code=ABC name=\"Alphabetia\" official=yes")
	s.printLine("  scores enter country=3 problem=1 scores=ABC1=7,ABC2=0,ABC3=")
	s.printLine("  export people private=yes out=people.csv")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
