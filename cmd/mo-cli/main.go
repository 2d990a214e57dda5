package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"matholymp/internal/cli/command"
	"matholymp/internal/cli/config"
	httpclient "matholymp/internal/cli/http"
	"matholymp/internal/cli/repl"
	"matholymp/internal/cli/state"
)

const (
	defaultConfigPath = "configs/mo_cli.yaml"
	configEnv         = "MATHOLYMP_CLI_CONFIG"
)

func main() {
	defaultPath := defaultConfigPath
	if v := os.Getenv(configEnv); v != "" {
		defaultPath = v
	}
	configPath := flag.String("config", defaultPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override token state path")
	raw := flag.Bool("raw", false, "Print responses without reformatting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *raw {
		falseValue := false
		cfg.PrettyJSON = &falseValue
	}

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		os.Exit(1)
	}
	if *token != "" {
		tokenState = state.TokenState{AccessToken: *token}
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout, func() string {
		return tokenState.AccessToken
	})
	session := repl.New(client, command.Registry(), &tokenState, cfg.TokenStatePath, *cfg.PrettyJSON, os.Stdout)

	ctx := context.Background()
	// Arguments run a single command, e.g. mo-cli country list.
	if flag.NArg() > 0 {
		line := shellJoin(flag.Args())
		if flag.NArg() == 1 {
			line = flag.Arg(0)
		}
		if err := session.Execute(ctx, line, nil); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := session.Run(ctx, cfg.HistoryPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// shellJoin quotes args so that the session's shlex parsing restores them.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
	}
	return strings.Join(quoted, " ")
}
