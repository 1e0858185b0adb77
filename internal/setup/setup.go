// Package setup registers vimango-mcp as an MCP server with AI agents.
//
// - OpenCode: upserts an entry under "mcp" in opencode.json
// - Claude Code: runs `claude mcp add --scope user vimango -- ...`
// - Gemini CLI: upserts mcpServers.vimango in ~/.gemini/settings.json
// - Codex: upserts [mcp_servers.vimango] in ~/.codex/config.toml
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	runtimeGOOS = runtime.GOOS
	userHomeDir = os.UserHomeDir
	lookPathFn  = exec.LookPath
	runCommand  = func(name string, args ...string) ([]byte, error) {
		return exec.Command(name, args...).CombinedOutput()
	}
	readFileFn          = os.ReadFile
	writeFileFn         = os.WriteFile
	jsonMarshalIndentFn = json.MarshalIndent
)

// ServerName is the key vimango-mcp is registered under in every agent.
const ServerName = "vimango"

// Agent represents a supported AI coding agent.
type Agent struct {
	Name        string
	Description string
	InstallDir  string // resolved at runtime (display only for claude-code)
}

// Result holds the outcome of an installation.
type Result struct {
	Agent       string
	Destination string
	Files       int
}

// Options controls the command each agent is told to launch.
type Options struct {
	// Binary is the vimango-mcp executable; defaults to "vimango-mcp" on PATH.
	Binary string
	// ConfigPath is passed as --config when set.
	ConfigPath string
	// Tools is passed as --tools when set (e.g. "read").
	Tools string
}

// Command returns the executable and arguments an agent should run.
func (o Options) Command() (string, []string) {
	bin := o.Binary
	if bin == "" {
		bin = "vimango-mcp"
	}
	args := []string{"mcp"}
	if o.ConfigPath != "" {
		args = append(args, "--config", o.ConfigPath)
	}
	if o.Tools != "" {
		args = append(args, "--tools="+o.Tools)
	}
	return bin, args
}

// SupportedAgents returns the agents Install knows how to configure.
func SupportedAgents() []Agent {
	return []Agent{
		{
			Name:        "opencode",
			Description: "OpenCode — local MCP entry in opencode.json",
			InstallDir:  openCodeConfigPath(),
		},
		{
			Name:        "claude-code",
			Description: "Claude Code — user-scoped MCP server via `claude mcp add`",
			InstallDir:  "managed by claude mcp",
		},
		{
			Name:        "gemini-cli",
			Description: "Gemini CLI — mcpServers entry in settings.json",
			InstallDir:  geminiConfigPath(),
		},
		{
			Name:        "codex",
			Description: "Codex — [mcp_servers.vimango] in config.toml",
			InstallDir:  codexConfigPath(),
		},
	}
}

// Install registers vimango-mcp with the given agent. Running it again
// replaces the previous registration.
func Install(agentName string, opts Options) (*Result, error) {
	switch agentName {
	case "opencode":
		return installOpenCode(opts)
	case "claude-code":
		return installClaudeCode(opts)
	case "gemini-cli":
		return installGeminiCLI(opts)
	case "codex":
		return installCodex(opts)
	default:
		return nil, fmt.Errorf("unknown agent: %q (supported: opencode, claude-code, gemini-cli, codex)", agentName)
	}
}

// ─── JSON configs ────────────────────────────────────────────────────────────

// upsertJSONServer sets config[block][ServerName] = entry, keeping every
// other key of the file and of the block.
func upsertJSONServer(configPath, block string, entry any) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var config map[string]json.RawMessage
	data, err := readFileFn(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
		config = make(map[string]json.RawMessage)
	} else if len(strings.TrimSpace(string(data))) == 0 {
		config = make(map[string]json.RawMessage)
	} else if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	servers := make(map[string]json.RawMessage)
	if raw, exists := config[block]; exists {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("parse %s block: %w", block, err)
		}
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", ServerName, err)
	}
	servers[ServerName] = json.RawMessage(entryJSON)

	blockJSON, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("marshal %s block: %w", block, err)
	}
	config[block] = json.RawMessage(blockJSON)

	output, err := jsonMarshalIndentFn(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeFileFn(configPath, output, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ─── OpenCode ────────────────────────────────────────────────────────────────

func installOpenCode(opts Options) (*Result, error) {
	path := openCodeConfigPath()
	bin, args := opts.Command()

	entry := map[string]any{
		"type":    "local",
		"command": append([]string{bin}, args...),
		"enabled": true,
	}
	if err := upsertJSONServer(path, "mcp", entry); err != nil {
		return nil, err
	}

	return &Result{Agent: "opencode", Destination: path, Files: 1}, nil
}

// ─── Claude Code ─────────────────────────────────────────────────────────────

func installClaudeCode(opts Options) (*Result, error) {
	claudeBin, err := lookPathFn("claude")
	if err != nil {
		return nil, fmt.Errorf("claude CLI not found in PATH; install Claude Code first")
	}

	bin, args := opts.Command()
	addArgs := append([]string{"mcp", "add", "--scope", "user", ServerName, "--", bin}, args...)

	out, err := runCommand(claudeBin, addArgs...)
	if err != nil {
		if !strings.Contains(string(out), "already exists") {
			return nil, fmt.Errorf("claude mcp add failed: %s", strings.TrimSpace(string(out)))
		}
		// Replace the stale registration so a changed --config takes effect.
		if rmOut, err := runCommand(claudeBin, "mcp", "remove", "--scope", "user", ServerName); err != nil {
			return nil, fmt.Errorf("claude mcp remove failed: %s", strings.TrimSpace(string(rmOut)))
		}
		if out, err := runCommand(claudeBin, addArgs...); err != nil {
			return nil, fmt.Errorf("claude mcp add failed: %s", strings.TrimSpace(string(out)))
		}
	}

	return &Result{
		Agent:       "claude-code",
		Destination: "claude mcp (user scope)",
		Files:       0,
	}, nil
}

// ─── Gemini CLI ──────────────────────────────────────────────────────────────

func installGeminiCLI(opts Options) (*Result, error) {
	path := geminiConfigPath()
	bin, args := opts.Command()

	entry := map[string]any{
		"command": bin,
		"args":    args,
	}
	if err := upsertJSONServer(path, "mcpServers", entry); err != nil {
		return nil, err
	}

	return &Result{Agent: "gemini-cli", Destination: path, Files: 1}, nil
}

// ─── Codex ───────────────────────────────────────────────────────────────────

func installCodex(opts Options) (*Result, error) {
	path := codexConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	data, err := readFileFn(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	updated := upsertCodexBlock(string(data), codexBlock(opts))
	if err := writeFileFn(path, []byte(updated), 0644); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	return &Result{Agent: "codex", Destination: path, Files: 1}, nil
}

func codexBlock(opts Options) string {
	bin, args := opts.Command()
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = tomlString(a)
	}
	return fmt.Sprintf("[mcp_servers.%s]\ncommand = %s\nargs = [%s]",
		ServerName, tomlString(bin), strings.Join(quoted, ", "))
}

// upsertCodexBlock drops any existing [mcp_servers.vimango] table and
// appends block at the end.
func upsertCodexBlock(content, block string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	header := "[mcp_servers." + ServerName + "]"

	var kept []string
	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == header {
			i++
			for i < len(lines) {
				next := strings.TrimSpace(lines[i])
				if strings.HasPrefix(next, "[") && strings.HasSuffix(next, "]") {
					break
				}
				i++
			}
			continue
		}
		kept = append(kept, lines[i])
		i++
	}

	base := strings.TrimSpace(strings.Join(kept, "\n"))
	if base == "" {
		return block + "\n"
	}
	return base + "\n\n" + block + "\n"
}

// tomlString renders s as a TOML basic string.
func tomlString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// ─── Platform paths ──────────────────────────────────────────────────────────

func openCodeConfigPath() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "darwin", "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "opencode", "opencode.json")
		}
		return filepath.Join(home, ".config", "opencode", "opencode.json")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "opencode", "opencode.json")
		}
		return filepath.Join(home, "AppData", "Roaming", "opencode", "opencode.json")
	default:
		return filepath.Join(home, ".config", "opencode", "opencode.json")
	}
}

func geminiConfigPath() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gemini", "settings.json")
		}
		return filepath.Join(home, "AppData", "Roaming", "gemini", "settings.json")
	default:
		return filepath.Join(home, ".gemini", "settings.json")
	}
}

func codexConfigPath() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "codex", "config.toml")
		}
		return filepath.Join(home, "AppData", "Roaming", "codex", "config.toml")
	default:
		return filepath.Join(home, ".codex", "config.toml")
	}
}
