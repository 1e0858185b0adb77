// vimango-mcp exposes vimango notes to AI agents over MCP.
//
// Usage:
//
//	vimango-mcp mcp              Start the MCP server (stdio transport)
//	vimango-mcp serve            Start the local HTTP API
//	vimango-mcp tui              Browse notes in the terminal
//	vimango-mcp search <query>   Search the FTS index
//	vimango-mcp get --id N       Show one note
//	vimango-mcp create <t> <b>   Create a note
//	vimango-mcp setup [agent]    Register the MCP server with an agent
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/vimango/vimango-mcp/internal/config"
	"github.com/vimango/vimango-mcp/internal/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err as "<category>: message".
func printError(w io.Writer, err error) {
	label := string(store.Classify(err))
	if errors.Is(err, config.ErrMissingKey) || errors.Is(err, config.ErrExists) {
		label = "config"
	}
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint(label+":"), err)
}
