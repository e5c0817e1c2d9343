package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ludo-technologies/dupscan/internal/version"
	"github.com/ludo-technologies/dupscan/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverName = "dupscan"

func main() {
	// Set up logging to stderr (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(nil))

	log.Printf("Starting %s MCP server v%s\n", serverName, version.Short())
	log.Println("Registered tools:")
	log.Println("  - scan_duplicates: Near-duplicate detection")
	log.Println("  - similarity_graph: Similarity graph construction")
	log.Println("")
	log.Println("Server ready - waiting for MCP client connection...")

	// Blocks until the server is terminated
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
