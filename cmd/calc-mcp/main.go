// Команда calc-mcp - калькулятор как MCP-сервер (stdio или HTTP)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/DipperMason/desk-calculator/internal/mcptools"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	var (
		portFlag    = flag.Int("port", 0, "TCP-порт (0 - stdio)")
		versionFlag = flag.Bool("version", false, "показать версию")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println("calc-mcp v0.1.0")
		os.Exit(0)
	}

	// stdout занят протоколом
	logger := log.New(os.Stderr, "", log.LstdFlags)

	mcpServer := server.NewMCPServer(
		"desk-calculator",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	calc := mcptools.NewCalculator(agent.WithLogger(logger))
	calc.SetLogger(logger)
	mcptools.Register(mcpServer, calc)

	if *portFlag == 0 {
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
		return
	}

	httpServer := server.NewStreamableHTTPServer(mcpServer)
	logger.Printf("Starting HTTP server on port %d", *portFlag)
	if err := httpServer.Start(fmt.Sprintf(":%d", *portFlag)); err != nil {
		logger.Fatalf("HTTP server failed: %v", err)
	}
}
