// Command abramcp serves the ABRA Gen tools over the Model Context
// Protocol, either on stdio for subprocess clients or over streamable
// HTTP.
package main

import (
	"flag"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abrachat/abrachat/abra"
	"github.com/abrachat/abrachat/abratools"
	"github.com/abrachat/abrachat/config"
	"github.com/abrachat/abrachat/tools"
	"github.com/abrachat/abrachat/tools/mcptools"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "abramcp")

const serverVersion = "0.1.0"

func main() {
	transport := flag.String("transport", mcptools.TransportStdio, "transport to serve on: stdio or streamable_http")
	addr := flag.String("addr", ":8090", "listen address for streamable_http transport")
	flag.Parse()

	// stdout carries the protocol on stdio transport; logs go to stderr
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	xlog.SetGlobalLogLevel(xlog.INFO)

	if err := run(*transport, *addr); err != nil {
		logger.KV(xlog.ERROR, "status", "failed", "err", err.Error())
		os.Exit(1)
	}
}

func run(transport, addr string) error {
	cfg, err := config.LoadAbra()
	if err != nil {
		return err
	}

	client, err := abra.NewClient(cfg.Host, cfg.Database, cfg.Username, cfg.Password,
		abra.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	list, err := abratools.All(client)
	if err != nil {
		return err
	}

	srv := server.NewMCPServer("abra-mcp", serverVersion,
		server.WithToolCapabilities(false))
	if err := tools.RegisterMCP(srv, list...); err != nil {
		return err
	}

	logger.KV(xlog.INFO,
		"status", "serving",
		"transport", transport,
		"tools", len(list),
	)

	switch transport {
	case mcptools.TransportStdio:
		return server.ServeStdio(srv)
	case mcptools.TransportStreamableHTTP:
		return server.NewStreamableHTTPServer(srv).Start(addr)
	default:
		return errors.Newf("unsupported transport %q", transport)
	}
}
