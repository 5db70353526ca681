// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/mcpserver"
	"github.com/davetashner/buildsignal/internal/xclog"
)

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running buildsignal as an MCP server, exposing read-only build log queries to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing buildsignal's read-only tools:
  - list_projects: Projects found in DerivedData
  - list_builds:   Recorded builds of a project
  - notices:       Filtered notices of a build, in any output format
  - tree:          Notice counts by directory
  - categories:    Warning categories in match order
  - diff:          Notices added and resolved between two builds
  - report:        Build health report as JSON

Parsed logs are kept in memory for the life of the server, so repeated
queries against the same build do not parse it again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cmd.Context(), xclog.DefaultCacheSize)
		if err != nil {
			return err
		}
		return mcpserver.Run(cmd.Context(), mcpserver.Options{
			Version:  Version,
			Pipeline: s.pipe,
			Config:   s.cfg,
			Store:    s.store,
		}, &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
