// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awcullen/uaexplore/internal/testserver"
	"gotest.tools/assert"
)

func TestParseNodeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"i=85", "i=85", true},
		{"ns=2;s=Demo.Static.Scalar.Double", "ns=2;s=Demo.Static.Scalar.Double", true},
		{"ns=x;i=1", "", false},
		{"85", "", false},
	}
	for _, c := range cases {
		id, err := parseNodeID(c.in)
		assert.Equal(t, err == nil, c.ok, c.in)
		if c.ok {
			assert.Equal(t, fmt.Sprint(id), c.want)
		}
	}
}

func execute(t *testing.T, args ...string) string {
	return executeWith(t, context.Background(), strings.NewReader(""), args...)
}

// executeWith runs the root command with the given context and standard input, ignoring any dotenv file.
func executeWith(t *testing.T, ctx context.Context, in io.Reader, args ...string) string {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(in)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatal(err, out.String())
	}
	return out.String()
}

func TestCertCommand(t *testing.T) {
	dir := t.TempDir()
	args := []string{
		"cert",
		"--cert-file", filepath.Join(dir, "client_cert.pem"),
		"--key-file", filepath.Join(dir, "client_key.pem"),
		"--app-uri", "urn:plc1:uaexplore",
		"--host-name", "plc1",
	}

	out := execute(t, args...)
	assert.Assert(t, strings.HasPrefix(out, "Generated key"), out)
	assert.Assert(t, strings.Contains(out, "  URI: urn:plc1:uaexplore\n"), out)
	assert.Assert(t, strings.Contains(out, "  DNS: plc1\n"), out)

	out = execute(t, args...)
	assert.Assert(t, strings.HasPrefix(out, "Using existing certificate"), out)
}

func TestSubcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"browse", "cert", "dump", "explore", "watch"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		assert.Assert(t, found, "missing %s in %v", want, names)
	}
}

func TestWithServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test with server in short mode")
	}
	endpointURL := testserver.Start(t, 46021)

	dir := t.TempDir()
	common := []string{
		"--server-url", endpointURL,
		"--cert-file", filepath.Join(dir, "client_cert.pem"),
		"--key-file", filepath.Join(dir, "client_key.pem"),
		"--username", "root",
		"--password", "secret",
		"--insecure-skip-verify",
		"--log-level", "error",
	}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), common...)
	}

	t.Run("browse", func(t *testing.T) {
		out := execute(t, with("browse")...)
		for _, want := range []string{"Connected to ", "Root node: i=84\n", "Objects node: i=85\n", "  Server\n"} {
			assert.Assert(t, strings.Contains(out, want), "missing %q in %s", want, out)
		}
	})

	t.Run("browse without security", func(t *testing.T) {
		out := execute(t, with("browse", "--security-policy", "None", "--security-mode", "None")...)
		assert.Assert(t, strings.Contains(out, "  Server\n"), out)
	})

	t.Run("dump server status", func(t *testing.T) {
		out := execute(t, with("dump", "i=2256")...)
		assert.Assert(t, strings.HasPrefix(out, "=== OPC UA node dump ===\n"), out)
		assert.Assert(t, strings.Contains(out, "ServerStatus"), out)
		assert.Assert(t, strings.Contains(out, "--- attribute sweep (AttributeIds) ---\n"), out)
	})

	t.Run("explore from leaf and dump", func(t *testing.T) {
		out := execute(t, with("explore", "--from", "i=2258", "--dump")...)
		assert.Assert(t, strings.HasPrefix(out, "=== OPC UA node dump ===\n"), out)
		assert.Assert(t, strings.Contains(out, "CurrentTime"), out)
	})

	t.Run("explore from leaf", func(t *testing.T) {
		out := execute(t, with("explore", "--from", "i=2258")...)
		assert.Equal(t, out, "CurrentTime (i=2258)\n")
	})

	t.Run("explore and quit", func(t *testing.T) {
		out := executeWith(t, context.Background(), strings.NewReader("q\n"), with("explore")...)
		assert.Assert(t, strings.Contains(out, "] Server\n"), out)
	})

	t.Run("watch until cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		time.AfterFunc(3*time.Second, cancel)
		out := executeWith(t, ctx, strings.NewReader(""), with("watch", "i=2258", "--poll-interval", "200ms")...)
		var lines []string
		for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
			if strings.Contains(line, " i=2258 ") {
				lines = append(lines, line)
			}
		}
		assert.Assert(t, len(lines) >= 2, out)
	})
}
