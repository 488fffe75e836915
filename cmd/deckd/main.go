// deckd is the background daemon that supervises PTY-backed AI assistant
// sessions.
//
// Usage:
//
//	deckd [--root <dir>]
//
// The daemon listens on a Unix domain socket at <root>/deckd.sock for
// client requests and on <root>/hooks.sock for the installed hook script's
// status reports. It is normally started automatically by a front-end
// client; running it by hand is only needed for development.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/agentdeck/deckd/internal/assistant"
	"github.com/agentdeck/deckd/internal/hooks"
	"github.com/agentdeck/deckd/internal/ipc"
	"github.com/agentdeck/deckd/internal/paths"
	"github.com/agentdeck/deckd/internal/session"
)

func main() {
	defaultRoot, err := paths.DefaultRoot()
	if err != nil {
		log.Fatalf("cannot determine data directory: %v", err)
	}

	rootDir := flag.String("root", defaultRoot, "deckd data directory (env: DECKD_ROOT)")
	flag.Parse()

	flags := log.LstdFlags
	if paths.LogLevel() == "debug" {
		flags |= log.Lmicroseconds
	}
	log.SetFlags(flags)

	layout, err := paths.Resolve(*rootDir)
	if err != nil {
		log.Fatalf("resolve data directory: %v", err)
	}

	printBanner(layout.Root)

	resolver := assistant.New()
	if !resolver.Available() {
		log.Printf("warning: no assistant binary found on PATH or in common install locations")
	}

	hookMgr := hooks.NewManager(layout.HooksDir, layout.HookSocket)
	if _, err := hookMgr.EnsureScript(); err != nil {
		log.Fatalf("install hook script: %v", err)
	}

	mgr := session.New(layout, resolver, hookMgr)
	if err := mgr.Load(); err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	hub := ipc.NewHub()
	mgr.SetPublisher(hub)

	hookListener := hooks.NewListener(layout.HookSocket)

	done := make(chan struct{})
	mgr.Run(done)
	mgr.ConsumeHookEvents(hookListener.Events(), done)

	go func() {
		if err := hookListener.Run(); err != nil {
			log.Printf("hook listener stopped: %v", err)
		}
	}()

	dispatcher := ipc.NewDispatcher(mgr)
	server := ipc.NewServer(layout.Socket, hub, dispatcher)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received %v, shutting down", sig)
		close(done)
		os.Remove(layout.Socket)
		os.Remove(layout.HookSocket)
		os.Exit(0)
	}()

	log.Printf("listening on %s", layout.Socket)
	if err := server.Serve(); err != nil {
		log.Fatalf("ipc server: %v", err)
	}
}

// printBanner shows a one-line startup message when running attached to a
// real terminal; a foreground dev invocation benefits from it, a
// supervised/piped one doesn't need it.
func printBanner(root string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	fmt.Printf("deckd starting, data dir %s\n", root)
}
