package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Recover(ctx context.Context) error
	Sync(ctx context.Context) error
	List(ctx context.Context) error
	Files(ctx context.Context) error
	Favorite(ctx context.Context, id string) error
	Unfavorite(ctx context.Context, id string) error
	Favs(ctx context.Context) error
	Preview(ctx context.Context, id string) error
	Get(ctx context.Context, id string) error
	RecoveryKey(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the photovault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           — show available commands
//	  - login          — store account material and unlock with passphrase
//	  - recover        — unlock with the recovery key
//	  - exit | quit    — leave the program
//
//	Unlocked:
//	  - help           — show available commands
//	  - sync           — synchronize collections and files
//	  - list           — list collections
//	  - files          — list files
//	  - fav <id>       — add a file to favorites
//	  - unfav <id>     — remove a file from favorites
//	  - favs           — list favorite file ids
//	  - preview <id>   — fetch and decrypt a file's thumbnail
//	  - get <id>       — fetch and decrypt a file's original
//	  - recovery       — show the recovery key
//	  - logout         — lock the session
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: sync, list, files, fav <id>, unfav <id>, favs, preview <id>, get <id>, recovery, logout, exit")
			} else {
				printlnFn("Available commands: login, recover, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "recover":
			_ = a.Recover(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "files":
			_ = a.Files(ctx)

		case "fav":
			if len(args) == 0 {
				printlnFn("Usage: fav <id>")
				continue
			}
			_ = a.Favorite(ctx, args[0])

		case "unfav":
			if len(args) == 0 {
				printlnFn("Usage: unfav <id>")
				continue
			}
			_ = a.Unfavorite(ctx, args[0])

		case "favs":
			_ = a.Favs(ctx)

		case "preview":
			if len(args) == 0 {
				printlnFn("Usage: preview <id>")
				continue
			}
			_ = a.Preview(ctx, args[0])

		case "get":
			if len(args) == 0 {
				printlnFn("Usage: get <id>")
				continue
			}
			_ = a.Get(ctx, args[0])

		case "recovery":
			_ = a.RecoveryKey(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
