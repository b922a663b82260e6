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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	AddClient(ctx context.Context) error
	AddProduct(ctx context.Context) error
	AddBill(ctx context.Context) error
	AddBillItem(ctx context.Context) error
	AddPayment(ctx context.Context) error
	ListClients(ctx context.Context) error
	ListProducts(ctx context.Context) error
	ListBills(ctx context.Context) error
	ListLedger(ctx context.Context) error
	Delete(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in, additionally:
//	  - addclient, addproduct, addbill, additem, addpayment
//	  - clients, products, bills, ledger
//	  - delete         — soft-delete a record (interactive prompt)
//	  - sync           — run a sync cycle now
//	  - status         — connectivity and last sync outcome
//	  - logout
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bf %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: addclient, addproduct, addbill, additem, addpayment,")
				printlnFn("  clients, products, bills, ledger, delete, sync, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)

		case "addclient":
			err = a.AddClient(ctx)
		case "addproduct":
			err = a.AddProduct(ctx)
		case "addbill":
			err = a.AddBill(ctx)
		case "additem":
			err = a.AddBillItem(ctx)
		case "addpayment":
			err = a.AddPayment(ctx)

		case "clients":
			err = a.ListClients(ctx)
		case "products":
			err = a.ListProducts(ctx)
		case "bills":
			err = a.ListBills(ctx)
		case "ledger":
			err = a.ListLedger(ctx)

		case "delete":
			err = a.Delete(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
