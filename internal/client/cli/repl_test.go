package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) call(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	return f.call("register")
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.call("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.call("logout")
}
func (f *fakeExec) AddClient(ctx context.Context) error   { return f.call("addclient") }
func (f *fakeExec) AddProduct(ctx context.Context) error  { return f.call("addproduct") }
func (f *fakeExec) AddBill(ctx context.Context) error     { return f.call("addbill") }
func (f *fakeExec) AddBillItem(ctx context.Context) error { return f.call("additem") }
func (f *fakeExec) AddPayment(ctx context.Context) error  { return f.call("addpayment") }
func (f *fakeExec) ListClients(ctx context.Context) error { return f.call("clients") }
func (f *fakeExec) ListProducts(ctx context.Context) error {
	return f.call("products")
}
func (f *fakeExec) ListBills(ctx context.Context) error  { return f.call("bills") }
func (f *fakeExec) ListLedger(ctx context.Context) error { return f.call("ledger") }
func (f *fakeExec) Delete(ctx context.Context) error     { return f.call("delete") }
func (f *fakeExec) Sync(ctx context.Context) error       { return f.call("sync") }
func (f *fakeExec) Status(ctx context.Context) error     { return f.call("status") }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"addclient",
		"clients",
		"addbill",
		"sync",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "addclient", "clients", "addbill", "sync"}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
}

func TestRunREPL_EmptyLinesAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("\n   \nquit\nsync\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls after quit: %v", exec.calls)
	}
}
