package cli

import (
	"context"
	"fmt"
)

// Sync runs a sync cycle right away and reports the outcome. If a cycle is
// already in flight, this joins it instead of starting another.
func (a *App) Sync(ctx context.Context) error {
	res := a.orch.SyncNow(ctx)
	fmt.Println(res.Summary())
	return nil
}

// Status reports connectivity, engine state and the last sync outcome.
func (a *App) Status(ctx context.Context) error {
	if a.watcher.Online() {
		fmt.Println("Server: reachable")
	} else {
		fmt.Println("Server: unreachable (changes are collected locally)")
	}
	fmt.Printf("Engine: %s\n", a.orch.State())

	if last := a.orch.Last(); last != nil {
		fmt.Printf("Last sync: %s (%s)\n", last.Summary(), last.Finished.Format("15:04:05"))
	} else {
		fmt.Println("Last sync: never")
	}
	return nil
}
