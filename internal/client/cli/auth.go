package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/billfold/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for credentials and creates a new account. The issued
// token is stored in the session, so the user is logged in right away.
func (a *App) Register(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, err := a.auth.Register(ctx, login, password)
	if err != nil {
		if errors.Is(err, common.ErrLoginAlreadyExists) {
			return fmt.Errorf("login %q is already taken", login)
		}
		return err
	}
	if err := a.session.SetToken(ctx, token); err != nil {
		return err
	}

	fmt.Println("Registered. Initial sync starting in the background.")
	a.orch.TriggerAsync()
	return nil
}

// Login prompts for credentials and authenticates against the server.
// The token persists locally, so subsequent launches stay logged in even
// when the server is unreachable.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, err := a.auth.Login(ctx, login, password)
	if err != nil {
		if errors.Is(err, common.ErrTransientNetwork) {
			return errors.New("server unreachable; try again when online")
		}
		if errors.Is(err, common.ErrAuthenticationRequired) {
			return errors.New("invalid login or password")
		}
		return err
	}
	if err := a.session.SetToken(ctx, token); err != nil {
		return err
	}

	fmt.Println("Logged in.")
	a.orch.TriggerAsync()
	return nil
}

// Logout drops the stored token. Local data stays on the device and keeps
// accumulating changes; they sync after the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
