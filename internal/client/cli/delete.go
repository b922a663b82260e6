package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/common"
)

// Delete soft-deletes a record. The row disappears from listings at once
// and the deletion propagates to other devices on the next sync cycle.
func (a *App) Delete(ctx context.Context) error {
	kindName, err := getSimpleText(a.reader,
		"Record kind (clients, products, bills, bill_items, ledger_entries)", os.Stdout)
	if err != nil {
		return err
	}
	kind := models.Kind(kindName)
	if models.New(kind) == nil {
		return fmt.Errorf("unknown kind %q", kindName)
	}

	id, err := getSimpleText(a.reader, "Record id to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.store.MarkDeleted(ctx, kind, id, time.Now()); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no %s record with id %s", kind, id)
		}
		return err
	}

	fmt.Println("Deleted.")
	return nil
}
