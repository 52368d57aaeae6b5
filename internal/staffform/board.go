package staffform

import (
	"context"
	"fmt"
	"sync"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/realtime"
)

// MappingAPI mutates and lists governance mappings. *client.Client satisfies it.
type MappingAPI interface {
	Mappings(ctx context.Context) ([]hr.Mapping, error)
	AddMapping(ctx context.Context, departmentID, designationID int64) error
	RemoveMapping(ctx context.Context, departmentID, designationID int64) error
}

type row struct{ dept, desig int64 }

// MappingBoard edits the mapping grid. Each row allows one mutation at a time; a toggle on a
// busy row waits for the earlier one to settle. After every mutation the full list is fetched
// again instead of patching locally.
type MappingBoard struct {
	api      MappingAPI
	confirm  client.Confirmer
	notifier client.Notifier

	mu    sync.Mutex
	rules Rules
	rows  map[row]chan struct{}
}

func NewMappingBoard(api MappingAPI, confirm client.Confirmer, notifier client.Notifier) *MappingBoard {
	return &MappingBoard{
		api:      api,
		confirm:  confirm,
		notifier: notifier,
		rules:    Rules{},
		rows:     make(map[row]chan struct{}),
	}
}

// Refresh replaces the local rules with the server's.
func (b *MappingBoard) Refresh(ctx context.Context) error {
	list, err := b.api.Mappings(ctx)
	if err != nil {
		return err
	}
	rules := RulesFrom(list)
	b.mu.Lock()
	b.rules = rules
	b.mu.Unlock()
	return nil
}

// Rules returns a copy of the last fetched rules.
func (b *MappingBoard) Rules() Rules {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rules.clone()
}

// Busy reports whether a mutation on the row is pending.
func (b *MappingBoard) Busy(departmentID, designationID int64) bool {
	sem := b.semaphore(row{departmentID, designationID})
	return len(sem) > 0
}

func (b *MappingBoard) semaphore(r row) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	sem, ok := b.rows[r]
	if !ok {
		sem = make(chan struct{}, 1)
		b.rows[r] = sem
	}
	return sem
}

// Toggle removes the mapping when currentlyAllowed and adds it otherwise. Removal asks for
// confirmation first. Exactly one mutation is sent per call and the rules are re-fetched
// whether it succeeded or not.
func (b *MappingBoard) Toggle(ctx context.Context, departmentID, designationID int64, currentlyAllowed bool) error {
	if currentlyAllowed {
		prompt := fmt.Sprintf("Remove designation %d from department %d?", designationID, departmentID)
		if err := client.Confirm(b.confirm, prompt); err != nil {
			return err
		}
	}

	sem := b.semaphore(row{departmentID, designationID})
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	var err error
	if currentlyAllowed {
		err = b.api.RemoveMapping(ctx, departmentID, designationID)
	} else {
		err = b.api.AddMapping(ctx, departmentID, designationID)
	}
	refreshErr := b.Refresh(ctx)

	if err != nil {
		client.Emit(b.notifier, client.LevelError, client.UserMessage(err, "could not update mapping"))
		return err
	}
	if currentlyAllowed {
		client.Emit(b.notifier, client.LevelSuccess, "mapping removed")
	} else {
		client.Emit(b.notifier, client.LevelSuccess, "mapping added")
	}
	return refreshErr
}

// FeedSource streams change events. *client.Client satisfies it.
type FeedSource interface {
	WatchMappings(ctx context.Context, onEvent func(realtime.Event)) error
}

// Follow refreshes the board whenever another editor changes the mappings, until ctx ends or
// the feed drops.
func (b *MappingBoard) Follow(ctx context.Context, feed FeedSource) error {
	return feed.WatchMappings(ctx, func(ev realtime.Event) {
		if ev.Type != hr.MappingsChanged {
			return
		}
		if err := b.Refresh(ctx); err != nil {
			client.Emit(b.notifier, client.LevelError, client.UserMessage(err, "could not refresh mappings"))
		}
	})
}
