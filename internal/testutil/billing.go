package testutil

import (
	"context"
	"sync"

	"github.com/nekogravitycat/bay-booking-backend/internal/billing"
)

// Billing records every command it receives.
type Billing struct {
	mu       sync.Mutex
	Commands []RecordedCommand
	// Fail, when set, is returned for the matching call kind.
	Fail map[string]error
}

type RecordedCommand struct {
	Kind string
	billing.Command
}

func NewBilling() *Billing {
	return &Billing{Fail: map[string]error{}}
}

func (b *Billing) record(kind string, cmd billing.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append(b.Commands, RecordedCommand{Kind: kind, Command: cmd})
	return b.Fail[kind]
}

func (b *Billing) NotifyCancellationRequested(_ context.Context, cmd billing.Command) error {
	return b.record(billing.KeyCancellationRequested, cmd)
}

func (b *Billing) ReverseCharges(_ context.Context, cmd billing.Command) error {
	return b.record(billing.KeyReverseCharges, cmd)
}

func (b *Billing) CaptureFees(_ context.Context, cmd billing.Command) error {
	return b.record(billing.KeyCaptureFees, cmd)
}

// Kinds lists the recorded call kinds in order.
func (b *Billing) Kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.Commands))
	for i, c := range b.Commands {
		out[i] = c.Kind
	}
	return out
}
