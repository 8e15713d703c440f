package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/mq"
)

type fakePublisher struct {
	err   error
	calls []string
	ids   []string
}

func (f *fakePublisher) PublishJSON(_ context.Context, key, messageID string, _ any) error {
	f.calls = append(f.calls, key)
	f.ids = append(f.ids, messageID)
	return f.err
}

func TestAMQPClientRoutesCommands(t *testing.T) {
	pub := &fakePublisher{}
	c := NewAMQPClient(pub, 0)
	ctx := context.Background()

	require.NoError(t, c.NotifyCancellationRequested(ctx, Command{BookingID: "b1", IdempotencyKey: "k1"}))
	require.NoError(t, c.ReverseCharges(ctx, Command{BookingID: "b1", IdempotencyKey: "k2"}))
	require.NoError(t, c.CaptureFees(ctx, Command{BookingID: "b1", IdempotencyKey: "k3", AmountCents: 3500}))

	assert.Equal(t, []string{KeyCancellationRequested, KeyReverseCharges, KeyCaptureFees}, pub.calls)
	assert.Equal(t, []string{"k1", "k2", "k3"}, pub.ids)
}

func TestAMQPClientSurfacesTransientIO(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection reset")}
	c := NewAMQPClient(pub, 0)

	err := c.ReverseCharges(context.Background(), Command{BookingID: "b1", IdempotencyKey: "k1"})

	require.Error(t, err)
	assert.Equal(t, apperror.KindTransientIO, apperror.KindOf(err))
	// No silent retry on money paths.
	assert.Len(t, pub.calls, 1)
}

func TestAMQPClientUnroutableRefundFails(t *testing.T) {
	pub := &fakePublisher{err: fmt.Errorf("publish %s: %w", KeyReverseCharges, mq.ErrUnroutable)}
	c := NewAMQPClient(pub, 0)

	err := c.ReverseCharges(context.Background(), Command{BookingID: "b1", IdempotencyKey: "k1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, mq.ErrUnroutable)
	assert.Equal(t, apperror.KindTransientIO, apperror.KindOf(err))
}
