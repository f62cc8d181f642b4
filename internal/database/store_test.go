package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"ticketdesk/entity"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistrant(number int, email string) *entity.Registrant {
	return &entity.Registrant{
		Id:           uuid.NewString(),
		Name:         fmt.Sprintf("Guest %d", number),
		Email:        email,
		Phone:        "+233241234567",
		TicketNumber: number,
		TicketCode:   entity.TicketCode(number),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// testStore runs the behaviour every Store implementation has to share.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("claim without counter", func(t *testing.T) {
		_, err := store.ClaimTicket(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetCounter(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ensure counter is idempotent", func(t *testing.T) {
		created, err := store.EnsureCounter(ctx, "ensure", 10)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.EnsureCounter(ctx, "ensure", 50)
		require.NoError(t, err)
		assert.False(t, created)

		counter, err := store.GetCounter(ctx, "ensure")
		require.NoError(t, err)
		assert.Equal(t, 0, counter.Current)
		assert.Equal(t, 10, counter.Total)
	})

	t.Run("concurrent claims never oversell", func(t *testing.T) {
		const total = 5
		_, err := store.EnsureCounter(ctx, "race", total)
		require.NoError(t, err)

		var mu sync.Mutex
		var numbers []int
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := store.ClaimTicket(ctx, "race")
				if err != nil {
					assert.ErrorIs(t, err, ErrNotFound)
					return
				}
				mu.Lock()
				numbers = append(numbers, n)
				mu.Unlock()
			}()
		}
		wg.Wait()

		sort.Ints(numbers)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, numbers)

		counter, err := store.GetCounter(ctx, "race")
		require.NoError(t, err)
		assert.Equal(t, total, counter.Current)
	})

	t.Run("set counter current restarts numbering", func(t *testing.T) {
		_, err := store.EnsureCounter(ctx, "reset", 3)
		require.NoError(t, err)
		_, err = store.ClaimTicket(ctx, "reset")
		require.NoError(t, err)

		require.NoError(t, store.SetCounterCurrent(ctx, "reset", 0, 3))
		n, err := store.ClaimTicket(ctx, "reset")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, store.SetCounterCurrent(ctx, "fresh", 0, 7))
		counter, err := store.GetCounter(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, 7, counter.Total)
	})

	t.Run("registrants", func(t *testing.T) {
		_, err := store.DeleteRegistrants(ctx)
		require.NoError(t, err)

		first := newRegistrant(1, "ama@example.com")
		require.NoError(t, store.CreateRegistrant(ctx, first))

		err = store.CreateRegistrant(ctx, newRegistrant(2, "ama@example.com"))
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		// same ticket code is a duplicate, but not an email one
		err = store.CreateRegistrant(ctx, newRegistrant(1, "kofi@example.com"))
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)

		require.NoError(t, store.CreateRegistrant(ctx, newRegistrant(3, "")))
		require.NoError(t, store.CreateRegistrant(ctx, newRegistrant(4, "")))

		found, err := store.FindRegistrantByEmail(ctx, "ama@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.Id, found.Id)
		assert.Equal(t, "ROS-0001", found.TicketCode)
		assert.Equal(t, first.Phone, found.Phone)

		_, err = store.FindRegistrantByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		count, err := store.CountRegistrants(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		deleted, err := store.DeleteRegistrants(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)

		count, err = store.CountRegistrants(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		require.NoError(t, store.CreateRegistrant(ctx, newRegistrant(1, "ama@example.com")))
	})
}
