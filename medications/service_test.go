package medications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medicine-shop/kvstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "session-1"

func newTestService(t *testing.T) (*Service, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) }
	return svc, store
}

func validInput() Input {
	return Input{
		Name:         " Metformin ",
		Dosage:       "500mg",
		Frequency:    "twice daily",
		StartDate:    "2026-03-01",
		EndDate:      "2026-04-01",
		Instructions: "Take with meals",
		Reminder:     true,
	}
}

func TestAddListDeleteRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	med, err := svc.Add(ctx, owner, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Metformin", med.Name)
	assert.Equal(t, "2026-03-04 09:30:00", med.CreatedAt)
	assert.True(t, med.Reminder)
	_, err = uuid.Parse(med.ID)
	assert.NoError(t, err)

	second, err := svc.Add(ctx, owner, Input{Name: "Aspirin", Dosage: "81mg", Frequency: "daily", StartDate: "2026-01-01"})
	require.NoError(t, err)

	list, err = svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, med.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	deleted, err := svc.Delete(ctx, owner, med.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err = svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].Name)
}

func TestDeleteNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, validInput())
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.Delete(ctx, owner, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestOwnersAreIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	med, err := svc.Add(ctx, owner, validInput())
	require.NoError(t, err)

	other, err := svc.List(ctx, "session-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	deleted, err := svc.Delete(ctx, "session-2", med.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   string
	}{
		{"missing name", func(in *Input) { in.Name = "  " }, "medication_name is required"},
		{"missing dosage", func(in *Input) { in.Dosage = "" }, "dosage is required"},
		{"missing frequency", func(in *Input) { in.Frequency = "" }, "frequency is required"},
		{"missing start", func(in *Input) { in.StartDate = "" }, "start_date is required"},
		{"bad start", func(in *Input) { in.StartDate = "03/01/2026" }, "start_date must be YYYY-MM-DD"},
		{"bad end", func(in *Input) { in.EndDate = "2026-13-01" }, "end_date must be YYYY-MM-DD"},
		{"end before start", func(in *Input) { in.EndDate = "2026-02-01" }, "end_date cannot be before start_date"},
		{"long name", func(in *Input) { in.Name = strings.Repeat("m", 101) }, "too long"},
		{"script in instructions", func(in *Input) { in.Instructions = "<script>x</script>" }, "dangerous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Add(context.Background(), owner, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestEndDateOptional(t *testing.T) {
	svc, _ := newTestService(t)
	in := validInput()
	in.EndDate = ""

	med, err := svc.Add(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Empty(t, med.EndDate)
}

func TestMalformedListReadsEmpty(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, owner, StorageKey, []byte("{not json")))

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Add(ctx, owner, validInput())
	require.NoError(t, err)

	list, err = svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingStore struct{ kvstore.Store }

func (failingStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestListStorageError(t *testing.T) {
	svc := NewService(failingStore{Store: kvstore.NewMemoryStore()})

	_, err := svc.List(context.Background(), owner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
