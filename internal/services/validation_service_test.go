package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zevohq/zevo/internal/models"
	"github.com/zevohq/zevo/internal/services"
)

// fakeValidationStore implements the conditional flip the way the SQL store
// does: check-and-set under a lock, reporting whether this call won.
type fakeValidationStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
}

func newFakeValidationStore(tickets ...*models.Ticket) *fakeValidationStore {
	m := make(map[string]*models.Ticket, len(tickets))
	for _, t := range tickets {
		m[t.Token] = t
	}
	return &fakeValidationStore{tickets: m}
}

func (f *fakeValidationStore) GetTicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[token]
	if !ok {
		return nil, services.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeValidationStore) MarkValidated(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.ID == ticketID {
			if ticket.Validated {
				return false, nil
			}
			ticket.Validated = true
			return true, nil
		}
	}
	return false, nil
}

func scannableTicket(ownerID uuid.UUID) *models.Ticket {
	eventID := uuid.New()
	return &models.Ticket{
		ID:      uuid.New(),
		Token:   "tok-" + uuid.NewString(),
		EventID: eventID,
		UserID:  uuid.New(),
		Event:   models.Event{ID: eventID, Title: "Test Event", UserID: ownerID},
	}
}

func TestValidate_OwnerSucceeds(t *testing.T) {
	owner := uuid.New()
	ticket := scannableTicket(owner)
	svc := services.NewValidationService(newFakeValidationStore(ticket))

	got, err := svc.Validate(context.Background(), ticket.Token, owner, models.RoleOrganizer)
	require.NoError(t, err)
	assert.True(t, got.Validated)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestValidate_AdminSucceeds(t *testing.T) {
	ticket := scannableTicket(uuid.New())
	svc := services.NewValidationService(newFakeValidationStore(ticket))

	got, err := svc.Validate(context.Background(), ticket.Token, uuid.New(), models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, got.Validated)
}

func TestValidate_NonOwnerOrganizerForbidden(t *testing.T) {
	ticket := scannableTicket(uuid.New())
	store := newFakeValidationStore(ticket)
	svc := services.NewValidationService(store)

	_, err := svc.Validate(context.Background(), ticket.Token, uuid.New(), models.RoleOrganizer)
	assert.ErrorIs(t, err, services.ErrNotEventAuthority)

	// The flip must not have happened.
	stored, _ := store.GetTicketByToken(context.Background(), ticket.Token)
	assert.False(t, stored.Validated)
}

func TestValidate_UnknownToken(t *testing.T) {
	svc := services.NewValidationService(newFakeValidationStore())

	_, err := svc.Validate(context.Background(), "no-such-token", uuid.New(), models.RoleAdmin)
	assert.ErrorIs(t, err, services.ErrTicketNotFound)
}

func TestValidate_RescanReportsAlreadyValidated(t *testing.T) {
	owner := uuid.New()
	ticket := scannableTicket(owner)
	svc := services.NewValidationService(newFakeValidationStore(ticket))

	_, err := svc.Validate(context.Background(), ticket.Token, owner, models.RoleOrganizer)
	require.NoError(t, err)

	got, err := svc.Validate(context.Background(), ticket.Token, owner, models.RoleOrganizer)
	assert.ErrorIs(t, err, services.ErrAlreadyValidated)
	// The rescan still returns the ticket so the UI can show it.
	require.NotNil(t, got)
	assert.True(t, got.Validated)
}

func TestValidate_ConcurrentScansExactlyOneWins(t *testing.T) {
	owner := uuid.New()
	ticket := scannableTicket(owner)
	store := newFakeValidationStore(ticket)
	svc := services.NewValidationService(store)

	const scanners = 2
	var wg sync.WaitGroup
	errs := make([]error, scanners)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Validate(context.Background(), ticket.Token, owner, models.RoleOrganizer)
		}(i)
	}
	wg.Wait()

	wins, rescans := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, services.ErrAlreadyValidated):
			rescans++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, rescans)

	stored, _ := store.GetTicketByToken(context.Background(), ticket.Token)
	assert.True(t, stored.Validated)
}
