package audience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository/memory"
)

func fixedNow() time.Time {
	return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestResolver(store *memory.Store) *Resolver {
	r := NewResolver(store.Clients())
	r.Now = fixedNow
	return r
}

func TestParseRecipientIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, ParseRecipientIDs("[1,2,3]"))
	assert.Equal(t, []int64{1, 2, 3}, ParseRecipientIDs("{1, 2, 3}"))
	assert.Equal(t, []int64{1, 2, 3}, ParseRecipientIDs("1,2,3"))
	assert.Equal(t, []int64{4, 6}, ParseRecipientIDs(`[4, "oops", 6]`))
	assert.Equal(t, []int64{7}, ParseRecipientIDs(`["7"]`))
	assert.Empty(t, ParseRecipientIDs(""))
	assert.Empty(t, ParseRecipientIDs("[]"))
	assert.Empty(t, ParseRecipientIDs("not a list"))
}

func TestResolveAllClients(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(model.Client{ID: 1, Role: model.RoleClient})
	store.AddClient(model.Client{ID: 2, Role: model.RoleClient})
	store.AddClient(model.Client{ID: 3, Role: model.RoleStaff})

	aud, err := newTestResolver(store).Resolve(&model.Campaign{Audience: model.AudienceAll})
	require.NoError(t, err)
	require.Len(t, aud.Clients, 2)
	assert.False(t, aud.ImplicitConsent)
}

func TestResolveRegularClients(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(model.Client{ID: 1, Role: model.RoleClient})
	store.AddClient(model.Client{ID: 2, Role: model.RoleClient})

	// Client 1: three recent visits. Client 2: two recent, one stale.
	recent := fixedNow().Add(-30 * 24 * time.Hour)
	stale := fixedNow().Add(-200 * 24 * time.Hour)
	store.SetAppointments(1, []time.Time{recent, recent.Add(time.Hour), recent.Add(2 * time.Hour)})
	store.SetAppointments(2, []time.Time{recent, recent.Add(time.Hour), stale})

	aud, err := newTestResolver(store).Resolve(&model.Campaign{Audience: model.AudienceRegular})
	require.NoError(t, err)
	require.Len(t, aud.Clients, 1)
	assert.Equal(t, int64(1), aud.Clients[0].ID)
}

func TestResolveNewClients(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(model.Client{ID: 1, Role: model.RoleClient, CreatedAt: fixedNow().Add(-10 * 24 * time.Hour)})
	store.AddClient(model.Client{ID: 2, Role: model.RoleClient, CreatedAt: fixedNow().Add(-60 * 24 * time.Hour)})

	aud, err := newTestResolver(store).Resolve(&model.Campaign{Audience: model.AudienceNew})
	require.NoError(t, err)
	require.Len(t, aud.Clients, 1)
	assert.Equal(t, int64(1), aud.Clients[0].ID)
}

func TestResolveInactiveClients(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(model.Client{ID: 1, Role: model.RoleClient})
	store.AddClient(model.Client{ID: 2, Role: model.RoleClient})
	store.SetAppointments(1, []time.Time{fixedNow().Add(-10 * 24 * time.Hour)})
	store.SetAppointments(2, []time.Time{fixedNow().Add(-120 * 24 * time.Hour)})

	aud, err := newTestResolver(store).Resolve(&model.Campaign{Audience: model.AudienceInactive})
	require.NoError(t, err)
	require.Len(t, aud.Clients, 1)
	assert.Equal(t, int64(2), aud.Clients[0].ID)
}

func TestResolveSpecificClientsImpliesConsent(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(model.Client{ID: 5, Role: model.RoleClient})
	store.AddClient(model.Client{ID: 9, Role: model.RoleClient})

	aud, err := newTestResolver(store).Resolve(&model.Campaign{
		Audience:     model.AudienceSpecific,
		RecipientIDs: "[5, 9, 9, bogus]",
	})
	require.NoError(t, err)
	require.Len(t, aud.Clients, 2)
	assert.True(t, aud.ImplicitConsent)
}

func TestResolveUnknownSelector(t *testing.T) {
	_, err := newTestResolver(memory.NewStore()).Resolve(&model.Campaign{Audience: "vip_clients"})
	assert.Error(t, err)
}
