// Package audience turns a campaign's audience selector into a concrete
// client list.
package audience

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
)

// Selector windows.
const (
	regularWindow    = 180 * 24 * time.Hour
	newClientWindow  = 30 * 24 * time.Hour
	inactiveWindow   = 90 * 24 * time.Hour
	regularMinVisits = 3
)

// Audience is a resolved, id-deduplicated recipient list. When the
// campaign used the explicit selector, ImplicitConsent is set: directly
// picking a client overrides the blanket promotional-SMS preference.
type Audience struct {
	Clients         []model.Client
	ImplicitConsent bool
}

type Resolver struct {
	Clients repository.ClientRepositoryInterface

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func NewResolver(clients repository.ClientRepositoryInterface) *Resolver {
	return &Resolver{Clients: clients, Now: time.Now}
}

// Resolve returns the audience for a campaign, deduplicated by client id.
// Contact-level dedup happens later in the ledger.
func (r *Resolver) Resolve(c *model.Campaign) (*Audience, error) {
	now := r.Now()

	var (
		clients  []model.Client
		implicit bool
		err      error
	)

	switch c.Audience {
	case model.AudienceAll:
		clients, err = r.Clients.AllClients()
	case model.AudienceRegular:
		clients, err = r.Clients.RegularClients(now.Add(-regularWindow), regularMinVisits)
	case model.AudienceNew:
		clients, err = r.Clients.NewClients(now.Add(-newClientWindow))
	case model.AudienceInactive:
		clients, err = r.Clients.InactiveClients(now.Add(-inactiveWindow))
	case model.AudienceSpecific:
		ids := ParseRecipientIDs(c.RecipientIDs)
		clients, err = r.Clients.GetByIDs(ids)
		implicit = true
	default:
		return nil, fmt.Errorf("unknown audience selector: %s", c.Audience)
	}
	if err != nil {
		return nil, err
	}

	return &Audience{Clients: dedupeByID(clients), ImplicitConsent: implicit}, nil
}

// ParseRecipientIDs accepts a JSON array ("[1,2,3]"), a braces list
// ("{1,2,3}") or a bare comma list and returns the integer ids found.
// Malformed tokens are dropped, not errors.
func ParseRecipientIDs(raw string) []int64 {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "[]{}")
	if raw == "" {
		return nil
	}

	ids := []int64{}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		tok = strings.Trim(tok, `"'`)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func dedupeByID(clients []model.Client) []model.Client {
	seen := make(map[int64]bool, len(clients))
	out := clients[:0]
	for _, c := range clients {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
