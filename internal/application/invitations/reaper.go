package invitations

import (
	"context"
	"time"

	"concierge-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// Reaper removes expired invitations whenever the invitation list is viewed.
// There is no background sweep: an expired invitation that nobody lists is
// still rejected at redemption time by the expiry check in Lookup.
type Reaper struct {
	Store  Store
	Policy TokenPolicy
}

// Reap deletes every expired record in all and returns the live ones, in input order.
// Delete failures are logged per record and never stop the partition.
func (r *Reaper) Reap(ctx context.Context, all []domain.Invitation, now time.Time) []domain.Invitation {
	live := make([]domain.Invitation, 0, len(all))
	for i := range all {
		inv := all[i]
		if !r.Policy.IsExpired(&inv, now) {
			live = append(live, inv)
			continue
		}
		if err := r.Store.Delete(ctx, inv.ID); err != nil {
			log.Error().Err(err).Str("invite_id", inv.ID.String()).Msg("reaper: delete expired invite failed")
			continue
		}
		log.Info().Str("invite_id", inv.ID.String()).Time("expires_at", inv.ExpiresAt).Msg("reaper: expired invite deleted")
	}
	return live
}
