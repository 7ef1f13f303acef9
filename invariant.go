package orgauth

import (
	"context"
)

// AdminGuard enforces the one-administrator-per-region invariant. Check
// must run inside the same store transaction as the mutation it guards
// (provisioning an admin, promoting a user, or moving an admin between
// regions) so concurrent instances cannot race the slot.
type AdminGuard struct {
	identities IdentityStore
}

// NewAdminGuard returns a guard reading through the given identity store.
// Inside a transaction, construct it from the tx-scoped store.
func NewAdminGuard(identities IdentityStore) *AdminGuard {
	return &AdminGuard{identities: identities}
}

// WouldViolate reports whether assigning an admin to candidateRegion would
// give the region a second administrator. excludeLogin exempts the identity
// being modified from the check.
func (g *AdminGuard) WouldViolate(ctx context.Context, candidateRegion, excludeLogin string) (bool, error) {
	existing, err := g.identities.FindAdminInRegion(ctx, candidateRegion, excludeLogin)
	if err != nil {
		return false, WrapStoreErr(err, "failed to check region administrator")
	}
	return existing != nil, nil
}

// Check rejects the guarded mutation when the invariant would break,
// naming the conflicting region.
func (g *AdminGuard) Check(ctx context.Context, candidateRegion, excludeLogin string) error {
	violates, err := g.WouldViolate(ctx, candidateRegion, excludeLogin)
	if err != nil {
		return err
	}
	if violates {
		return ErrRegionHasAdmin.WithMetadata(map[string]any{
			"region": candidateRegion,
		})
	}
	return nil
}
