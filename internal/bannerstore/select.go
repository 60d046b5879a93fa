package bannerstore

import (
	"math/rand"
	"sort"

	"github.com/duongmedia/linkgate/internal/models"
)

// sortForSelection implements spec.md §4.6 step 6: priority ascending (lower
// first), then weight descending, giving a deterministic iteration order
// for tie-breaking and for admin listing.
func sortForSelection(banners []models.Banner) {
	sort.SliceStable(banners, func(i, j int) bool {
		if banners[i].Priority != banners[j].Priority {
			return banners[i].Priority < banners[j].Priority
		}
		return banners[i].Weight > banners[j].Weight
	})
}

// WeightedPick implements spec.md §4.6 step 7 exactly: compute W = sum of
// weights, draw r uniformly from [0, W), walk the sorted list subtracting
// each banner's weight until the running subtotal drives r <= 0. If every
// weight is zero, return the first banner in sorted order. rng is injected
// so tests can fix the seed and reproduce the §8 scenario-5 distribution
// bounds deterministically, mirroring the teacher's swappable-RNG idiom in
// internal/logic/selectors.
func WeightedPick(banners []models.Banner, rng *rand.Rand) *models.Banner {
	if len(banners) == 0 {
		return nil
	}

	sorted := make([]models.Banner, len(banners))
	copy(sorted, banners)
	sortForSelection(sorted)

	var total int
	for _, b := range sorted {
		total += b.Weight
	}

	if total <= 0 {
		return &sorted[0]
	}

	r := rng.Intn(total)
	for i := range sorted {
		r -= sorted[i].Weight
		if r <= 0 {
			return &sorted[i]
		}
	}
	// unreachable when total > 0, but fall back defensively
	return &sorted[len(sorted)-1]
}

// SelectRandom runs the full spec.md §4.6 algorithm: filter by kind/device/
// article/category (kind is expected to already be applied by the
// persistence adapter's ListActiveBanners query), then weighted-draw one
// banner. Returns nil when no banner matches.
func SelectRandom(active []models.Banner, ctx SelectionContext, rng *rand.Rand) *models.Banner {
	filtered := ApplyTargeting(active, ctx)
	if len(filtered) == 0 {
		return nil
	}
	return WeightedPick(filtered, rng)
}
