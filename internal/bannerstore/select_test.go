package bannerstore

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duongmedia/linkgate/internal/models"
)

func bannerFixture(id int64, weight, priority int) models.Banner {
	return models.Banner{
		ID:               id,
		Kind:             models.BannerKindStickyBottom,
		Active:           true,
		DeviceConstraint: models.DeviceAny,
		Weight:           weight,
		Priority:         priority,
	}
}

func TestApplyTargeting_EmptyTargetSetsMatchEverything(t *testing.T) {
	banners := []models.Banner{bannerFixture(1, 50, 10)}
	ctx := SelectionContext{Device: models.DeviceTypeDesktop, ArticleSlug: "flash50", Now: time.Now()}
	got := ApplyTargeting(banners, ctx)
	assert.Len(t, got, 1)
}

func TestApplyTargeting_NonEmptyTargetArticles_Filters(t *testing.T) {
	b := bannerFixture(1, 50, 10)
	b.TargetArticles = []string{"other-slug"}
	ctx := SelectionContext{Device: models.DeviceTypeDesktop, ArticleSlug: "flash50", Now: time.Now()}
	got := ApplyTargeting([]models.Banner{b}, ctx)
	assert.Empty(t, got)
}

func TestApplyTargeting_DeviceConstraint(t *testing.T) {
	mobile := bannerFixture(1, 50, 10)
	mobile.DeviceConstraint = models.DeviceMobile
	ctx := SelectionContext{Device: models.DeviceTypeDesktop, Now: time.Now()}
	assert.Empty(t, ApplyTargeting([]models.Banner{mobile}, ctx))

	ctx.Device = models.DeviceTypeMobile
	assert.Len(t, ApplyTargeting([]models.Banner{mobile}, ctx), 1)
}

func TestApplyTargeting_InactiveWindow_Excluded(t *testing.T) {
	b := bannerFixture(1, 50, 10)
	past := time.Now().Add(-2 * time.Hour)
	b.EndAt = &past
	ctx := SelectionContext{Device: models.DeviceTypeDesktop, Now: time.Now()}
	assert.Empty(t, ApplyTargeting([]models.Banner{b}, ctx))
}

func TestWeightedPick_ZeroWeights_ReturnsFirstSorted(t *testing.T) {
	banners := []models.Banner{bannerFixture(2, 0, 20), bannerFixture(1, 0, 5)}
	rng := rand.New(rand.NewSource(1))
	got := WeightedPick(banners, rng)
	require.NotNil(t, got)
	assert.EqualValues(t, 1, got.ID) // priority 5 sorts first
}

func TestWeightedPick_EmptyList_ReturnsNil(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Nil(t, WeightedPick(nil, rng))
}

func TestWeightedPick_Distribution_WithinTolerance(t *testing.T) {
	a := bannerFixture(1, 70, 10)
	b := bannerFixture(2, 30, 10)
	rng := rand.New(rand.NewSource(42))

	counts := map[int64]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		picked := WeightedPick([]models.Banner{a, b}, rng)
		counts[picked.ID]++
	}

	assert.GreaterOrEqual(t, counts[1], 6600)
	assert.LessOrEqual(t, counts[1], 7400)
	assert.GreaterOrEqual(t, counts[2], 2600)
	assert.LessOrEqual(t, counts[2], 3400)
	assert.Equal(t, trials, counts[1]+counts[2])
}

func TestSelectRandom_NoMatches_ReturnsNil(t *testing.T) {
	ctx := SelectionContext{Device: models.DeviceTypeDesktop, Now: time.Now()}
	assert.Nil(t, SelectRandom(nil, ctx, rand.New(rand.NewSource(1))))
}
