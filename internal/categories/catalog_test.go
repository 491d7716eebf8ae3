package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := SeedCatalog(ctx, svc)
	require.NoError(t, err)
	assert.Len(t, first.Created, len(Catalog))
	assert.Empty(t, first.Skipped)

	second, err := SeedCatalog(ctx, svc)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Skipped, len(Catalog))

	structural := enums.CategoryTypeStructural
	active, err := repo.ListActive(ctx, &structural)
	require.NoError(t, err)
	require.Len(t, active, len(Catalog))

	rules := map[string]schedule.Rule{}
	for _, c := range active {
		if c.ScheduleRule != nil {
			rules[c.Name] = *c.ScheduleRule
		}
	}
	assert.Equal(t, map[string]schedule.Rule{
		"Abre hasta tarde": schedule.RuleOpensAfter20,
		"Abre temprano":    schedule.RuleOpensBefore08,
	}, rules)
}
