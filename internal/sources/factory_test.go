package sources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/sources"
)

func TestNewStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		strategy  domain.StrategyType
		opts      []sources.Option
		wantType  domain.StrategyType
		wantField string
	}{
		{name: "search", strategy: domain.StrategySearch, wantType: domain.StrategySearch},
		{name: "download", strategy: domain.StrategyDownload, wantType: domain.StrategyDownload},
		{name: "facet", strategy: domain.StrategyFacet, wantType: domain.StrategyFacet},
		{name: "unknown", strategy: domain.StrategyType("scrape"), wantField: "sync.strategy"},
		{
			name:      "zero page size",
			strategy:  domain.StrategySearch,
			opts:      []sources.Option{sources.WithPageSize(0)},
			wantField: "sync.pageSize",
		},
		{
			name:      "download without file",
			strategy:  domain.StrategyDownload,
			opts:      []sources.Option{sources.WithDownloadRequest("a@b.c", "r", "")},
			wantField: "provider.downloadFile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			strategy, err := sources.NewStrategy(tt.strategy, newTestClient(t, 1), tt.opts...)
			if tt.wantField != "" {
				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.wantField, cfgErr.Field)
				assert.Nil(t, strategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, strategy.Type())
		})
	}
}

func TestNewStrategy_NilClient(t *testing.T) {
	t.Parallel()

	_, err := sources.NewStrategy(domain.StrategySearch, nil)
	assert.Error(t, err)
}

func TestNewStrategyFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sync.Strategy = "facet"

	strategy, err := sources.NewStrategyFromConfig(cfg, newTestClient(t, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyFacet, strategy.Type())

	cfg.Sync.Strategy = "bogus"
	_, err = sources.NewStrategyFromConfig(cfg, newTestClient(t, 1))
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sync.strategy", cfgErr.Field)

	_, err = sources.NewStrategyFromConfig(nil, newTestClient(t, 1))
	assert.Error(t, err)
}
