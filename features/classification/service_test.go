package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phishcheck/features/dataset"
	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/features/urlnorm"
	"phishcheck/internal/collector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const fixture = `[
	{"pattern": "evil.com", "scope": "domain", "label": "harmful", "source": "feed"},
	{"pattern": "good.evil.com", "scope": "domain", "label": "safe"},
	{"pattern": "https://bank.example/login", "scope": "exact", "label": "harmful"}
]`

func newService(t *testing.T, doc string) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caught.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store := dataset.NewStore(path, dataset.WithBloom(0.01))
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	collector.NewMetricsCollector()
	return NewService(store)
}

func TestCheckVerdicts(t *testing.T) {
	svc := newService(t, fixture)

	res, err := svc.Check("https://login.evil.com/verify")
	require.NoError(t, err)
	assert.Equal(t, enums.VerdictHarmful, res.Verdict)
	assert.Equal(t, enums.MatchTypeDomain, res.MatchType)
	require.NotNil(t, res.MatchedPattern)
	assert.Equal(t, "evil.com", *res.MatchedPattern)
	assert.Equal(t, "feed", res.Source)
	assert.Equal(t, "https://login.evil.com/verify", res.Normalized)
	assert.Equal(t, svc.Store().Snapshot().Version(), res.DatasetVersion)

	res, err = svc.Check("good.evil.com")
	require.NoError(t, err)
	assert.Equal(t, enums.VerdictSafe, res.Verdict)

	res, err = svc.Check("HTTP://Bank.Example:80/login")
	require.NoError(t, err)
	assert.Equal(t, enums.VerdictHarmful, res.Verdict)
	assert.Equal(t, enums.MatchTypeExact, res.MatchType)
	assert.Equal(t, "http://bank.example/login", res.Normalized)
}

func TestCheckUnknownIsNotSafe(t *testing.T) {
	svc := newService(t, fixture)

	res, err := svc.Check("https://unlisted.example/")
	require.NoError(t, err)
	assert.Equal(t, enums.VerdictUnknown, res.Verdict)
	assert.Equal(t, enums.MatchTypeNone, res.MatchType)
	assert.Nil(t, res.MatchedPattern)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{
		"url": "https://unlisted.example/",
		"verdict": "unknown",
		"matched_pattern": null,
		"match_type": "none",
		"normalized": "https://unlisted.example",
		"dataset_version": %q
	}`, res.DatasetVersion), string(out))
}

func TestCheckInvalid(t *testing.T) {
	svc := newService(t, fixture)

	for _, raw := range []string{"", "   ", "http://", "http://bad host/", "http://exa mple.com"} {
		res, err := svc.Check(raw)
		require.Error(t, err, "%q", raw)
		assert.ErrorIs(t, err, urlnorm.ErrNormalization)
		assert.True(t, IsInvalid(err))
		assert.Equal(t, raw, res.Input)
	}
}

func TestCheckIdempotentNormalization(t *testing.T) {
	svc := newService(t, fixture)

	for _, raw := range []string{"Evil.COM", "https://bank.example/login?x=1", "http://例え.テスト/パス"} {
		first, err := svc.Check(raw)
		require.NoError(t, err)
		second, err := svc.Check(first.Normalized)
		require.NoError(t, err)

		assert.Equal(t, first.Normalized, second.Normalized)
		assert.Equal(t, first.Verdict, second.Verdict)
		assert.Equal(t, first.MatchType, second.MatchType)
	}
}

func TestCheckSeesUpserts(t *testing.T) {
	svc := newService(t, fixture)

	res, err := svc.Check("new-threat.example/x")
	require.NoError(t, err)
	require.Equal(t, enums.VerdictUnknown, res.Verdict)
	before := res.DatasetVersion

	_, _, err = svc.Store().Upsert(context.Background(), *entries.NewEntry("new-threat.example", enums.ScopeDomain))
	require.NoError(t, err)

	res, err = svc.Check("new-threat.example/x")
	require.NoError(t, err)
	assert.Equal(t, enums.VerdictHarmful, res.Verdict)
	assert.NotEqual(t, before, res.DatasetVersion)
}

// Every check during concurrent reloads and upserts must see a complete
// dataset version: evil.com is in all of them.
func TestCheckDuringWrites(t *testing.T) {
	svc := newService(t, fixture)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	for range 8 {
		g.Go(func() error {
			for range 1000 {
				res, err := svc.Check("https://a.evil.com/")
				if err != nil {
					return err
				}
				if res.Verdict != enums.VerdictHarmful {
					return fmt.Errorf("version %s answered %s", res.DatasetVersion, res.Verdict)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		for i := range 20 {
			e := entries.NewEntry(fmt.Sprintf("w%d.example", i), enums.ScopeDomain)
			if _, _, err := svc.Store().Upsert(ctx, *e); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for range 20 {
			if _, err := svc.Store().Reload(ctx); err != nil {
				return err
			}
		}
		return nil
	})

	require.NoError(t, g.Wait())
}
