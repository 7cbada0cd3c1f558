package services

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBatchUniqueness(t *testing.T) {
	svc := NewCodeService()

	codes := svc.GenerateBatch("prize-1", 100, "GR")
	require.Len(t, codes, 100)

	seen := map[string]bool{}
	for _, c := range codes {
		assert.False(t, seen[c.Code], "duplicate code %s", c.Code)
		seen[c.Code] = true
		assert.Equal(t, "prize-1", c.PrizeID)
		assert.False(t, c.IsUsed)
		assert.NotEmpty(t, c.ID)
	}
}

func TestGenerateBatchCodeFormat(t *testing.T) {
	svc := NewCodeService()
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }

	pattern := regexp.MustCompile(`^GR-2026-[0-9A-Z]{9}$`)
	for _, c := range svc.GenerateBatch("p", 10, "gr") {
		assert.Regexp(t, pattern, c.Code)
	}

	// Empty prefix falls back to the default.
	for _, c := range svc.GenerateBatch("p", 3, "") {
		assert.True(t, strings.HasPrefix(c.Code, DefaultCodePrefix+"-"))
	}

	// Custom prefixes are upper-cased.
	for _, c := range svc.GenerateBatch("p", 3, "wheel") {
		assert.True(t, strings.HasPrefix(c.Code, "WHEEL-2026-"))
	}
}

func TestGenerateBatchRegeneratesInBatchCollisions(t *testing.T) {
	svc := NewCodeService()
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }

	// A random source that repeats itself for the first two codes and then
	// diverges, forcing the collision path.
	calls := 0
	seq := rand.New(rand.NewSource(7))
	svc.randInt = func(n int) int {
		calls++
		if calls <= 12 { // two identical 6-char bodies
			return (calls - 1) % 6
		}
		return seq.Intn(n)
	}

	codes := svc.GenerateBatch("p", 2, "GR")
	require.Len(t, codes, 2)
	assert.NotEqual(t, codes[0].Code, codes[1].Code)
}

func TestMarkUsedIsOneWay(t *testing.T) {
	svc := NewCodeService()
	fixed := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	code := models.RedemptionCode{ID: "c1", Code: "GR-2026-ABCDEF123", PrizeID: "p"}
	used := svc.MarkUsed(code, "participant-9")

	assert.True(t, used.IsUsed)
	require.NotNil(t, used.UsedAt)
	assert.Equal(t, fixed, *used.UsedAt)
	assert.Equal(t, "participant-9", used.UsedBy)
	assert.False(t, code.IsUsed, "input copy untouched")
}

func TestVerify(t *testing.T) {
	svc := NewCodeService()
	usedAt := time.Now()
	campaign := &models.Campaign{
		Prizes: []models.Prize{{ID: "p1", Name: "Mug"}},
		Codes: []models.RedemptionCode{
			{ID: "c1", Code: "GR-2026-FRESH00AAA", PrizeID: "p1"},
			{ID: "c2", Code: "GR-2026-SPENT00BBB", PrizeID: "p1", IsUsed: true, UsedAt: &usedAt, UsedBy: "x"},
		},
	}

	t.Run("unused code is valid", func(t *testing.T) {
		v := svc.Verify(campaign, "gr-2026-fresh00aaa")
		assert.True(t, v.IsValid)
		require.NotNil(t, v.Prize)
		assert.Equal(t, "Mug", v.Prize.Name)
	})

	t.Run("used code is found but invalid", func(t *testing.T) {
		v := svc.Verify(campaign, "GR-2026-SPENT00BBB")
		assert.False(t, v.IsValid)
		require.NotNil(t, v.Code, "already-redeemed must be distinguishable from unknown")
		assert.True(t, v.Code.IsUsed)
	})

	t.Run("unknown code is invalid with no record", func(t *testing.T) {
		v := svc.Verify(campaign, "GR-2026-NOSUCH0CCC")
		assert.False(t, v.IsValid)
		assert.Nil(t, v.Code)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	svc := NewCodeService()
	usedAt := time.Date(2026, 4, 2, 18, 45, 0, 0, time.UTC)
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "p1", Name: "Café, offert"}, // comma forces quoting
			{ID: "p2", Name: "Mug"},
		},
		Codes: []models.RedemptionCode{
			{ID: "c1", Code: "GR-2026-AAAAAA111", PrizeID: "p1"},
			{ID: "c2", Code: "GR-2026-BBBBBB222", PrizeID: "p2", IsUsed: true, UsedAt: &usedAt, UsedBy: "alice"},
		},
	}

	csvText, err := svc.ExportCSV(campaign)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Lot,Code,Utilisé,Date utilisation,Participant", lines[0])
	assert.Contains(t, lines[1], `"Café, offert"`, "prize names with commas are quoted")
	assert.Contains(t, lines[2], "Oui")
	assert.Contains(t, lines[2], "alice")

	imported, skipped := svc.ImportCSV(csvText, "p3")
	assert.Zero(t, skipped)
	require.Len(t, imported, 2)
	assert.Equal(t, "GR-2026-AAAAAA111", imported[0].Code)
	assert.Equal(t, "GR-2026-BBBBBB222", imported[1].Code)
	for _, c := range imported {
		assert.Equal(t, "p3", c.PrizeID)
		assert.False(t, c.IsUsed, "import is additive provisioning, never a state restore")
		assert.Nil(t, c.UsedAt)
	}
}

func TestImportSkipsMalformedRows(t *testing.T) {
	svc := NewCodeService()

	csvText := strings.Join([]string{
		"Lot,Code,Utilisé,Date utilisation,Participant",
		"Mug,GR-2026-GOOD00AAA,Non,,",
		"only-one-column",
		"Mug,,Non,,",
		"Mug,gr-2026-good00bbb,Non,,",
	}, "\n")

	imported, skipped := svc.ImportCSV(csvText, "p1")
	assert.Equal(t, 2, skipped)
	require.Len(t, imported, 2)
	assert.Equal(t, "GR-2026-GOOD00AAA", imported[0].Code)
	assert.Equal(t, "GR-2026-GOOD00BBB", imported[1].Code, "codes are upper-normalized on import")
}

func TestStats(t *testing.T) {
	svc := NewCodeService()
	campaign := &models.Campaign{
		Prizes: []models.Prize{
			{ID: "p1", Name: "Mug"},
			{ID: "p2", Name: "Sticker"},
		},
	}
	for i := 0; i < 5; i++ {
		campaign.Codes = append(campaign.Codes, models.RedemptionCode{
			ID: fmt.Sprintf("a%d", i), Code: fmt.Sprintf("GR-2026-MUG%06d", i), PrizeID: "p1", IsUsed: i < 2,
		})
	}
	campaign.Codes = append(campaign.Codes, models.RedemptionCode{ID: "b0", Code: "GR-2026-STICK0000", PrizeID: "p2"})

	stats := svc.Stats(campaign)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.Used)
	assert.Equal(t, 4, stats.Available)
	assert.Equal(t, "Mug", stats.ByPrize["p1"].PrizeName)
	assert.Equal(t, 5, stats.ByPrize["p1"].Total)
	assert.Equal(t, 2, stats.ByPrize["p1"].Used)
	assert.Equal(t, 1, stats.ByPrize["p2"].Available)
}
