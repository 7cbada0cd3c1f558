package services

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reviewplay/campaign-backend/internal/models"
	"golang.org/x/exp/slog"
)

// DefaultCodePrefix is used when a campaign does not configure its own.
const DefaultCodePrefix = "GR"

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// csvHeader is the legacy export header; column names are kept localized for
// compatibility with the existing export button.
var csvHeader = []string{"Lot", "Code", "Utilisé", "Date utilisation", "Participant"}

// CodeService manages the redemption code lifecycle: batch generation,
// reservation, verification, CSV import/export and usage stats. It holds no
// state of its own; the code pool lives on the campaign and callers persist
// the updated copies.
type CodeService struct {
	now     func() time.Time
	randInt func(n int) int
}

// NewCodeService creates a CodeService backed by the wall clock and the
// default random source.
func NewCodeService() *CodeService {
	return &CodeService{
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// GenerateBatch produces count codes of the form
// {PREFIX}-{YYYY}-{6 random base36}{3 trailing base36 timestamp chars}.
// In-batch collisions are rejected by regenerating until unique; cross-batch
// uniqueness rides on the timestamp suffix plus randomness.
func (s *CodeService) GenerateBatch(prizeID string, count int, prefix string) []models.RedemptionCode {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCodePrefix
	}

	seen := make(map[string]bool, count)
	codes := make([]models.RedemptionCode, 0, count)
	for i := 0; i < count; i++ {
		code := s.newCode(prefix)
		for seen[code] {
			code = s.newCode(prefix)
		}
		seen[code] = true
		codes = append(codes, models.RedemptionCode{
			ID:        uuid.NewString(),
			Code:      code,
			PrizeID:   prizeID,
			CreatedAt: s.now(),
		})
	}
	return codes
}

func (s *CodeService) newCode(prefix string) string {
	now := s.now()

	var random strings.Builder
	for i := 0; i < 6; i++ {
		random.WriteByte(base36Alphabet[s.randInt(len(base36Alphabet))])
	}

	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(ts) > 3 {
		ts = ts[len(ts)-3:]
	}

	return prefix + "-" + strconv.Itoa(now.Year()) + "-" + random.String() + ts
}

// FindAvailable returns the first unused code in the prize's pool, in pool
// order. The second return is false when the pool is exhausted for that
// prize — the stock/code desynchronization case the draw degrades on.
func (s *CodeService) FindAvailable(codes []models.RedemptionCode, prizeID string) (models.RedemptionCode, bool) {
	for _, c := range codes {
		if c.PrizeID == prizeID && !c.IsUsed {
			return c, true
		}
	}
	return models.RedemptionCode{}, false
}

// MarkUsed flips a code to used. Once used, no operation in this package sets
// it back; the transform is pure and the caller replaces its copy.
func (s *CodeService) MarkUsed(code models.RedemptionCode, participantID string) models.RedemptionCode {
	usedAt := s.now()
	code.IsUsed = true
	code.UsedAt = &usedAt
	code.UsedBy = participantID
	return code
}

// Verify checks a presented code string against a campaign's pool. A used
// code is found but reported invalid, so the caller can distinguish "already
// redeemed" from "never existed" by inspecting the returned code.
func (s *CodeService) Verify(campaign *models.Campaign, codeString string) models.CodeVerification {
	needle := strings.ToUpper(strings.TrimSpace(codeString))
	for i := range campaign.Codes {
		if campaign.Codes[i].Code != needle {
			continue
		}
		code := campaign.Codes[i]
		verification := models.CodeVerification{
			IsValid: !code.IsUsed,
			Code:    &code,
		}
		if prize := campaign.PrizeByID(code.PrizeID); prize != nil {
			p := *prize
			verification.Prize = &p
		}
		return verification
	}
	return models.CodeVerification{IsValid: false}
}

// ExportCSV renders the campaign's code pool in the fixed legacy column
// order. encoding/csv quotes values only where needed (prize names may
// contain commas).
func (s *CodeService) ExportCSV(campaign *models.Campaign) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, code := range campaign.Codes {
		prizeName := code.PrizeID
		if prize := campaign.PrizeByID(code.PrizeID); prize != nil {
			prizeName = prize.Name
		}
		used := "Non"
		usedAt := ""
		if code.IsUsed {
			used = "Oui"
			if code.UsedAt != nil {
				usedAt = code.UsedAt.Format("2006-01-02 15:04")
			}
		}
		if err := w.Write([]string{prizeName, code.Code, used, usedAt, code.UsedBy}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

// ImportCSV parses an exported CSV and reconstructs codes for the given
// prize. Import is additive provisioning, not a state restore: every imported
// code comes back unused. Malformed rows are skipped individually and
// counted; one bad row never aborts the batch.
func (s *CodeService) ImportCSV(csvText string, prizeID string) ([]models.RedemptionCode, int) {
	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var codes []models.RedemptionCode
	skipped := 0
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if first {
			first = false
			// Header row from a previous export.
			if len(record) > 1 && strings.EqualFold(strings.TrimSpace(record[1]), "Code") {
				continue
			}
		}
		if len(record) < 2 {
			skipped++
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(record[1]))
		if code == "" {
			skipped++
			continue
		}
		codes = append(codes, models.RedemptionCode{
			ID:        uuid.NewString(),
			Code:      code,
			PrizeID:   prizeID,
			CreatedAt: s.now(),
		})
	}
	if skipped > 0 {
		slog.Warn("Skipped malformed rows during code import", "skipped", skipped, "imported", len(codes), "prizeId", prizeID)
	}
	return codes, skipped
}

// Stats aggregates code usage across the campaign. Pure, no side effects.
func (s *CodeService) Stats(campaign *models.Campaign) models.CodeStats {
	stats := models.CodeStats{
		ByPrize: make(map[string]models.PrizeCodeStats),
	}
	for _, code := range campaign.Codes {
		stats.Total++
		entry := stats.ByPrize[code.PrizeID]
		if entry.PrizeName == "" {
			if prize := campaign.PrizeByID(code.PrizeID); prize != nil {
				entry.PrizeName = prize.Name
			} else {
				entry.PrizeName = code.PrizeID
			}
		}
		entry.Total++
		if code.IsUsed {
			stats.Used++
			entry.Used++
		} else {
			stats.Available++
			entry.Available++
		}
		stats.ByPrize[code.PrizeID] = entry
	}
	return stats
}
