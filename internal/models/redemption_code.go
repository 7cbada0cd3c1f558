package models

import (
	"time"
)

// RedemptionCode is a unique, pre-provisioned, single-use identifier a winner
// presents to claim a prize. Codes are human-shareable, not secrets.
type RedemptionCode struct {
	ID        string     `bson:"id" json:"id"`
	Code      string     `bson:"code" json:"code"`
	PrizeID   string     `bson:"prizeId" json:"prizeId"`
	IsUsed    bool       `bson:"isUsed" json:"isUsed"`
	UsedAt    *time.Time `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	UsedBy    string     `bson:"usedBy,omitempty" json:"usedBy,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}

// CodeVerification is the result of checking a presented code string.
// IsValid is true only for a known, unused code. A known but already-used
// code comes back with IsValid false and the Code field populated, so callers
// can tell "already redeemed" apart from "never existed".
type CodeVerification struct {
	IsValid bool            `json:"isValid"`
	Prize   *Prize          `json:"prize,omitempty"`
	Code    *RedemptionCode `json:"code,omitempty"`
}

// PrizeCodeStats aggregates code usage for one prize.
type PrizeCodeStats struct {
	PrizeName string `json:"prizeName"`
	Total     int    `json:"total"`
	Used      int    `json:"used"`
	Available int    `json:"available"`
}

// CodeStats aggregates code usage across a campaign's code pool.
type CodeStats struct {
	Total     int                       `json:"total"`
	Used      int                       `json:"used"`
	Available int                       `json:"available"`
	ByPrize   map[string]PrizeCodeStats `json:"byPrize"`
}
