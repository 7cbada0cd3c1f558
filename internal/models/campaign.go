package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignStatus tracks the editing lifecycle of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusPublished CampaignStatus = "PUBLISHED"
	CampaignStatusArchived  CampaignStatus = "ARCHIVED"
)

// GateSettings configures the participant gate for a campaign.
type GateSettings struct {
	// ReviewLink is the external page opened on the high-rating path.
	ReviewLink string `bson:"reviewLink" json:"reviewLink"`
	// TimerSeconds is how long the game stays locked after the redirect.
	TimerSeconds int `bson:"timerSeconds" json:"timerSeconds"`
	// RatingThreshold: ratings >= threshold follow the redirect path,
	// lower ratings open the negative-feedback modal.
	RatingThreshold int `bson:"ratingThreshold" json:"ratingThreshold"`
	// CodePrefix is used when generating redemption code batches.
	CodePrefix string `bson:"codePrefix" json:"codePrefix"`
}

// Campaign is one gamified marketing campaign: its prize catalog, its
// pre-provisioned redemption code pool and its gate settings. Rendering
// configuration (layouts, themes, rich text) lives with the editor and is
// not stored here.
type Campaign struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Status    CampaignStatus     `bson:"status" json:"status"`
	Gate      GateSettings       `bson:"gate" json:"gate"`
	Prizes    []Prize            `bson:"prizes" json:"prizes"`
	Codes     []RedemptionCode   `bson:"codes" json:"codes"`
	CreatedBy string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PrizeByID returns a pointer into the campaign's prize slice, or nil.
func (c *Campaign) PrizeByID(id string) *Prize {
	for i := range c.Prizes {
		if c.Prizes[i].ID == id {
			return &c.Prizes[i]
		}
	}
	return nil
}
