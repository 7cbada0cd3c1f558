package repositories

import (
	"context"

	"github.com/reviewplay/campaign-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignRepository persists campaign documents (prize catalog, code pool,
// gate settings). The engine never talks to it directly; the service layer
// loads a campaign, runs the draw on the in-memory copy and saves it back.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindAll(ctx context.Context) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AdminUserRepository persists operator accounts.
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}
