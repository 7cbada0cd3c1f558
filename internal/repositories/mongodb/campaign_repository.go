package mongodb

import (
	"context"
	"time"

	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/reviewplay/campaign-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CampaignRepository implements repositories.CampaignRepository
type CampaignRepository struct {
	collection *mongo.Collection
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *mongo.Database) repositories.CampaignRepository {
	return &CampaignRepository{
		collection: db.Collection("campaigns"),
	}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, campaign)
	if err != nil {
		return err
	}
	campaign.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a campaign by ID
func (r *CampaignRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &campaign, nil
}

// FindAll finds all campaigns, most recently updated first
func (r *CampaignRepository) FindAll(ctx context.Context) ([]*models.Campaign, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}

// Update replaces a campaign document
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": campaign.ID}, campaign)
	return err
}

// Delete deletes a campaign by ID
func (r *CampaignRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
