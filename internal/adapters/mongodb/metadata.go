package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetadataMongoDBModel represents the context document into mongodb context
type MetadataMongoDBModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EntityID   string             `bson:"entity_id"`
	EntityName string             `bson:"entity_name"`
	Data       JSON               `bson:"metadata"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// Metadata is a struct designed to encapsulate caller-provided context payloads.
type Metadata struct {
	ID         primitive.ObjectID
	EntityID   string
	EntityName string
	Data       JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JSON document to save on mongodb
type JSON map[string]any

// ToEntity converts a MetadataMongoDBModel to Metadata
func (mmm *MetadataMongoDBModel) ToEntity() *Metadata {
	return &Metadata{
		ID:         mmm.ID,
		EntityID:   mmm.EntityID,
		EntityName: mmm.EntityName,
		Data:       mmm.Data,
		CreatedAt:  mmm.CreatedAt,
		UpdatedAt:  mmm.UpdatedAt,
	}
}

// FromEntity converts a Metadata to MetadataMongoDBModel
func (mmm *MetadataMongoDBModel) FromEntity(md *Metadata) error {
	mmm.EntityID = md.EntityID
	mmm.EntityName = md.EntityName
	mmm.Data = md.Data
	mmm.CreatedAt = md.CreatedAt
	mmm.UpdatedAt = md.UpdatedAt

	if md.ID.IsZero() {
		mmm.ID = primitive.NewObjectID()
	} else {
		mmm.ID = md.ID
	}

	return nil
}
