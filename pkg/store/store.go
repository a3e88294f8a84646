// Package store persists named datasets so the server can serve them by id.
//
// A dataset is the entity data and style configuration of one view, stored
// verbatim as the JSON the widget attributes accept. Backends:
//   - MemoryStore: in-process map for development and tests
//   - FileStore: one JSON file per dataset for the CLI and single-node servers
//   - MongoStore: a MongoDB collection for multi-instance deployments
//
// # Usage
//
//	st := store.NewMemoryStore()
//	ds, err := store.NewDataset("crops", data, configurations)
//	if err != nil {
//	    return err
//	}
//	err = st.Save(ctx, ds)
//	got, err := st.Get(ctx, ds.ID)
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/matzehuels/entitygraph/pkg/errors"
)

// Dataset is a stored view input.
type Dataset struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name" validate:"max=200"`

	// Data is a JSON array of entities.
	Data string `json:"data" bson:"data"`
	// Configurations is a JSON array of style entries.
	Configurations string `json:"configurations,omitempty" bson:"configurations,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for dataset storage backends.
type Store interface {
	// Get retrieves a dataset. A missing dataset is a DATASET_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Dataset, error)

	// Save inserts or replaces a dataset, stamping UpdatedAt (and CreatedAt
	// on first save).
	Save(ctx context.Context, ds *Dataset) error

	// Delete removes a dataset. A missing dataset is a DATASET_NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	// List returns all datasets, most recently updated first.
	List(ctx context.Context) ([]Dataset, error)

	Close() error
}

var validate = validator.New()

// NewDataset creates a dataset with a fresh id.
func NewDataset(name, data, configurations string) (*Dataset, error) {
	ds := &Dataset{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Data:           data,
		Configurations: configurations,
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the id, the name length and that data and configurations
// are well-formed JSON. Their shape is not checked: the pipeline tolerates
// anything.
func (d *Dataset) Validate() error {
	if err := errors.ValidateDatasetID(d.ID); err != nil {
		return err
	}
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid dataset")
	}
	if strings.TrimSpace(d.Data) != "" && !json.Valid([]byte(d.Data)) {
		return errors.New(errors.ErrCodeInvalidData, "dataset data is not valid JSON")
	}
	if strings.TrimSpace(d.Configurations) != "" && !json.Valid([]byte(d.Configurations)) {
		return errors.New(errors.ErrCodeInvalidConfig, "dataset configurations are not valid JSON")
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeDatasetNotFound, "dataset %s not found", id)
}

func stamp(ds *Dataset, now time.Time) {
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now
}
