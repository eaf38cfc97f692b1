package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yoyothesheep/MySoilMate/internal/blob"
	"github.com/yoyothesheep/MySoilMate/internal/data"
)

// ErrNoImage is returned when a plant has no image to serve.
var ErrNoImage = errors.New("plant has no image")

// ImageMode selects how stored images are handed to clients.
type ImageMode string

const (
	// ImageInline streams the image bytes through the API.
	ImageInline ImageMode = "inline"
	// ImageSigned hands out a short-lived signed URL instead.
	ImageSigned ImageMode = "signed"
)

// Image is what PlantImage resolves to: either an open body (inline mode)
// or a URL the client should fetch (signed mode, or a plant whose image
// is an external link).
type Image struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64

	URL      string
	External bool
}

// Service is the single entry point the HTTP layer uses. It holds no
// per-request state; every listing reloads the dataset from the store.
type Service struct {
	store     data.Store
	blobs     blob.Store
	signer    *blob.Signer
	imageMode ImageMode
	logger    *slog.Logger
}

// Options configures a Service. Signer is required for ImageSigned.
type Options struct {
	Blobs     blob.Store
	Signer    *blob.Signer
	ImageMode ImageMode
	Logger    *slog.Logger
}

func NewService(store data.Store, opts Options) (*Service, error) {
	if opts.ImageMode == "" {
		opts.ImageMode = ImageInline
	}
	switch opts.ImageMode {
	case ImageInline:
	case ImageSigned:
		if opts.Signer == nil {
			return nil, errors.New("signed image mode requires a signer")
		}
	default:
		return nil, fmt.Errorf("unknown image mode %q", opts.ImageMode)
	}
	if opts.Blobs == nil {
		opts.Blobs = blob.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		store:     store,
		blobs:     opts.Blobs,
		signer:    opts.Signer,
		imageMode: opts.ImageMode,
		logger:    opts.Logger,
	}, nil
}

// ListPlants loads the joined plant set, then filters, sorts and paginates
// it. spec must come from ParseFilters with a valid validator.
func (s *Service) ListPlants(ctx context.Context, spec FilterSpec) (*Page, error) {
	plants, err := s.store.AllPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}

	matched := Filter(plants, spec)
	Sort(matched, spec.Sort)
	return Paginate(matched, spec.Page, spec.PageSize), nil
}

// GetPlant returns one joined plant or data.ErrRecordNotFound.
func (s *Service) GetPlant(ctx context.Context, id int64) (*data.Plant, error) {
	return s.store.GetPlant(ctx, id)
}

// CreatePlant stores a new plant built from a validated input.
func (s *Service) CreatePlant(ctx context.Context, in data.PlantInput) (*data.Plant, error) {
	plant := &data.Plant{}
	in.Apply(plant)

	if err := s.store.InsertPlant(ctx, plant); err != nil {
		return nil, err
	}
	s.logger.Info("plant created", "plant_id", plant.ID, "name", plant.Name)
	return plant, nil
}

// UpdatePlant replaces a plant's attributes and relations with a validated
// input. The stored image key is kept.
func (s *Service) UpdatePlant(ctx context.Context, id int64, in data.PlantInput) (*data.Plant, error) {
	plant, err := s.store.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(plant)

	if err := s.store.UpdatePlant(ctx, plant); err != nil {
		return nil, err
	}
	s.logger.Info("plant updated", "plant_id", plant.ID)
	return plant, nil
}

// DeletePlant removes a plant, its join records and its stored image.
func (s *Service) DeletePlant(ctx context.Context, id int64) error {
	plant, err := s.store.GetPlant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePlant(ctx, id); err != nil {
		return err
	}
	s.logger.Info("plant deleted", "plant_id", id)

	if plant.ImageKey != "" {
		s.removeBlob(ctx, plant.ImageKey)
	}
	return nil
}

// SetPlantImage stores r as the plant's image and points the plant at it.
// The blob write and the pointer update are separate; if the update fails
// the new blob is left orphaned.
func (s *Service) SetPlantImage(ctx context.Context, id int64, contentType string, r io.Reader) (*data.Plant, error) {
	plant, err := s.store.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}

	key := blob.NewKey(contentType)
	if _, err := s.blobs.Put(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.store.SetPlantImage(ctx, id, key, plant.ImageURL); err != nil {
		s.logger.Warn("image stored but plant not updated; blob orphaned", "plant_id", id, "key", key, "error", err)
		return nil, err
	}

	previous := plant.ImageKey
	if previous != "" && previous != key {
		s.removeBlob(ctx, previous)
	}

	s.logger.Info("plant image updated", "plant_id", id, "key", key)
	return s.store.GetPlant(ctx, id)
}

// removeBlob deletes an object that is no longer referenced. Failures only
// leak storage, so they are logged rather than returned.
func (s *Service) removeBlob(ctx context.Context, key string) {
	err := s.blobs.Delete(ctx, key)
	if err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.logger.Warn("failed to delete image blob", "key", key, "error", err)
	}
}

// PlantImage resolves the image of plant id for serving. Stored images are
// returned inline or as a signed URL depending on the image mode; a plant
// whose image is an external URL resolves to that URL.
func (s *Service) PlantImage(ctx context.Context, id int64) (*Image, error) {
	plant, err := s.store.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case plant.ImageKey != "" && s.imageMode == ImageSigned:
		url, err := s.signer.SignedURL(plant.ImageKey)
		if err != nil {
			return nil, err
		}
		return &Image{URL: url}, nil

	case plant.ImageKey != "":
		body, info, err := s.blobs.Get(ctx, plant.ImageKey)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return nil, ErrNoImage
			}
			return nil, fmt.Errorf("open image: %w", err)
		}
		return &Image{Body: body, ContentType: info.ContentType, Size: info.Size}, nil

	case plant.ImageURL != "":
		return &Image{URL: plant.ImageURL, External: true}, nil
	}

	return nil, ErrNoImage
}

// SignedBlob opens the object named by key after checking that token is a
// valid grant for it. It fails with blob.ErrInvalidToken when signed URLs
// are not in use.
func (s *Service) SignedBlob(ctx context.Context, key, token string) (io.ReadCloser, *blob.Info, error) {
	if s.signer == nil {
		return nil, nil, blob.ErrInvalidToken
	}
	if err := s.signer.Verify(key, token); err != nil {
		return nil, nil, err
	}
	return s.blobs.Get(ctx, key)
}

// Zones returns every known hardiness zone.
func (s *Service) Zones(ctx context.Context) ([]*data.Zone, error) {
	return s.store.Zones(ctx)
}

// BloomSeasons returns every known bloom season.
func (s *Service) BloomSeasons(ctx context.Context) ([]*data.BloomSeason, error) {
	return s.store.BloomSeasons(ctx)
}
