package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/validation"
)

// AddressInput carries address fields from a request. Nil fields are left
// unchanged on update.
type AddressInput struct {
	Detail      *string   `json:"detail" validate:"omitempty,max=255"`
	SubDistrict *string   `json:"subDistrict" validate:"omitempty,max=100"`
	District    *string   `json:"district" validate:"omitempty,max=100"`
	City        *string   `json:"city" validate:"omitempty,max=100"`
	Province    *string   `json:"province" validate:"omitempty,max=100"`
	Country     *string   `json:"country" validate:"omitempty,max=100"`
	PostalCode  *string   `json:"postalCode" validate:"omitempty,max=20"`
	Coordinates []float64 `json:"coordinates"`
	IsDefault   *bool     `json:"defaultAddress"`
}

// coordinates validates an optional [longitude, latitude] pair.
func (in AddressInput) coordinates() (lng, lat *float64, err error) {
	if in.Coordinates == nil {
		return nil, nil, nil
	}
	if len(in.Coordinates) != 2 {
		return nil, nil, apperror.InvalidInput("Coordinates must be an array with two numbers [longitude, latitude].")
	}
	lon, la := in.Coordinates[0], in.Coordinates[1]
	if lon < -180 || lon > 180 || la < -90 || la > 90 {
		return nil, nil, apperror.InvalidInput("Coordinates are out of range")
	}
	return &lon, &la, nil
}

func (in AddressInput) apply(a *models.Address) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	lng, lat, err := in.coordinates()
	if err != nil {
		return err
	}
	if lng != nil {
		a.Longitude, a.Latitude = lng, lat
	}

	setString(&a.Detail, in.Detail)
	setString(&a.SubDistrict, in.SubDistrict)
	setString(&a.District, in.District)
	setString(&a.City, in.City)
	setString(&a.Province, in.Province)
	setString(&a.Country, in.Country)
	setString(&a.PostalCode, in.PostalCode)
	if a.Country == "" {
		a.Country = models.DefaultCountry
	}
	return nil
}

// AddressService manages the address book of each user.
type AddressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) *AddressService {
	return &AddressService{addresses: addresses}
}

// Create stores a new address. A user's first address becomes the default.
func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.Address, error) {
	address := &models.Address{UserID: userID}
	if err := in.apply(address); err != nil {
		return nil, err
	}

	count, err := s.addresses.CountByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Address not found")
	}
	address.IsDefault = count == 0

	err = s.addresses.Create(ctx, address)
	if address.IsDefault && errors.Is(err, repository.ErrDuplicate) {
		// a concurrent request stored the first address
		address.IsDefault = false
		err = s.addresses.Create(ctx, address)
	}
	if err != nil {
		return nil, storeError(err, "Address not found")
	}

	if !address.IsDefault && in.IsDefault != nil && *in.IsDefault {
		return s.SetDefault(ctx, userID, address.ID)
	}
	return address, nil
}

func (s *AddressService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "No address found for this user")
	}
	if len(addresses) == 0 {
		return nil, apperror.NotFound("No address found for this user")
	}
	return addresses, nil
}

// Update changes the owner's address. Setting the default flag goes
// through SetDefault; clearing it is ignored so a user keeps one default.
func (s *AddressService) Update(ctx context.Context, userID, id uuid.UUID, in AddressInput) (*models.Address, error) {
	address, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(address); err != nil {
		return nil, err
	}
	if err := s.addresses.Save(ctx, address); err != nil {
		return nil, storeError(err, "Address not found")
	}

	if in.IsDefault != nil && *in.IsDefault && !address.IsDefault {
		return s.SetDefault(ctx, userID, id)
	}
	// the default may have moved since the read above
	return s.owned(ctx, userID, id)
}

// SetDefault makes id the only default address of the user.
func (s *AddressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	address, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.addresses.SetDefault(ctx, userID, id); err != nil {
		return nil, storeError(err, "Address not found")
	}
	address.IsDefault = true
	return address, nil
}

// Delete removes a non-default address.
func (s *AddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	address, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if address.IsDefault {
		return apperror.InvalidInput("Cannot delete the default address.")
	}
	return storeError(s.addresses.Delete(ctx, id), "Address not found")
}

func (s *AddressService) ListAll(ctx context.Context) ([]models.Address, error) {
	addresses, err := s.addresses.ListAll(ctx)
	if err != nil {
		return nil, storeError(err, "Address not found")
	}
	return addresses, nil
}

func (s *AddressService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	address, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Address not found")
	}
	if address.UserID != userID {
		return nil, apperror.NotFound("Address not found")
	}
	return address, nil
}

func setString(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}
