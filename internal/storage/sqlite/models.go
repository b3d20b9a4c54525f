package sqlite

import (
	"time"

	"hbnb_api/internal/domain"
)

// BaseRow is exported so gorm picks up the embedded columns. Timestamps are
// owned by the service; gorm must not touch them.
type BaseRow struct {
	ID        string    `gorm:"primaryKey;size:60"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func baseOf(b *domain.Base) BaseRow {
	return BaseRow{ID: b.ID, CreatedAt: b.CreatedAt.Time, UpdatedAt: b.UpdatedAt.Time}
}

func (r BaseRow) base() domain.Base {
	return domain.Base{ID: r.ID, CreatedAt: domain.NewTime(r.CreatedAt), UpdatedAt: domain.NewTime(r.UpdatedAt)}
}

type stateRow struct {
	BaseRow
	Name string `gorm:"size:128;not null"`
}

func (stateRow) TableName() string { return "states" }

func (r stateRow) entity() domain.Entity { return &domain.State{Base: r.base(), Name: r.Name} }

type cityRow struct {
	BaseRow
	StateID string `gorm:"size:60;not null;index"`
	Name    string `gorm:"size:128;not null"`
}

func (cityRow) TableName() string { return "cities" }

func (r cityRow) entity() domain.Entity {
	return &domain.City{Base: r.base(), StateID: r.StateID, Name: r.Name}
}

type amenityRow struct {
	BaseRow
	Name string `gorm:"size:128;not null"`
}

func (amenityRow) TableName() string { return "amenities" }

func (r amenityRow) entity() domain.Entity { return &domain.Amenity{Base: r.base(), Name: r.Name} }

type userRow struct {
	BaseRow
	Email     string `gorm:"size:128;not null"`
	Password  string `gorm:"size:128;not null"`
	FirstName string `gorm:"size:128"`
	LastName  string `gorm:"size:128"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) entity() domain.Entity {
	return &domain.User{Base: r.base(), Email: r.Email, Password: r.Password, FirstName: r.FirstName, LastName: r.LastName}
}

type placeRow struct {
	BaseRow
	CityID          string `gorm:"size:60;not null;index"`
	UserID          string `gorm:"size:60;not null;index"`
	Name            string `gorm:"size:128;not null"`
	Description     string `gorm:"size:1024"`
	NumberRooms     int    `gorm:"not null"`
	NumberBathrooms int    `gorm:"not null"`
	MaxGuest        int    `gorm:"not null"`
	PriceByNight    int    `gorm:"not null"`
	Latitude        float64
	Longitude       float64
}

func (placeRow) TableName() string { return "places" }

func (r placeRow) entity() domain.Entity {
	return &domain.Place{
		Base:            r.base(),
		CityID:          r.CityID,
		UserID:          r.UserID,
		Name:            r.Name,
		Description:     r.Description,
		NumberRooms:     r.NumberRooms,
		NumberBathrooms: r.NumberBathrooms,
		MaxGuest:        r.MaxGuest,
		PriceByNight:    r.PriceByNight,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
	}
}

type reviewRow struct {
	BaseRow
	PlaceID string `gorm:"size:60;not null;index"`
	UserID  string `gorm:"size:60;not null;index"`
	Text    string `gorm:"size:1024;not null"`
}

func (reviewRow) TableName() string { return "reviews" }

func (r reviewRow) entity() domain.Entity {
	return &domain.Review{Base: r.base(), PlaceID: r.PlaceID, UserID: r.UserID, Text: r.Text}
}

type placeAmenityRow struct {
	PlaceID   string `gorm:"primaryKey;size:60"`
	AmenityID string `gorm:"primaryKey;size:60"`
}

func (placeAmenityRow) TableName() string { return "place_amenity" }

// rowOf converts an entity into the row gorm persists.
func rowOf(e domain.Entity) (any, error) {
	switch v := e.(type) {
	case *domain.State:
		return &stateRow{baseOf(&v.Base), v.Name}, nil
	case *domain.City:
		return &cityRow{baseOf(&v.Base), v.StateID, v.Name}, nil
	case *domain.Amenity:
		return &amenityRow{baseOf(&v.Base), v.Name}, nil
	case *domain.User:
		return &userRow{baseOf(&v.Base), v.Email, v.Password, v.FirstName, v.LastName}, nil
	case *domain.Place:
		return &placeRow{baseOf(&v.Base), v.CityID, v.UserID, v.Name, v.Description,
			v.NumberRooms, v.NumberBathrooms, v.MaxGuest, v.PriceByNight, v.Latitude, v.Longitude}, nil
	case *domain.Review:
		return &reviewRow{baseOf(&v.Base), v.PlaceID, v.UserID, v.Text}, nil
	}
	return nil, errUnknown(e)
}
