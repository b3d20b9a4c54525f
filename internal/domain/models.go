package domain

import "golang.org/x/crypto/bcrypt"

type State struct {
	Base
	Name string `json:"name" validate:"required,max=128"`
}

func (*State) Kind() Kind { return KindState }

func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	return withClass(KindState, plain(s))
}

type City struct {
	Base
	StateID string `json:"state_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=128"`
}

func (*City) Kind() Kind { return KindCity }

func (c City) MarshalJSON() ([]byte, error) {
	type plain City
	return withClass(KindCity, plain(c))
}

type Amenity struct {
	Base
	Name string `json:"name" validate:"required,max=128"`
}

func (*Amenity) Kind() Kind { return KindAmenity }

func (a Amenity) MarshalJSON() ([]byte, error) {
	type plain Amenity
	return withClass(KindAmenity, plain(a))
}

// User.Password holds a bcrypt hash once the user went through SetPassword.
// Raw passwords are capped at bcrypt's 72 byte input.
type User struct {
	Base
	Email     string `json:"email" validate:"required,max=128"`
	Password  string `json:"password,omitempty" validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
}

func (*User) Kind() Kind { return KindUser }

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return withClass(KindUser, plain(u))
}

func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}

type Place struct {
	Base
	CityID          string  `json:"city_id" validate:"required"`
	UserID          string  `json:"user_id" validate:"required"`
	Name            string  `json:"name" validate:"required,max=128"`
	Description     string  `json:"description" validate:"max=1024"`
	NumberRooms     int     `json:"number_rooms"`
	NumberBathrooms int     `json:"number_bathrooms"`
	MaxGuest        int     `json:"max_guest"`
	PriceByNight    int     `json:"price_by_night"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

func (*Place) Kind() Kind { return KindPlace }

func (p Place) MarshalJSON() ([]byte, error) {
	type plain Place
	return withClass(KindPlace, plain(p))
}

type Review struct {
	Base
	PlaceID string `json:"place_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Text    string `json:"text" validate:"required,max=1024"`
}

func (*Review) Kind() Kind { return KindReview }

func (r Review) MarshalJSON() ([]byte, error) {
	type plain Review
	return withClass(KindReview, plain(r))
}

// Public returns the entity as it may be shown to API clients.
func Public(e Entity) Entity {
	if u, ok := e.(*User); ok {
		cp := *u
		cp.Password = ""
		return &cp
	}
	return e
}
