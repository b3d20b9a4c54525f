package mysql

// -----------------------------------------------------------------------------
// WRITE STATEMENTS
// -----------------------------------------------------------------------------

// Upserts keep created_at from the first insert.

const upsertStateSQL = `
INSERT INTO states (id, created_at, updated_at, name)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  updated_at = VALUES(updated_at),
  name       = VALUES(name)
`

const upsertCitySQL = `
INSERT INTO cities (id, created_at, updated_at, state_id, name)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  updated_at = VALUES(updated_at),
  name       = VALUES(name)
`

const upsertAmenitySQL = `
INSERT INTO amenities (id, created_at, updated_at, name)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  updated_at = VALUES(updated_at),
  name       = VALUES(name)
`

const upsertUserSQL = `
INSERT INTO users (id, created_at, updated_at, email, password, first_name, last_name)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  updated_at = VALUES(updated_at),
  password   = VALUES(password),
  first_name = VALUES(first_name),
  last_name  = VALUES(last_name)
`

const upsertPlaceSQL = `
INSERT INTO places
  (id, created_at, updated_at, city_id, user_id, name, description,
   number_rooms, number_bathrooms, max_guest, price_by_night, latitude, longitude)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  updated_at       = VALUES(updated_at),
  name             = VALUES(name),
  description      = VALUES(description),
  number_rooms     = VALUES(number_rooms),
  number_bathrooms = VALUES(number_bathrooms),
  max_guest        = VALUES(max_guest),
  price_by_night   = VALUES(price_by_night),
  latitude         = VALUES(latitude),
  longitude        = VALUES(longitude)
`

// Note: `text` is reserved; keep it quoted everywhere.
const upsertReviewSQL = "\nINSERT INTO reviews (id, created_at, updated_at, place_id, user_id, `text`)\n" +
	"VALUES (?, ?, ?, ?, ?, ?)\n" +
	"ON DUPLICATE KEY UPDATE\n" +
	"  updated_at = VALUES(updated_at),\n" +
	"  `text`     = VALUES(`text`)\n"

const linkAmenitySQL = `INSERT IGNORE INTO place_amenity (place_id, amenity_id) VALUES (?, ?)`

const unlinkAmenitySQL = `DELETE FROM place_amenity WHERE place_id = ? AND amenity_id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectStatesSQL = `SELECT id, created_at, updated_at, name FROM states`

const selectCitiesSQL = `SELECT id, created_at, updated_at, state_id, name FROM cities`

const selectAmenitiesSQL = `SELECT id, created_at, updated_at, name FROM amenities`

const selectUsersSQL = `
SELECT id, created_at, updated_at, email, password, first_name, last_name
FROM users`

const selectPlacesSQL = `
SELECT id, created_at, updated_at, city_id, user_id, name, description,
       number_rooms, number_bathrooms, max_guest, price_by_night, latitude, longitude
FROM places`

const selectReviewsSQL = "SELECT id, created_at, updated_at, place_id, user_id, `text` FROM reviews"

const selectAmenityIDsSQL = `SELECT amenity_id FROM place_amenity WHERE place_id = ? ORDER BY amenity_id`
