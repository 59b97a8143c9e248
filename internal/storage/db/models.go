package db

// User is the single owner account row.
type User struct {
	ID           uint64
	Name         string
	Username     string
	PasswordHash []byte
}

// Movie is one row of the watchlist.
type Movie struct {
	ID    uint64
	Title string
	Year  string
}
