package user

// Principal identifies an authenticated caller of the vote API.
type Principal struct {
	UserID string
	Email  string
}
