package entity

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string
	Email string
	Admin bool
}
