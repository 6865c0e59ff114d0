package structures

// Credentials mirrors the private token file handed out by the API console.
type Credentials struct {
	Token string `json:"token"`
}
