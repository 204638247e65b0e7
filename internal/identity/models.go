package identity

// Identity is a principal verified by the identity provider.
type Identity struct {
	SubjectID string
	Email     string
}

// tokenInfo is the subset of the provider's tokeninfo document we rely on.
type tokenInfo struct {
	Audience string `json:"aud"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
}
