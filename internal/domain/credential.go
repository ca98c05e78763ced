package domain

// Credential is one entry in the credential table.
//
// Username is a case-insensitive unique key. SecretHash is the argon2id
// encoding of the user's secret; the plain secret is never stored.
type Credential struct {
	Username   string
	SecretHash string
}

// Clone returns an independent copy of the credential.
func (c *Credential) Clone() *Credential {
	out := *c
	return &out
}

// MatchesUsername reports whether the credential belongs to the given
// username, compared case-insensitively.
func (c *Credential) MatchesUsername(username string) bool {
	return FoldEqual(c.Username, username)
}
