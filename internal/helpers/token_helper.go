package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// ticketTokenBytes is the entropy of a ticket token. 32 bytes keeps tokens
// unguessable even as bearer credentials for entry.
const ticketTokenBytes = 32

// NewTicketToken returns a URL-safe random token for a minted ticket.
func NewTicketToken() (string, error) {
	buf := make([]byte, ticketTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
