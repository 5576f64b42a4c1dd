package user

import (
	"strings"

	"github.com/google/uuid"
)

// Contact is the identity-store view of a guest or host. Accounts are managed elsewhere;
// booking only reads names and contact channels for notifications and invoices.
type Contact struct {
	id        uuid.UUID
	firstName string
	lastName  string
	email     Email
	mobile    string
}

func NewContact(id uuid.UUID, firstName, lastName, email, mobile string) Contact {
	// A malformed address leaves email empty so senders can skip the channel.
	e, _ := NewEmail(email)
	return Contact{
		id:        id,
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     e,
		mobile:    strings.TrimSpace(mobile),
	}
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.firstName + " " + c.lastName)
}

func (c Contact) ID() uuid.UUID { return c.id }
func (c Contact) FirstName() string { return c.firstName }
func (c Contact) LastName() string { return c.lastName }
func (c Contact) Email() Email { return c.email }
func (c Contact) Mobile() string { return c.mobile }
