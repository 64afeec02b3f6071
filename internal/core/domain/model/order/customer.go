package order

import "strings"

// Customer holds the recipient's contact details. All fields are optional;
// notifications are skipped when the e-mail is empty.
type Customer struct {
	name  string
	phone string
	email string
}

// NewCustomer trims and stores the contact details.
func NewCustomer(name, phone, email string) Customer {
	return Customer{
		name:  strings.TrimSpace(name),
		phone: strings.TrimSpace(phone),
		email: strings.TrimSpace(email),
	}
}

// Name returns the recipient's display name.
func (c Customer) Name() string {
	return c.name
}

// Phone returns the recipient's phone number.
func (c Customer) Phone() string {
	return c.phone
}

// Email returns the recipient's e-mail address.
func (c Customer) Email() string {
	return c.email
}
