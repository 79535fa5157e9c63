// Package reviews manages book reviews. Reviews are readable by anyone and
// managed only by the principal who wrote them. Each principal gets at most
// one review per book, enforced with a deterministic primary key.
package reviews

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Key returns the primary key for a principal's review of a book. Keying on
// (book, owner) makes duplicate reviews a storage conflict rather than a
// read-then-write race.
func Key(bookID, owner string) string {
	return bookID + "/" + owner
}

// Review is one principal's rating of one book.
type Review struct {
	BookID  string    `json:"bookId"`
	Owner   string    `json:"owner"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// PK implements storage.Model.
func (r Review) PK() string {
	return Key(r.BookID, r.Owner)
}

// AuthzType implements authz.OwnedObject.
func (r Review) AuthzType() string {
	return Resource
}

// OwnerID implements authz.OwnedObject.
func (r Review) OwnerID() string {
	return r.Owner
}

func (r Review) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.Owner, validation.Required),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Comment, validation.Length(0, 2000)),
	)
}
