package reviews

import (
	"context"
	"math"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/logging"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/catalog"

	"google.golang.org/grpc/codes"
)

// ErrAlreadyReviewed is returned when a principal reviews the same book
// twice. Existing reviews are changed with Update.
var ErrAlreadyReviewed = errors.NewC("you have already reviewed this book", codes.AlreadyExists)

// Service is the guarded surface for reviews.
type Service struct {
	store  storage.Store
	engine *authz.Engine
}

// NewService returns a review service guarded by the given engine.
func NewService(store storage.Store, engine *authz.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// Create adds the calling principal's review of a book. One review per
// principal per book.
func (s *Service) Create(ctx context.Context, bookID string, rating int, comment string) (*Review, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}

	now := time.Now()
	r := &Review{
		BookID:  bookID,
		Owner:   identity.Subject,
		Rating:  rating,
		Comment: comment,
		Created: now,
		Updated: now,
	}
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		Object:   r,
		Action:   ActionCreate,
	}); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	// The book must exist; reviews of unknown books would skew nothing but
	// still pollute listings.
	var book catalog.Book
	if err := s.store.Read(ctx, bookID, &book); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, errors.Mark(ErrAlreadyReviewed, 0)
		}
		return nil, err
	}
	if err := s.refreshAggregate(ctx, bookID); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns one principal's review of a book. Public.
func (s *Service) Get(ctx context.Context, bookID, owner string) (*Review, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: Key(bookID, owner),
		Action:   ActionRead,
	}); err != nil {
		return nil, err
	}
	var r Review
	if err := s.store.Read(ctx, Key(bookID, owner), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListForBook returns all reviews of a book. Public.
func (s *Service) ListForBook(ctx context.Context, bookID string) ([]Review, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		Object:   &Review{},
		Action:   ActionList,
	}); err != nil {
		return nil, err
	}
	var out []Review
	if err := s.store.List(ctx, &out, Review{BookID: bookID}); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the calling principal's review of a book.
func (s *Service) Update(ctx context.Context, bookID string, rating int, comment string) (*Review, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}
	key := Key(bookID, identity.Subject)
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: key,
		Action:   ActionUpdate,
	}); err != nil {
		return nil, err
	}
	var r Review
	if err := s.store.Read(ctx, key, &r); err != nil {
		return nil, err
	}
	r.Rating = rating
	r.Comment = comment
	r.Updated = time.Now()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &r); err != nil {
		return nil, err
	}
	if err := s.refreshAggregate(ctx, bookID); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes the calling principal's review of a book.
func (s *Service) Delete(ctx context.Context, bookID string) error {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return errors.Mark(authz.ErrUnauthenticated, 0)
	}
	key := Key(bookID, identity.Subject)
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: key,
		Action:   ActionDelete,
	}); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, &Review{BookID: bookID, Owner: identity.Subject}); err != nil {
		return err
	}
	return s.refreshAggregate(ctx, bookID)
}

// refreshAggregate recomputes the book's denormalized rating and review
// count. Runs against the store directly; aggregate maintenance is system
// work, not a caller-privileged write.
func (s *Service) refreshAggregate(ctx context.Context, bookID string) error {
	var all []Review
	if err := s.store.List(ctx, &all, Review{BookID: bookID}); err != nil {
		return err
	}
	var book catalog.Book
	if err := s.store.Read(ctx, bookID, &book); err != nil {
		return err
	}
	book.ReviewCount = len(all)
	book.Rating = 0
	if len(all) > 0 {
		var sum int
		for _, r := range all {
			sum += r.Rating
		}
		// Round to one decimal place, matching what listings display.
		book.Rating = math.Round(float64(sum)/float64(len(all))*10) / 10
	}
	book.Updated = time.Now()
	if err := s.store.Update(ctx, &book); err != nil {
		return err
	}
	logging.Debugw(ctx, "review aggregate refreshed",
		"book", bookID, "rating", book.Rating, "count", book.ReviewCount)
	return nil
}
