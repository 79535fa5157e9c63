package orders

import (
	"context"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/logging"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/catalog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
)

// ErrEmptyOrder is returned when a checkout has no line items.
var ErrEmptyOrder = errors.NewC("an order needs at least one line item", codes.InvalidArgument)

// Service is the guarded surface for orders.
type Service struct {
	store  storage.Store
	engine *authz.Engine
}

// NewService returns an order service guarded by the given engine.
func NewService(store storage.Store, engine *authz.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// Line is one requested book in a checkout.
type Line struct {
	BookID   string
	Quantity int
}

// CreateParams describe a checkout. Status is optional; the checkout flow
// creates orders directly in confirmed when it is left empty.
type CreateParams struct {
	ShippingAddress string
	Status          Status
	Lines           []Line
}

// Create places an order for the calling principal. The order's owner is
// taken from the caller's identity, never from the request, and cannot be
// changed afterwards. Line unit prices are captured from the catalog at the
// time of purchase.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Order, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}
	if len(params.Lines) == 0 {
		return nil, errors.Mark(ErrEmptyOrder, 0)
	}

	status := params.Status
	if status == "" {
		status = StatusConfirmed
	}
	now := time.Now()
	order := &Order{
		ID:              uuid.NewString(),
		Owner:           identity.Subject,
		Status:          status,
		ShippingAddress: params.ShippingAddress,
		Created:         now,
		Updated:         now,
	}

	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderResource,
		Object:   order,
		Action:   ActionCreate,
	}); err != nil {
		return nil, err
	}

	models := make([]storage.Model, 0, len(params.Lines)+1)
	for _, line := range params.Lines {
		var book catalog.Book
		if err := s.store.Read(ctx, line.BookID, &book); err != nil {
			return nil, err
		}
		item := &OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			BookID:    book.ID,
			Quantity:  line.Quantity,
			UnitPrice: book.Price,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		order.Total += book.Price * int64(line.Quantity)
		models = append(models, item)
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	models = append([]storage.Model{order}, models...)
	if err := s.store.Create(ctx, models...); err != nil {
		return nil, err
	}

	logging.Infow(ctx, "order placed",
		"order", order.ID, "owner", order.Owner, "total", order.Total)
	return order, nil
}

// Get returns an order. Owner or admin.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderResource,
		ObjectID: id,
		Action:   ActionRead,
	}); err != nil {
		return nil, err
	}
	var o Order
	if err := s.store.Read(ctx, id, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Items returns an order's line items. Access follows the parent order:
// owner or admin.
func (s *Service) Items(ctx context.Context, orderID string) ([]OrderItem, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderItemResource,
		ObjectID: orderID,
		Action:   ActionReadItems,
	}); err != nil {
		return nil, err
	}
	var out []OrderItem
	if err := s.store.List(ctx, &out, OrderItem{OrderID: orderID}); err != nil {
		return nil, err
	}
	return out, nil
}

// AddItem appends a line item to an existing order, repricing the total.
// Only the owner of the parent order may do this.
func (s *Service) AddItem(ctx context.Context, orderID string, line Line) (*OrderItem, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderItemResource,
		ObjectID: orderID,
		Action:   ActionCreateItems,
	}); err != nil {
		return nil, err
	}
	var o Order
	if err := s.store.Read(ctx, orderID, &o); err != nil {
		return nil, err
	}
	var book catalog.Book
	if err := s.store.Read(ctx, line.BookID, &book); err != nil {
		return nil, err
	}
	item := &OrderItem{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		BookID:    book.ID,
		Quantity:  line.Quantity,
		UnitPrice: book.Price,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	o.Total += book.Price * int64(line.Quantity)
	o.Updated = time.Now()
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return nil, err
	}
	return item, nil
}

// ListMine returns the calling principal's own orders.
func (s *Service) ListMine(ctx context.Context) ([]Order, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderResource,
		Object:   &Order{Owner: identity.Subject},
		Action:   ActionListOwn,
	}); err != nil {
		return nil, err
	}
	var out []Order
	if err := s.store.List(ctx, &out, Order{Owner: identity.Subject}); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every order. Admin only.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderResource,
		Object:   &Order{},
		Action:   ActionList,
	}); err != nil {
		return nil, err
	}
	var out []Order
	if err := s.store.List(ctx, &out, Order{}); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an order to a new status. Admin only. The policy layer
// admits any move; irregular ones are logged so fulfilment tooling can spot
// them.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: OrderResource,
		ObjectID: id,
		Action:   ActionUpdateStatus,
	}); err != nil {
		return nil, err
	}
	var o Order
	if err := s.store.Read(ctx, id, &o); err != nil {
		return nil, err
	}
	if !ValidTransition(o.Status, status) {
		logging.Warnw(ctx, "irregular order status transition",
			"order", o.ID, "from", o.Status, "to", status)
	}
	o.Status = status
	o.Updated = time.Now()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return nil, err
	}
	logging.Infow(ctx, "order status updated", "order", o.ID, "status", status)
	return &o, nil
}
