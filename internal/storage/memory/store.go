// Package memory keeps every collection in process memory. It backs
// STORE_DRIVER=memory and the service tests. Transactions are not isolated;
// correctness under concurrency relies on the property lease, as with Mongo.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	blockserrors "rentals/internal/blocks/errors"
	bookingserrors "rentals/internal/bookings/errors"
	propertieserrors "rentals/internal/properties/errors"
	reservationserrors "rentals/internal/reservations/errors"
	userserrors "rentals/internal/users/errors"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu         sync.RWMutex
	users      map[string]model.User
	properties map[string]model.Property
	bookings   map[string]model.Booking
	blocks     map[string]model.Block
	locks      map[string]model.PropertyLock
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]model.User),
		properties: make(map[string]model.Property),
		bookings:   make(map[string]model.Booking),
		blocks:     make(map[string]model.Block),
		locks:      make(map[string]model.PropertyLock),
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---- transactions ----

type txManager struct{}

func (s *Store) TransactionManager() mongotx.TransactionManager {
	return txManager{}
}

func (txManager) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// ---- users ----

type UserRepository struct{ s *Store }

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return userserrors.ErrDuplicateEmail
		}
	}
	user.ID = newID()
	user.CreatedAt = now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, userserrors.ErrInvalidID
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return userserrors.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return userserrors.ErrDuplicateEmail
		}
	}
	current.Name = user.Name
	current.Email = user.Email
	current.Phone = user.Phone
	r.s.users[user.ID] = current
	return nil
}

// ---- properties ----

type PropertyRepository struct{ s *Store }

func (s *Store) Properties() *PropertyRepository { return &PropertyRepository{s: s} }

func (r *PropertyRepository) Create(_ context.Context, property *model.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	property.ID = newID()
	property.CreatedAt = now()
	r.s.properties[property.ID] = *property
	return nil
}

func (r *PropertyRepository) FindByID(_ context.Context, id string) (*model.Property, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, propertieserrors.ErrInvalidID
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.properties[id]
	if !ok {
		return nil, propertieserrors.ErrNotFound
	}
	return &p, nil
}

func (r *PropertyRepository) FindByIDForUpdate(_ context.Context, id string) (*model.Property, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, propertieserrors.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.properties[id]
	if !ok {
		return nil, propertieserrors.ErrNotFound
	}
	p.LockVersion++
	r.s.properties[id] = p
	return &p, nil
}

func (r *PropertyRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*model.Property, 0, len(r.s.properties))
	for _, p := range r.s.properties {
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

func (r *PropertyRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.properties)), nil
}

func (r *PropertyRepository) Update(_ context.Context, property *model.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.properties[property.ID]
	if !ok {
		return propertieserrors.ErrNotFound
	}
	current.OwnerID = property.OwnerID
	current.Name = property.Name
	current.Location = property.Location
	r.s.properties[property.ID] = current
	return nil
}

// ---- bookings ----

type BookingRepository struct{ s *Store }

func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

func (r *BookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking.ID = newID()
	booking.CreatedAt = now()
	booking.UpdatedAt = booking.CreatedAt
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*model.Booking, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		b := b
		all = append(all, &b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CheckInDate.Equal(all[j].CheckInDate) {
			return all[i].ID < all[j].ID
		}
		return all[i].CheckInDate.Before(all[j].CheckInDate)
	})
	return page(all, limit, offset), nil
}

func (r *BookingRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.bookings)), nil
}

func (r *BookingRepository) Update(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; !ok {
		return bookingserrors.ErrNotFound
	}
	booking.UpdatedAt = now()
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepository) Delete(_ context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return bookingserrors.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(r.s.bookings, id)
	return nil
}

func (r *BookingRepository) ExistsActiveOverlapping(_ context.Context, propertyID string, dr model.DateRange, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, b := range r.s.bookings {
		if id == excludeID || b.PropertyID != propertyID || !b.IsActive() {
			continue
		}
		if b.Range().Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

// ---- blocks ----

type BlockRepository struct{ s *Store }

func (s *Store) Blocks() *BlockRepository { return &BlockRepository{s: s} }

func (r *BlockRepository) Create(_ context.Context, block *model.Block) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	block.ID = newID()
	block.CreatedAt = now()
	block.UpdatedAt = block.CreatedAt
	r.s.blocks[block.ID] = *block
	return nil
}

func (r *BlockRepository) FindByID(_ context.Context, id string) (*model.Block, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, blockserrors.ErrInvalidID
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.blocks[id]
	if !ok {
		return nil, blockserrors.ErrNotFound
	}
	return &b, nil
}

func (r *BlockRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*model.Block, 0, len(r.s.blocks))
	for _, b := range r.s.blocks {
		b := b
		all = append(all, &b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartDate.Equal(all[j].StartDate) {
			return all[i].ID < all[j].ID
		}
		return all[i].StartDate.Before(all[j].StartDate)
	})
	return page(all, limit, offset), nil
}

func (r *BlockRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.blocks)), nil
}

func (r *BlockRepository) Update(_ context.Context, block *model.Block) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.blocks[block.ID]; !ok {
		return blockserrors.ErrNotFound
	}
	block.UpdatedAt = now()
	r.s.blocks[block.ID] = *block
	return nil
}

func (r *BlockRepository) Delete(_ context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return blockserrors.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.blocks[id]; !ok {
		return blockserrors.ErrNotFound
	}
	delete(r.s.blocks, id)
	return nil
}

func (r *BlockRepository) ExistsOverlapping(_ context.Context, propertyID string, dr model.DateRange, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, b := range r.s.blocks {
		if id == excludeID || b.PropertyID != propertyID {
			continue
		}
		if b.Range().Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

// ---- property leases ----

type PropertyLockRepository struct{ s *Store }

func (s *Store) PropertyLocks() *PropertyLockRepository { return &PropertyLockRepository{s: s} }

func (r *PropertyLockRepository) TryAcquire(_ context.Context, propertyID, owner string, at time.Time, ttl time.Duration) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := model.PropertyLockID(propertyID)
	if held, ok := r.s.locks[id]; ok && !held.ExpiresAt.Before(at) {
		return false, nil
	}
	r.s.locks[id] = model.PropertyLock{
		ID:         id,
		PropertyID: propertyID,
		Owner:      owner,
		ExpiresAt:  at.Add(ttl),
		CreatedAt:  at,
	}
	return true, nil
}

func (r *PropertyLockRepository) Release(_ context.Context, propertyID, owner string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := model.PropertyLockID(propertyID)
	held, ok := r.s.locks[id]
	if !ok || held.Owner != owner {
		return reservationserrors.ErrLockNotHeld
	}
	delete(r.s.locks, id)
	return nil
}
