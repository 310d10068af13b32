// Package memory хранилище в памяти процесса.
// Транзакции выполняются по одной: InTx держит общий мьютекс до конца fn,
// поэтому LockPost/LockUser ничего не делают.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/google/uuid"
)

type data struct {
	posts      map[uuid.UUID]*model.Post
	bookings   map[uuid.UUID]*model.Booking
	reviews    map[uuid.UUID]*model.Review
	users      map[int64]*model.User
	nextUserID int64
}

func newData() *data {
	return &data{
		posts:    make(map[uuid.UUID]*model.Post),
		bookings: make(map[uuid.UUID]*model.Booking),
		reviews:  make(map[uuid.UUID]*model.Review),
		users:    make(map[int64]*model.User),
	}
}

// clone глубокая копия для отката транзакции
func (d *data) clone() *data {
	cp := newData()
	for id, p := range d.posts {
		cp.posts[id] = p.Clone()
	}
	for id, b := range d.bookings {
		cp.bookings[id] = b.Clone()
	}
	for id, r := range d.reviews {
		review := *r
		cp.reviews[id] = &review
	}
	for id, u := range d.users {
		user := *u
		cp.users[id] = &user
	}
	cp.nextUserID = d.nextUserID
	return cp
}

// Store хранилище в памяти, реализует repository.Store
type Store struct {
	mu   sync.RWMutex
	data *data
	now  func() time.Time
}

// NewStore создаёт пустое хранилище; now задаёт часы для created_at/updated_at
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{data: newData(), now: now}
}

// access выполняет операцию над данными с нужной блокировкой
type access interface {
	read(fn func(d *data))
	write(fn func(d *data))
	clock() time.Time
}

// storeAccess берёт мьютекс на каждую операцию
type storeAccess struct{ s *Store }

func (a storeAccess) read(fn func(d *data)) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	fn(a.s.data)
}

func (a storeAccess) write(fn func(d *data)) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	fn(a.s.data)
}

func (a storeAccess) clock() time.Time { return a.s.now() }

// txAccess работает внутри InTx, мьютекс уже захвачен
type txAccess struct{ s *Store }

func (a txAccess) read(fn func(d *data))  { fn(a.s.data) }
func (a txAccess) write(fn func(d *data)) { fn(a.s.data) }
func (a txAccess) clock() time.Time       { return a.s.now() }

func (s *Store) Posts() repository.PostRepository       { return postRepo{storeAccess{s}} }
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{storeAccess{s}} }
func (s *Store) Reviews() repository.ReviewRepository   { return reviewRepo{storeAccess{s}} }
func (s *Store) Users() repository.UserRepository       { return userRepo{storeAccess{s}} }

// InTx выполняет fn эксклюзивно; при ошибке состояние откатывается к снимку
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(tx{s: s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

type tx struct{ s *Store }

func (t tx) Posts() repository.PostRepository       { return postRepo{txAccess{t.s}} }
func (t tx) Bookings() repository.BookingRepository { return bookingRepo{txAccess{t.s}} }
func (t tx) Reviews() repository.ReviewRepository   { return reviewRepo{txAccess{t.s}} }
func (t tx) Users() repository.UserRepository       { return userRepo{txAccess{t.s}} }

func (t tx) LockPost(context.Context, uuid.UUID) error { return nil }
func (t tx) LockUser(context.Context, int64) error     { return nil }

func sortByCreatedDesc[T any](items []*T, createdAt func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
