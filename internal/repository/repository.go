package repository

import (
	"context"
	"errors"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
)

// Все Get* методы возвращают (nil, nil), если записи нет.

// ErrDuplicate нарушение уникальности при вставке
var ErrDuplicate = errors.New("duplicate key")

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context) ([]*model.Post, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error)
	// Update сохраняет все поля поста, кроме approved_student
	Update(ctx context.Context, post *model.Post) error
	// UpdateCapacity единственная запись approved_student
	UpdateCapacity(ctx context.Context, id uuid.UUID, approvedStudent int, visibility bool) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Booking, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error
	// DeletePending удаляет запись только в статусе PENDING, false если удалять нечего
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
	CountByPostAndStatus(ctx context.Context, postID uuid.UUID, status model.BookingStatus) (int, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ExistsByBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*model.Review, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]*model.Review, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateRole(ctx context.Context, id int64, role model.Role) error
	List(ctx context.Context) ([]*model.User, error)
}

// Repositories набор репозиториев, привязанных к пулу или к транзакции
type Repositories interface {
	Posts() PostRepository
	Bookings() BookingRepository
	Reviews() ReviewRepository
	Users() UserRepository
}

// Tx транзакция. Блокировки держатся до commit/rollback.
type Tx interface {
	Repositories
	// LockPost сериализует изменения мест и видимости поста
	LockPost(ctx context.Context, postID uuid.UUID) error
	// LockUser сериализует проверки пересечений расписания одного человека
	LockUser(ctx context.Context, userID int64) error
}

// Store точка входа в хранилище
type Store interface {
	Repositories
	// InTx выполняет fn в транзакции; ошибка fn откатывает все изменения
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
