package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/google/uuid"
)

// Все методы отдают и принимают копии, чтобы вызывающий код не мог
// изменить хранилище в обход репозитория.

type postRepo struct{ a access }

func (r postRepo) Create(_ context.Context, post *model.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := r.a.clock()
	post.CreatedAt = now
	post.UpdatedAt = now

	var err error
	r.a.write(func(d *data) {
		if _, exists := d.posts[post.ID]; exists {
			err = fmt.Errorf("create post: duplicate id %s", post.ID)
			return
		}
		d.posts[post.ID] = post.Clone()
	})
	return err
}

func (r postRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Post, error) {
	var post *model.Post
	r.a.read(func(d *data) {
		if p, ok := d.posts[id]; ok {
			post = p.Clone()
		}
	})
	return post, nil
}

func (r postRepo) filter(keep func(*model.Post) bool) []*model.Post {
	var posts []*model.Post
	r.a.read(func(d *data) {
		for _, p := range d.posts {
			if keep(p) {
				posts = append(posts, p.Clone())
			}
		}
	})
	sortByCreatedDesc(posts, func(p *model.Post) time.Time { return p.CreatedAt })
	return posts
}

func (r postRepo) List(_ context.Context) ([]*model.Post, error) {
	return r.filter(func(*model.Post) bool { return true }), nil
}

func (r postRepo) ListByOwner(_ context.Context, ownerID int64) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.OwnerID == ownerID }), nil
}

func (r postRepo) Update(_ context.Context, post *model.Post) error {
	var err error
	r.a.write(func(d *data) {
		stored, ok := d.posts[post.ID]
		if !ok {
			err = fmt.Errorf("update post: post %s not found", post.ID)
			return
		}
		updated := post.Clone()
		updated.ApprovedStudent = stored.ApprovedStudent
		updated.CreatedAt = stored.CreatedAt
		updated.UpdatedAt = r.a.clock()
		d.posts[post.ID] = updated
		post.UpdatedAt = updated.UpdatedAt
	})
	return err
}

func (r postRepo) UpdateCapacity(_ context.Context, id uuid.UUID, approvedStudent int, visibility bool) error {
	var err error
	r.a.write(func(d *data) {
		stored, ok := d.posts[id]
		if !ok {
			err = fmt.Errorf("update post capacity: post %s not found", id)
			return
		}
		stored.ApprovedStudent = approvedStudent
		stored.Visibility = visibility
		stored.UpdatedAt = r.a.clock()
	})
	return err
}

func (r postRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	r.a.write(func(d *data) {
		if _, ok := d.posts[id]; ok {
			delete(d.posts, id)
			deleted = true
		}
	})
	return deleted, nil
}

type bookingRepo struct{ a access }

func (r bookingRepo) Create(_ context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := r.a.clock()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	var err error
	r.a.write(func(d *data) {
		if _, exists := d.bookings[booking.ID]; exists {
			err = fmt.Errorf("create booking: duplicate id %s", booking.ID)
			return
		}
		d.bookings[booking.ID] = booking.Clone()
	})
	return err
}

func (r bookingRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking *model.Booking
	r.a.read(func(d *data) {
		if b, ok := d.bookings[id]; ok {
			booking = b.Clone()
		}
	})
	return booking, nil
}

func (r bookingRepo) filter(keep func(*model.Booking) bool) []*model.Booking {
	var bookings []*model.Booking
	r.a.read(func(d *data) {
		for _, b := range d.bookings {
			if keep(b) {
				bookings = append(bookings, b.Clone())
			}
		}
	})
	sortByCreatedDesc(bookings, func(b *model.Booking) time.Time { return b.CreatedAt })
	return bookings
}

func (r bookingRepo) ListByStudent(_ context.Context, studentID int64) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.StudentID == studentID }), nil
}

func (r bookingRepo) ListByTutor(_ context.Context, tutorID int64) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.TutorID == tutorID }), nil
}

func (r bookingRepo) ListByUser(_ context.Context, userID int64) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.HasParticipant(userID) }), nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.BookingStatus) error {
	var err error
	r.a.write(func(d *data) {
		stored, ok := d.bookings[id]
		if !ok {
			err = fmt.Errorf("update booking status: booking %s not found", id)
			return
		}
		stored.Status = status
		stored.UpdatedAt = r.a.clock()
	})
	return err
}

func (r bookingRepo) DeletePending(_ context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	r.a.write(func(d *data) {
		stored, ok := d.bookings[id]
		if !ok || stored.Status != model.BookingStatusPending {
			return
		}
		delete(d.bookings, id)
		deleted = true
	})
	return deleted, nil
}

func (r bookingRepo) CountByPostAndStatus(_ context.Context, postID uuid.UUID, status model.BookingStatus) (int, error) {
	var count int
	r.a.read(func(d *data) {
		for _, b := range d.bookings {
			if b.PostID == postID && b.Status == status {
				count++
			}
		}
	})
	return count, nil
}

type reviewRepo struct{ a access }

func (r reviewRepo) Create(_ context.Context, review *model.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = r.a.clock()

	var err error
	r.a.write(func(d *data) {
		for _, existing := range d.reviews {
			if existing.BookingID == review.BookingID {
				err = fmt.Errorf("create review for booking %s: %w", review.BookingID, repository.ErrDuplicate)
				return
			}
		}
		stored := *review
		d.reviews[review.ID] = &stored
	})
	return err
}

func (r reviewRepo) ExistsByBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	review, err := r.GetByBooking(ctx, bookingID)
	return review != nil, err
}

func (r reviewRepo) GetByBooking(_ context.Context, bookingID uuid.UUID) (*model.Review, error) {
	var review *model.Review
	r.a.read(func(d *data) {
		for _, existing := range d.reviews {
			if existing.BookingID == bookingID {
				cp := *existing
				review = &cp
				return
			}
		}
	})
	return review, nil
}

func (r reviewRepo) ListByTutor(_ context.Context, tutorID int64) ([]*model.Review, error) {
	var reviews []*model.Review
	r.a.read(func(d *data) {
		for _, existing := range d.reviews {
			if existing.TutorID == tutorID {
				cp := *existing
				reviews = append(reviews, &cp)
			}
		}
	})
	sortByCreatedDesc(reviews, func(r *model.Review) time.Time { return r.CreatedAt })
	return reviews, nil
}

type userRepo struct{ a access }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	user.CreatedAt = r.a.clock()

	var err error
	r.a.write(func(d *data) {
		for _, existing := range d.users {
			if user.TelegramID != 0 && existing.TelegramID == user.TelegramID {
				err = fmt.Errorf("create user: telegram id %d already registered", user.TelegramID)
				return
			}
		}
		d.nextUserID++
		user.ID = d.nextUserID
		stored := *user
		d.users[user.ID] = &stored
	})
	return err
}

func (r userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	var user *model.User
	r.a.read(func(d *data) {
		if u, ok := d.users[id]; ok {
			cp := *u
			user = &cp
		}
	})
	return user, nil
}

func (r userRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	var user *model.User
	r.a.read(func(d *data) {
		for _, u := range d.users {
			if u.TelegramID == telegramID {
				cp := *u
				user = &cp
				return
			}
		}
	})
	return user, nil
}

func (r userRepo) UpdateRole(_ context.Context, id int64, role model.Role) error {
	var err error
	r.a.write(func(d *data) {
		u, ok := d.users[id]
		if !ok {
			err = fmt.Errorf("update user role: user %d not found", id)
			return
		}
		u.Role = role
	})
	return err
}

func (r userRepo) List(_ context.Context) ([]*model.User, error) {
	var users []*model.User
	r.a.read(func(d *data) {
		for _, u := range d.users {
			cp := *u
			users = append(users, &cp)
		}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
