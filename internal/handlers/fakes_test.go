package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/mailer"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

type userRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username || u.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *userRepo) first(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.first(func(u models.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token })
}

func (r *userRepo) FindConflict(ctx context.Context, username, email, phone string, exclude uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		switch {
		case u.ID == exclude:
		case username != "" && u.Username == username:
			return "username", nil
		case email != "" && u.Email == email:
			return "email", nil
		case phone != "" && u.Phone == phone:
			return "phone", nil
		}
	}
	return "", nil
}

func (r *userRepo) modify(id uuid.UUID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *userRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.modify(id, func(u *models.User) { u.RefreshToken = token })
}

func (r *userRepo) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.modify(id, func(u *models.User) {
		u.IsVerified = true
		u.EmailVerifiedAt = &at
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.modify(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, update repository.UserUpdate) error {
	return r.modify(id, func(u *models.User) {
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
		if update.Image != nil {
			u.Image = *update.Image
		}
	})
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type otpRepo struct {
	mu   sync.Mutex
	otps map[uuid.UUID]models.OTP
}

func (r *otpRepo) Upsert(ctx context.Context, otp *models.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[otp.UserID] = *otp
	return nil
}

func (r *otpRepo) Take(ctx context.Context, userID uuid.UUID, code string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.otps[userID]
	if !ok || otp.Code != code {
		return nil, repository.ErrNotFound
	}
	delete(r.otps, userID)
	return &otp, nil
}

func (r *otpRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.otps, userID)
	return nil
}

func (r *otpRepo) code(userID uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.otps[userID].Code
}

type cartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]models.Cart
}

func (r *cartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cart, nil
}

func (r *cartRepo) Mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(cart *models.Cart) error) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		if !create {
			return nil, repository.ErrNotFound
		}
		cart = models.Cart{UserID: userID, Items: []models.CartItem{}}
		cart.ID = uuid.New()
	}
	cart.Items = append([]models.CartItem(nil), cart.Items...)
	if err := fn(&cart); err != nil {
		return nil, err
	}
	r.carts[userID] = cart
	return &cart, nil
}

type productRepo struct {
	products map[uuid.UUID]models.Product
}

func (r *productRepo) add(name string, price float64) models.Product {
	p := models.Product{Name: name, Price: price, Stock: 10}
	p.ID = uuid.New()
	r.products[p.ID] = p
	return p
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	r.products[product.ID] = *product
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *productRepo) Save(ctx context.Context, product *models.Product) error {
	r.products[product.ID] = *product
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}
