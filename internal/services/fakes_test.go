package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/mailer"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

func newID(m *models.BaseModel) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	order []uuid.UUID
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username || u.Phone == user.Phone {
			return fmt.Errorf("%w: users", repository.ErrDuplicate)
		}
	}
	newID(&user.BaseModel)
	cp := *user
	m.users[user.ID] = &cp
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memUsers) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if u, ok := m.users[id]; ok && match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token })
}

func (m *memUsers) FindConflict(ctx context.Context, username, email, phone string, exclude uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == exclude {
			continue
		}
		switch {
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

func (m *memUsers) modify(id uuid.UUID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	return m.modify(id, func(u *models.User) {
		if token == nil {
			u.RefreshToken = nil
			return
		}
		t := *token
		u.RefreshToken = &t
	})
}

func (m *memUsers) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.modify(id, func(u *models.User) {
		u.IsVerified = true
		u.EmailVerifiedAt = &at
	})
}

func (m *memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.modify(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) Update(ctx context.Context, id uuid.UUID, update repository.UserUpdate) error {
	return m.modify(id, func(u *models.User) {
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

func (m *memUsers) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for i, id := range m.order {
		if i < offset || len(out) >= limit {
			continue
		}
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, int64(len(m.users)), nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memOTPs struct {
	mu   sync.Mutex
	otps map[uuid.UUID]models.OTP
}

func newMemOTPs() *memOTPs {
	return &memOTPs{otps: map[uuid.UUID]models.OTP{}}
}

func (m *memOTPs) Upsert(ctx context.Context, otp *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&otp.BaseModel)
	m.otps[otp.UserID] = *otp
	return nil
}

func (m *memOTPs) Take(ctx context.Context, userID uuid.UUID, code string) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[userID]
	if !ok || otp.Code != code {
		return nil, repository.ErrNotFound
	}
	delete(m.otps, userID)
	return &otp, nil
}

func (m *memOTPs) Delete(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, userID)
	return nil
}

func (m *memOTPs) code(userID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[userID]
	return otp.Code, ok
}

type memCarts struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*models.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: map[uuid.UUID]*models.Cart{}}
}

func cloneCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp
}

func (m *memCarts) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneCart(c), nil
}

func (m *memCarts) Mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(cart *models.Cart) error) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.carts[userID]
	if !ok {
		if !create {
			return nil, repository.ErrNotFound
		}
		current = &models.Cart{UserID: userID}
		newID(&current.BaseModel)
	}

	work := cloneCart(current)
	if err := fn(work); err != nil {
		return nil, err
	}
	m.carts[userID] = work
	return cloneCart(work), nil
}

type memAddresses struct {
	mu        sync.Mutex
	addresses []*models.Address
}

func (m *memAddresses) Create(ctx context.Context, address *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if address.IsDefault {
		for _, a := range m.addresses {
			if a.UserID == address.UserID && a.IsDefault {
				return fmt.Errorf("%w: addresses default", repository.ErrDuplicate)
			}
		}
	}
	newID(&address.BaseModel)
	cp := *address
	m.addresses = append(m.addresses, &cp)
	return nil
}

func (m *memAddresses) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.addresses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memAddresses) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addresses {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAddresses) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

func (m *memAddresses) ListAll(ctx context.Context) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Address, 0, len(m.addresses))
	for _, a := range m.addresses {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAddresses) Save(ctx context.Context, address *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.addresses {
		if a.ID == address.ID {
			cp := *address
			cp.IsDefault = a.IsDefault
			m.addresses[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memAddresses) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, a := range m.addresses {
		if a.UserID != userID {
			continue
		}
		a.IsDefault = a.ID == id
		found = found || a.ID == id
	}
	if !found {
		return repository.ErrNotFound
	}
	return nil
}

func (m *memAddresses) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.addresses {
		if a.ID == id {
			m.addresses = append(m.addresses[:i], m.addresses[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memCategories struct {
	mu         sync.Mutex
	categories []*models.Category
	failCreate error
}

func (m *memCategories) Create(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	newID(&category.BaseModel)
	cp := *category
	m.categories = append(m.categories, &cp)
	return nil
}

func (m *memCategories) List(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCategories) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCategories) FindByName(ctx context.Context, name string, fuzzy bool) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name || (fuzzy && strings.Contains(strings.ToLower(c.Name), strings.ToLower(name))) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCategories) Save(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.categories {
		if c.ID == category.ID {
			cp := *category
			m.categories[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memCategories) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.categories {
		if c.ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memProducts struct {
	mu       sync.Mutex
	products []*models.Product
}

func (m *memProducts) add(p *models.Product) *models.Product {
	_ = m.Create(context.Background(), p)
	return p
}

func (m *memProducts) Create(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == product.Name {
			return repository.ErrDuplicate
		}
	}
	newID(&product.BaseModel)
	cp := *product
	m.products = append(m.products, &cp)
	return nil
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := *p
			cp.Images = append(cp.Images[:0:0], p.Images...)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memProducts) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Product
	for _, p := range m.products {
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		matched = append(matched, *p)
	}
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (m *memProducts) Save(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID != product.ID && p.Name == product.Name {
			return repository.ErrDuplicate
		}
		if p.ID == product.ID {
			cp := *product
			m.products[i] = &cp
		}
	}
	return nil
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type memImages struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	failAfter int
	uploads   int
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}, failAfter: -1}
}

var errUploadFailed = errors.New("upload failed")

func (m *memImages) Upload(ctx context.Context, folder, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.uploads >= m.failAfter {
		return "", errUploadFailed
	}
	m.uploads++
	url := "https://cdn.test/" + folder + "/" + name + ".png"
	m.objects[url] = data
	return url, nil
}

func (m *memImages) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
