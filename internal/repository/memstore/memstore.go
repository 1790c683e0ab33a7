// Package memstore is an in-memory repository.Store. It backs local runs with
// STORE_DRIVER=memory and the service tests. Transactions work on a copy of the
// data that replaces the live set only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
)

// Hook is consulted before every operation; a non-nil error aborts it.
// op is "<Repository>.<Method>", id is the primary key involved (0 if none).
type Hook func(op string, id uint64) error

type data struct {
	purchases map[uint64]model.Purchase
	artworks  map[uint64]model.Artwork
	pictures  []model.ArtworkPicture
	users     map[string]model.User
	likes     []model.ArtworkLike
	displays  map[uint64]model.Display
	contents  []model.DisplayContent
	seq       uint64
}

func newData() *data {
	return &data{
		purchases: map[uint64]model.Purchase{},
		artworks:  map[uint64]model.Artwork{},
		users:     map[string]model.User{},
		displays:  map[uint64]model.Display{},
	}
}

func (d *data) clone() *data {
	c := &data{
		purchases: make(map[uint64]model.Purchase, len(d.purchases)),
		artworks:  make(map[uint64]model.Artwork, len(d.artworks)),
		pictures:  append([]model.ArtworkPicture(nil), d.pictures...),
		users:     make(map[string]model.User, len(d.users)),
		likes:     append([]model.ArtworkLike(nil), d.likes...),
		displays:  make(map[uint64]model.Display, len(d.displays)),
		contents:  append([]model.DisplayContent(nil), d.contents...),
		seq:       d.seq,
	}
	for k, v := range d.purchases {
		c.purchases[k] = v
	}
	for k, v := range d.artworks {
		c.artworks[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.displays {
		c.displays[k] = v
	}
	return c
}

func (d *data) nextID() uint64 {
	d.seq++
	return d.seq
}

type root struct {
	mu   sync.Mutex
	data *data
	hook Hook
	now  func() time.Time
}

// Store implements repository.Store.
type Store struct {
	root *root
	tx   *data
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{root: &root{data: newData(), now: time.Now}}
}

// SetHook installs a failure injector; pass nil to remove it.
func (s *Store) SetHook(h Hook) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.hook = h
}

// view runs fn against the transaction copy, or the live data under the lock.
func (s *Store) view(op string, id uint64, fn func(d *data) error) error {
	if s.tx != nil {
		if err := s.check(op, id); err != nil {
			return err
		}
		return fn(s.tx)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if err := s.check(op, id); err != nil {
		return err
	}
	return fn(s.root.data)
}

func (s *Store) check(op string, id uint64) error {
	if s.root.hook == nil {
		return nil
	}
	return s.root.hook(op, id)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	work := s.root.data.clone()
	if err := fn(&Store{root: s.root, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.root.data = work
	return nil
}

func (s *Store) Purchases() repository.PurchaseRepository { return purchases{s} }
func (s *Store) Artworks() repository.ArtworkRepository   { return artworks{s} }
func (s *Store) Users() repository.UserRepository         { return users{s} }
func (s *Store) Likes() repository.LikeRepository         { return likes{s} }
func (s *Store) Displays() repository.DisplayRepository   { return displays{s} }

type purchases struct{ s *Store }

func (r purchases) Create(ctx context.Context, p *model.Purchase) error {
	return r.s.view("Purchases.Create", 0, func(d *data) error {
		p.ID = d.nextID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.s.root.now()
		}
		p.UpdatedAt = p.CreatedAt
		d.purchases[p.ID] = *p
		return nil
	})
}

func (r purchases) FindByID(ctx context.Context, id uint64) (*model.Purchase, error) {
	var out *model.Purchase
	err := r.s.view("Purchases.FindByID", id, func(d *data) error {
		p, ok := d.purchases[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no row lock here: a transaction holds the store
// lock for its whole duration.
func (r purchases) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Purchase, error) {
	var out *model.Purchase
	err := r.s.view("Purchases.FindByIDForUpdate", id, func(d *data) error {
		p, ok := d.purchases[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r purchases) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Purchase, error) {
	return r.filter("Purchases.ListByBuyer", func(p model.Purchase) bool { return p.BuyerUID == buyerUID })
}

func (r purchases) ListBySeller(ctx context.Context, sellerUID string) ([]model.Purchase, error) {
	return r.filter("Purchases.ListBySeller", func(p model.Purchase) bool { return p.SellerUID == sellerUID })
}

func (r purchases) ListByStates(ctx context.Context, states []int) ([]model.Purchase, error) {
	want := make(map[int]bool, len(states))
	for _, st := range states {
		want[st] = true
	}
	return r.filter("Purchases.ListByStates", func(p model.Purchase) bool { return want[p.State] })
}

func (r purchases) filter(op string, keep func(model.Purchase) bool) ([]model.Purchase, error) {
	var list []model.Purchase
	err := r.s.view(op, 0, func(d *data) error {
		for _, p := range d.purchases {
			if keep(p) {
				list = append(list, p)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, err
}

func (r purchases) UpdateState(ctx context.Context, id uint64, state int) error {
	return r.update("Purchases.UpdateState", id, func(p *model.Purchase) { p.State = state })
}

func (r purchases) UpdateComment(ctx context.Context, id uint64, comment string) error {
	return r.update("Purchases.UpdateComment", id, func(p *model.Purchase) { p.Comment = comment })
}

func (r purchases) update(op string, id uint64, mutate func(*model.Purchase)) error {
	return r.s.view(op, id, func(d *data) error {
		p, ok := d.purchases[id]
		if !ok {
			return nil
		}
		mutate(&p)
		p.UpdatedAt = r.s.root.now()
		d.purchases[id] = p
		return nil
	})
}

func (r purchases) Delete(ctx context.Context, id uint64) error {
	return r.s.view("Purchases.Delete", id, func(d *data) error {
		if _, ok := d.purchases[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.purchases, id)
		return nil
	})
}

type artworks struct{ s *Store }

func (r artworks) Create(ctx context.Context, a *model.Artwork) error {
	return r.s.view("Artworks.Create", 0, func(d *data) error {
		a.ID = d.nextID()
		a.CreatedAt = r.s.root.now()
		a.UpdatedAt = a.CreatedAt
		d.artworks[a.ID] = *a
		return nil
	})
}

func (r artworks) FindByID(ctx context.Context, id uint64) (*model.Artwork, error) {
	var out *model.Artwork
	err := r.s.view("Artworks.FindByID", id, func(d *data) error {
		a, ok := d.artworks[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r artworks) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Artwork, error) {
	var out *model.Artwork
	err := r.s.view("Artworks.FindByIDForUpdate", id, func(d *data) error {
		a, ok := d.artworks[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r artworks) UpdatePurchaseState(ctx context.Context, id uint64, state model.Availability) error {
	return r.s.view("Artworks.UpdatePurchaseState", id, func(d *data) error {
		a, ok := d.artworks[id]
		if !ok {
			return nil
		}
		a.PurchaseState = state
		d.artworks[id] = a
		return nil
	})
}

func (r artworks) AddLikeCount(ctx context.Context, id uint64, delta int64) error {
	return r.s.view("Artworks.AddLikeCount", id, func(d *data) error {
		a, ok := d.artworks[id]
		if !ok || a.LikeCount+delta < 0 {
			return repository.ErrNotFound
		}
		a.LikeCount += delta
		d.artworks[id] = a
		return nil
	})
}

func (r artworks) AddPicture(ctx context.Context, pic *model.ArtworkPicture) error {
	return r.s.view("Artworks.AddPicture", pic.ArtworkID, func(d *data) error {
		pic.ID = d.nextID()
		pic.CreatedAt = r.s.root.now()
		d.pictures = append(d.pictures, *pic)
		return nil
	})
}

func (r artworks) FindPicture(ctx context.Context, artworkID uint64) (*model.ArtworkPicture, error) {
	var out *model.ArtworkPicture
	err := r.s.view("Artworks.FindPicture", artworkID, func(d *data) error {
		for _, pic := range d.pictures {
			if pic.ArtworkID == artworkID {
				p := pic
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

type users struct{ s *Store }

func (r users) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	var out *model.User
	err := r.s.view("Users.FindByUID", 0, func(d *data) error {
		u, ok := d.users[uid]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r users) Upsert(ctx context.Context, u *model.User) error {
	return r.s.view("Users.Upsert", 0, func(d *data) error {
		now := r.s.root.now()
		if prev, ok := d.users[u.UID]; ok {
			u.CreatedAt = prev.CreatedAt
		} else {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		d.users[u.UID] = *u
		return nil
	})
}

type likes struct{ s *Store }

func (r likes) Find(ctx context.Context, userUID string, artworkID uint64) (*model.ArtworkLike, error) {
	var out *model.ArtworkLike
	err := r.s.view("Likes.Find", artworkID, func(d *data) error {
		for _, l := range d.likes {
			if l.UserUID == userUID && l.ArtworkID == artworkID {
				found := l
				out = &found
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r likes) Create(ctx context.Context, like *model.ArtworkLike) error {
	return r.s.view("Likes.Create", like.ArtworkID, func(d *data) error {
		for _, l := range d.likes {
			if l.UserUID == like.UserUID && l.ArtworkID == like.ArtworkID {
				return repository.ErrDuplicate
			}
		}
		like.ID = d.nextID()
		like.CreatedAt = r.s.root.now()
		d.likes = append(d.likes, *like)
		return nil
	})
}

func (r likes) Delete(ctx context.Context, userUID string, artworkID uint64) error {
	return r.s.view("Likes.Delete", artworkID, func(d *data) error {
		for i, l := range d.likes {
			if l.UserUID == userUID && l.ArtworkID == artworkID {
				d.likes = append(d.likes[:i:i], d.likes[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (r likes) ListByArtwork(ctx context.Context, artworkID uint64) ([]model.ArtworkLike, error) {
	var list []model.ArtworkLike
	err := r.s.view("Likes.ListByArtwork", artworkID, func(d *data) error {
		for i := len(d.likes) - 1; i >= 0; i-- {
			if d.likes[i].ArtworkID == artworkID {
				list = append(list, d.likes[i])
			}
		}
		return nil
	})
	return list, err
}

type displays struct{ s *Store }

func (r displays) Create(ctx context.Context, dp *model.Display) error {
	return r.s.view("Displays.Create", 0, func(d *data) error {
		dp.ID = d.nextID()
		dp.CreatedAt = r.s.root.now()
		d.displays[dp.ID] = *dp
		return nil
	})
}

func (r displays) ListAcceptingAt(ctx context.Context, at time.Time) ([]model.Display, error) {
	var list []model.Display
	err := r.s.view("Displays.ListAcceptingAt", 0, func(d *data) error {
		for _, dp := range d.displays {
			if dp.AcceptsApplications(at) {
				list = append(list, dp)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

func (r displays) FindContent(ctx context.Context, userUID string, displayID uint64) (*model.DisplayContent, error) {
	var out *model.DisplayContent
	err := r.s.view("Displays.FindContent", displayID, func(d *data) error {
		for _, dc := range d.contents {
			if dc.UserUID == userUID && dc.DisplayID == displayID {
				found := dc
				out = &found
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r displays) CreateContent(ctx context.Context, dc *model.DisplayContent) error {
	return r.s.view("Displays.CreateContent", dc.DisplayID, func(d *data) error {
		dc.ID = d.nextID()
		if dc.CreatedAt.IsZero() {
			dc.CreatedAt = r.s.root.now()
		}
		d.contents = append(d.contents, *dc)
		return nil
	})
}
