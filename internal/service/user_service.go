package service

import (
	"context"
	"strings"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
)

type ProfileInput struct {
	Name    string
	Phone   string
	Address string
	Bank    string
	Account string
	School  string
}

type UserService interface {
	Get(ctx context.Context, uid string) (*model.User, error)
	UpdateProfile(ctx context.Context, uid string, in ProfileInput) (*model.User, error)
}

type userService struct {
	store repository.Store
}

func NewUserService(store repository.Store) UserService {
	return &userService{store: store}
}

func (s *userService) Get(ctx context.Context, uid string) (*model.User, error) {
	if uid == "" {
		return nil, validationf("uid is required")
	}
	u, err := s.store.Users().FindByUID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, uid string, in ProfileInput) (*model.User, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 64 {
		return nil, validationf("invalid name")
	}
	u := &model.User{
		UID:     uid,
		Name:    name,
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Bank:    strings.TrimSpace(in.Bank),
		Account: strings.TrimSpace(in.Account),
		School:  strings.TrimSpace(in.School),
	}
	if err := s.store.Users().Upsert(ctx, u); err != nil {
		return nil, storeErr(err, "save profile")
	}
	return u, nil
}
