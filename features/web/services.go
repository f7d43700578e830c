package web

import (
	"errors"

	"phishcheck/features/classification"
	"phishcheck/features/dataset"
)

var ErrNilStore = errors.New("dataset store is nil")

type Services struct {
	Store          *dataset.Store
	Classification *classification.Service
}

func NewServices(store *dataset.Store) (*Services, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	return &Services{
		Store:          store,
		Classification: classification.NewService(store),
	}, nil
}
