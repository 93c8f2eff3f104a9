package repo

import (
	"errors"

	"gorm.io/gorm"
)

var ErrUserAlreadyExist = errors.New("user already exist")
var ErrUserNotFound = errors.New("user not found")

type GormRepo struct {
	DB *gorm.DB
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
