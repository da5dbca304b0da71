//go:build !integration

package usecase

import "golang.org/x/crypto/bcrypt"

func init() {
	passwordCost = bcrypt.MinCost
}
