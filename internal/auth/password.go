package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (h *AuthHandler) bcryptCost() int {
	if h.cfg.BcryptCost < bcrypt.MinCost || h.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.cfg.BcryptCost
}

func (h *AuthHandler) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnComparison spends the same effort as a real password check so that
// unknown usernames are not distinguishable by response time.
func (h *AuthHandler) burnComparison(password string) {
	h.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), h.bcryptCost())
		if err == nil {
			h.dummyHash = string(hash)
		}
	})
	if h.dummyHash != "" {
		_ = bcrypt.CompareHashAndPassword([]byte(h.dummyHash), []byte(password))
	}
}
