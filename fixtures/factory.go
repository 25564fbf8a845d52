package fixtures

import (
	"fmt"
	"strings"

	"usercenter/models"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
)

// UserFactory builds randomized users for development seeding. All fake
// users share one bcrypt hash of the placeholder password, computed once:
// hashing per user makes large fixture loads crawl.
type UserFactory struct {
	faker           *gofakeit.Faker
	placeholderHash string
	sequence        int
}

// NewUserFactory creates a factory. A fixed seed gives reproducible
// fixtures; pass 0 for random output.
func NewUserFactory(seed uint64, placeholderPassword string) (*UserFactory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholderPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing placeholder password: %w", err)
	}
	return &UserFactory{
		faker:           gofakeit.New(seed),
		placeholderHash: string(hash),
	}, nil
}

// Fake produces one unsaved user with randomized name and email. Roughly
// one in eight users comes out inactive so the seeded data exercises the
// active flag. The sequence number keeps emails unique even when the faker
// repeats itself.
func (f *UserFactory) Fake() models.User {
	f.sequence++
	name := f.faker.Name()
	email := fmt.Sprintf("%s.%d@%s",
		strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		f.sequence,
		f.faker.DomainName(),
	)

	return models.User{
		Email:    email,
		Name:     name,
		Password: f.placeholderHash,
		Active:   f.faker.Number(1, 8) != 1,
	}
}
