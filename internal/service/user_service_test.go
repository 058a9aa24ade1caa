package service

import (
	"errors"
	"testing"

	"doc-chat-go/internal/model"
	"doc-chat-go/pkg/token"

	"gorm.io/gorm"
)

type memUserRepo struct {
	users  map[string]*model.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (m *memUserRepo) Create(user *model.User) error {
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = user
	return nil
}
func (m *memUserRepo) FindByUsername(username string) (*model.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}
func (m *memUserRepo) FindByID(userID uint) (*model.User, error) {
	for _, user := range m.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newUserFixture() UserService {
	jwt := token.NewJWTManager("test-secret", 1, 1)
	return NewUserService(newMemUserRepo(), jwt)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserFixture()

	user, err := svc.Register("alice", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Password == "password123" {
		t.Fatal("password must not be stored in plaintext")
	}

	pair, loggedIn, err := svc.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login returned wrong user: %d", loggedIn.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login must issue both tokens")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newUserFixture()
	if _, err := svc.Register("bob", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Register("bob", "otherpassword"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newUserFixture()
	if _, err := svc.Register("carol", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, _, err := svc.Login("carol", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login("nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	svc := newUserFixture()
	if _, err := svc.Register("dave", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	pair, _, err := svc.Login("dave", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	renewed, err := svc.RefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if renewed.AccessToken == "" || renewed.RefreshToken == "" {
		t.Fatal("refresh must issue a new token pair")
	}

	if _, err := svc.RefreshToken("not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for garbage token, got %v", err)
	}
}
