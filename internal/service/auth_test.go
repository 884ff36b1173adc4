package service

import (
	"errors"
	"testing"
	"time"

	"github.com/s/courseMarket/internal/models"
)

func TestRegistrationFlow(t *testing.T) {
	db := setupDB(t)

	hash, err := StartRegistration(db, StartRegistrationInput{
		Email: "new@test.io",
		Name:  "Нурболот",
		Phone: "0700123456",
	})
	if err != nil {
		t.Fatalf("StartRegistration: %v", err)
	}
	if hash == "" {
		t.Fatal("хэш регистрации пустой")
	}

	// Повторная заявка на тот же email отклоняется
	if _, err := StartRegistration(db, StartRegistrationInput{Email: "new@test.io"}); err == nil {
		t.Fatal("повторная заявка должна быть отклонена")
	}

	user, err := CompleteRegistration(db, CompleteRegistrationInput{
		Hash:     hash,
		Password: "secret123",
		City:     "Бишкек",
	})
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}
	// Незаполненные поля берутся из заявки
	if user.Name != "Нурболот" || user.Phone != "0700123456" {
		t.Fatalf("данные заявки не перенесены: %+v", user)
	}
	if user.Role != models.RoleStudent {
		t.Fatalf("роль %q, ожидалась STUDENT", user.Role)
	}
	if user.Token == nil || *user.Token == "" {
		t.Fatal("токен не выдан")
	}

	// Заявка удалена, хэш одноразовый
	if _, err := CompleteRegistration(db, CompleteRegistrationInput{
		Hash:     hash,
		Password: "secret123",
	}); err == nil {
		t.Fatal("повторное использование хэша должно быть отклонено")
	}
}

func TestLoginAndToken(t *testing.T) {
	db := setupDB(t)

	hash, err := StartRegistration(db, StartRegistrationInput{Email: "user@test.io"})
	if err != nil {
		t.Fatalf("StartRegistration: %v", err)
	}
	if _, err := CompleteRegistration(db, CompleteRegistrationInput{
		Hash:     hash,
		Password: "secret123",
	}); err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}

	if _, err := Login(db, "user@test.io", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("неверный пароль: ожидалась ErrInvalidCredentials, получено %v", err)
	}
	if _, err := Login(db, "nobody@test.io", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("неизвестный email: ожидалась ErrInvalidCredentials, получено %v", err)
	}

	user, err := Login(db, "user@test.io", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := UserByToken(db, *user.Token)
	if err != nil {
		t.Fatalf("UserByToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("токен вернул другого пользователя: %d != %d", got.ID, user.ID)
	}

	if err := Logout(db, got); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := UserByToken(db, *user.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("после выхода токен должен быть недействителен, получено: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	db := setupDB(t)

	hash, _ := StartRegistration(db, StartRegistrationInput{Email: "user@test.io"})
	user, err := CompleteRegistration(db, CompleteRegistrationInput{
		Hash:     hash,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}

	// Сдвигаем last_seen за пределы срока жизни токена
	stale := time.Now().Add(-tokenLifetime - time.Hour)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_seen", stale).Error; err != nil {
		t.Fatalf("update last_seen: %v", err)
	}

	if _, err := UserByToken(db, *user.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("просроченный токен должен отклоняться, получено: %v", err)
	}
}

func TestEmptyTokenRejected(t *testing.T) {
	db := setupDB(t)
	if _, err := UserByToken(db, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("пустой токен должен отклоняться, получено: %v", err)
	}
}
