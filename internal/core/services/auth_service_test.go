package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_StoresHashNotPlaintext(t *testing.T) {
	svc, users := newTestAuth(t)

	a := mustSignup(t, svc, "a@x.com", domain.RoleDoctor)
	b := mustSignup(t, svc, "b@x.com", domain.RolePatient)

	ua := storedUser(t, users, a.ID)
	ub := storedUser(t, users, b.ID)

	assert.NotEqual(t, "p1", ua.Password)
	assert.NotEqual(t, "p1", ub.Password)
	assert.NotEqual(t, ua.Password, ub.Password, "same password must hash with different salts")
}

func TestSignup_DefaultsToPatient(t *testing.T) {
	svc, _ := newTestAuth(t)

	u, err := svc.Signup(context.Background(), &SignupInput{
		Name: "P", Email: "p@x.com", Password: "p1", ConfirmPassword: "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePatient, u.Role)
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestAuth(t)

	tests := []struct {
		name  string
		input SignupInput
		field string
	}{
		{"missing name", SignupInput{Email: "a@x.com", Password: "p", ConfirmPassword: "p"}, "fields"},
		{"missing email", SignupInput{Name: "A", Password: "p", ConfirmPassword: "p"}, "fields"},
		{"missing confirmation", SignupInput{Name: "A", Email: "a@x.com", Password: "p"}, "fields"},
		{"long name", SignupInput{Name: strings.Repeat("n", 101), Email: "a@x.com", Password: "p", ConfirmPassword: "p"}, "name"},
		{"long email", SignupInput{Name: "A", Email: strings.Repeat("e", 250) + "@x.com", Password: "p", ConfirmPassword: "p"}, "email"},
		{"email without at", SignupInput{Name: "A", Email: "ax.com", Password: "p", ConfirmPassword: "p"}, "email"},
		{"mismatch", SignupInput{Name: "A", Email: "a@x.com", Password: "p", ConfirmPassword: "q"}, "confirmPassword"},
		{"unknown role", SignupInput{Name: "A", Email: "a@x.com", Password: "p", ConfirmPassword: "p", Role: "admin"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := svc.Signup(context.Background(), &input)
			require.ErrorIs(t, err, domain.ErrInvalidInput)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSignup_DuplicateEmailAlwaysFails(t *testing.T) {
	svc, _ := newTestAuth(t)
	mustSignup(t, svc, "a@x.com", domain.RoleDoctor)

	for _, in := range []SignupInput{
		{Name: "B", Email: "a@x.com", Password: "other", ConfirmPassword: "other", Role: "patient"},
		{Name: "C", Email: " A@X.com ", Password: "p1", ConfirmPassword: "p1", Role: "doctor"},
	} {
		in := in
		_, err := svc.Signup(context.Background(), &in)
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	}
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	svc, _ := newTestAuth(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Signup(context.Background(), &SignupInput{
				Name: "Racer", Email: "race@x.com", Password: "p1", ConfirmPassword: "p1",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}

func TestSignup_StoreFailureIsWrapped(t *testing.T) {
	svc, users := newTestAuth(t)
	users.Err = errors.New("db down")

	_, err := svc.Signup(context.Background(), &SignupInput{
		Name: "A", Email: "a@x.com", Password: "p1", ConfirmPassword: "p1",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newTestAuth(t)
	u := mustSignup(t, svc, "a@x.com", domain.RoleDoctor)

	res, err := svc.Login(context.Background(), &LoginInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, u, res.User)
	assert.Equal(t, 7*24*time.Hour, res.ExpiresIn)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "doctor", claims.Role)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestAuth(t)
	mustSignup(t, svc, "a@x.com", domain.RolePatient)

	_, err := svc.Login(context.Background(), &LoginInput{Email: "nobody@x.com", Password: "p1"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWhoAmI(t *testing.T) {
	svc, users := newTestAuth(t)
	u := mustSignup(t, svc, "a@x.com", domain.RoleDoctor)

	res, err := svc.Login(context.Background(), &LoginInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	me, err := svc.WhoAmI(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
	assert.Equal(t, domain.RoleDoctor, me.Role)

	_, err = svc.WhoAmI(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.WhoAmI(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	users.Delete(u.ID)
	_, err = svc.WhoAmI(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWhoAmI_ExpiredToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	u := mustSignup(t, svc, "a@x.com", domain.RolePatient)

	past := time.Now().Add(-8 * 24 * time.Hour)
	stale, err := jwt.NewManager(testSecret, 7*24*time.Hour).
		WithClock(func() time.Time { return past }).
		Issue(u.ID, string(u.Role))
	require.NoError(t, err)

	_, err = svc.WhoAmI(context.Background(), stale)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
