package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories/repotest"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/jwt"
	"hospital-directory/internal/pkg/password"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) (*AuthService, *repotest.Users) {
	t.Helper()
	users := repotest.NewUsers()
	svc := NewAuthService(users, jwt.NewManager(testSecret, 7*24*time.Hour), password.NewHasher(bcrypt.MinCost))
	return svc, users
}

func mustSignup(t *testing.T, svc *AuthService, email string, role domain.Role) *domain.PublicUser {
	t.Helper()
	u, err := svc.Signup(context.Background(), &SignupInput{
		Name:            "Test User",
		Email:           email,
		Password:        "p1",
		ConfirmPassword: "p1",
		Role:            string(role),
	})
	require.NoError(t, err)
	return u
}

func storedUser(t *testing.T, users *repotest.Users, id uint) *models.User {
	t.Helper()
	u, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// fakeClock is a settable clock
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingDispatcher keeps every OTP it was asked to send
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []OTPMessage
	err  error
}

func (d *recordingDispatcher) SendOTP(_ context.Context, msg OTPMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *recordingDispatcher) last(t *testing.T) OTPMessage {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent)
	return d.sent[len(d.sent)-1]
}
