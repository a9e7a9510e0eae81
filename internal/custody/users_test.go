package custody_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"custody-go/internal/custody"
	"custody-go/internal/database/sqlc"
	"custody-go/internal/testutil"
)

func TestCustodyService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and looks up a user", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		user, err := env.Service.CreateUser(ctx, custody.NewUser{Email: " alice@example.com ", Name: "Alice", NIC: "199012345678", Role: custody.RoleUser})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("Email = %q, want trimmed address", user.Email)
		}
		if user.Anonymous {
			t.Error("Anonymous = true, want false")
		}

		lookups := map[string]func() (string, error){
			"by id": func() (string, error) {
				u, err := env.Service.GetUserByID(ctx, user.ID)
				return idOf(u), err
			},
			"by email": func() (string, error) {
				u, err := env.Service.GetUserByEmail(ctx, "alice@example.com")
				return idOf(u), err
			},
			"by name": func() (string, error) {
				u, err := env.Service.GetUserByName(ctx, "Alice")
				return idOf(u), err
			},
			"by nic": func() (string, error) {
				u, err := env.Service.GetUserByNIC(ctx, "199012345678")
				return idOf(u), err
			},
		}
		for name, lookup := range lookups {
			t.Run(name, func(t *testing.T) {
				id, err := lookup()
				if err != nil {
					t.Fatalf("lookup error = %v", err)
				}
				if id != user.ID {
					t.Errorf("lookup id = %s, want %s", id, user.ID)
				}
			})
		}
	})

	t.Run("rejects a second registration", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		mustUser(t, env, "alice@example.com")
		_, err := env.Service.CreateUser(ctx, custody.NewUser{Email: "alice@example.com"})
		if !errors.Is(err, custody.ErrUserExists) {
			t.Errorf("CreateUser() error = %v, want ErrUserExists", err)
		}
	})

	t.Run("rejects an empty email", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		_, err := env.Service.CreateUser(ctx, custody.NewUser{Email: "  "})
		if !errors.Is(err, custody.ErrInvalidArgument) {
			t.Errorf("CreateUser() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("promotes an anonymous grantee and keeps the grant", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		col := mustNotes(t, env, owner)

		if err := env.Service.AddPermission(ctx, owner, col.ID, "guest@example.com", custody.PermissionRead); err != nil {
			t.Fatalf("AddPermission() error = %v", err)
		}
		anon, err := env.Service.GetUserByEmail(ctx, "guest@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if !anon.Anonymous {
			t.Fatal("grantee should start anonymous")
		}

		guest := mustUser(t, env, "guest@example.com")
		if guest.ID != anon.ID {
			t.Errorf("promoted user id = %s, want %s", guest.ID, anon.ID)
		}
		if guest.Anonymous {
			t.Error("promoted user still anonymous")
		}
		ok, err := env.Service.CanRead(ctx, col, guest)
		if err != nil {
			t.Fatalf("CanRead() error = %v", err)
		}
		if !ok {
			t.Error("promoted user lost the read grant")
		}
	})

	t.Run("missing user", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		if _, err := env.Service.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, custody.ErrNotFound) {
			t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
		}
	})
}

func TestCustodyService_CreateAnonymousUser(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)

	first, err := env.Service.CreateAnonymousUser(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("CreateAnonymousUser() error = %v", err)
	}
	second, err := env.Service.CreateAnonymousUser(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("CreateAnonymousUser() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second call created a new user %s, want %s", second.ID, first.ID)
	}

	registered := mustUser(t, env, "y@example.com")
	got, err := env.Service.CreateAnonymousUser(ctx, "y@example.com")
	if err != nil {
		t.Fatalf("CreateAnonymousUser() error = %v", err)
	}
	if got.ID != registered.ID || got.Anonymous {
		t.Errorf("CreateAnonymousUser() = %+v, want the registered user", got)
	}
}

func TestCustodyService_IdentityLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("register then login", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		env.Identity.Add("tok-1", "198001011234", "Bob Builder")

		user, err := env.Service.RegisterWithIdentity(ctx, "tok-1", "bob@example.com")
		if err != nil {
			t.Fatalf("RegisterWithIdentity() error = %v", err)
		}
		if user.Nic.String != "198001011234" || user.Name.String != "Bob Builder" {
			t.Errorf("registered user = %+v, want identity fields", user)
		}

		got, err := env.Service.LoginWithIdentity(ctx, "tok-1")
		if err != nil {
			t.Fatalf("LoginWithIdentity() error = %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("LoginWithIdentity() id = %s, want %s", got.ID, user.ID)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		if _, err := env.Service.LoginWithIdentity(ctx, "bogus"); !errors.Is(err, custody.ErrAuthentication) {
			t.Errorf("LoginWithIdentity() error = %v, want ErrAuthentication", err)
		}
	})

	t.Run("identity without account", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		env.Identity.Add("tok-2", "197001019999", "Carol")
		_, err := env.Service.LoginWithIdentity(ctx, "tok-2")
		if !errors.Is(err, custody.ErrAuthentication) || !errors.Is(err, custody.ErrNotFound) {
			t.Errorf("LoginWithIdentity() error = %v, want ErrAuthentication wrapping ErrNotFound", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		svc := custody.NewCustodyService(nil, nil, nil, nil, custody.NewNopLogger(), custody.RealClock{}, custody.UUIDGenerator{})
		if _, err := svc.LoginWithIdentity(ctx, "tok"); !errors.Is(err, custody.ErrAuthentication) {
			t.Errorf("LoginWithIdentity() error = %v, want ErrAuthentication", err)
		}
	})
}

func TestCustodyService_SetUserToken(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)
	user := mustUser(t, env, "alice@example.com")

	if err := env.Service.SetUserToken(ctx, user, "bearer-1"); err != nil {
		t.Fatalf("SetUserToken() error = %v", err)
	}
	got, err := env.Service.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Token.String != "bearer-1" {
		t.Errorf("Token = %q, want %q", got.Token.String, "bearer-1")
	}
}

func TestCustodyService_CorrespondentNaming(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)
	owner := mustUser(t, env, "owner@example.com")
	mustNotes(t, env, owner)

	got, err := env.Service.GetUserByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !got.ExternalID.Valid || got.ExternalID.String == "" {
		t.Error("owner was not registered as a correspondent")
	}
}

func TestCustodyService_VerifyPassword(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)

	alice, err := env.Service.CreateUser(ctx, custody.NewUser{Email: "alice@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if !alice.PasswordHash.Valid || alice.PasswordHash.String == "password123" {
		t.Fatalf("PasswordHash = %+v, want a bcrypt hash", alice.PasswordHash)
	}
	mustUser(t, env, "nopass@example.com")
	if _, err := env.Service.CreateAnonymousUser(ctx, "guest@example.com"); err != nil {
		t.Fatalf("CreateAnonymousUser() error = %v", err)
	}

	got, err := env.Service.VerifyPassword(ctx, " alice@example.com ", "password123")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if got.ID != alice.ID {
		t.Errorf("VerifyPassword() = %s, want %s", got.ID, alice.ID)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "alice@example.com", password: "password124"},
		{name: "empty password", email: "alice@example.com", password: ""},
		{name: "unknown email", email: "mallory@example.com", password: "password123"},
		{name: "account without password", email: "nopass@example.com", password: ""},
		{name: "anonymous user", email: "guest@example.com", password: "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.Service.VerifyPassword(ctx, tt.email, tt.password); !errors.Is(err, custody.ErrAuthentication) {
				t.Errorf("VerifyPassword(%s) error = %v, want ErrAuthentication", tt.email, err)
			}
		})
	}
}

func TestCustodyService_SetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the password", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		user, err := env.Service.CreateUser(ctx, custody.NewUser{Email: "alice@example.com", Password: "old-secret"})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		if err := env.Service.SetPassword(ctx, user, "new-secret"); err != nil {
			t.Fatalf("SetPassword() error = %v", err)
		}
		if _, err := env.Service.VerifyPassword(ctx, "alice@example.com", "old-secret"); !errors.Is(err, custody.ErrAuthentication) {
			t.Errorf("old password error = %v, want ErrAuthentication", err)
		}
		if _, err := env.Service.VerifyPassword(ctx, "alice@example.com", "new-secret"); err != nil {
			t.Errorf("new password error = %v", err)
		}
	})

	t.Run("promoting an anonymous user sets its password", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		if _, err := env.Service.CreateAnonymousUser(ctx, "guest@example.com"); err != nil {
			t.Fatalf("CreateAnonymousUser() error = %v", err)
		}
		if _, err := env.Service.CreateUser(ctx, custody.NewUser{Email: "guest@example.com", Password: "welcome"}); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		if _, err := env.Service.VerifyPassword(ctx, "guest@example.com", "welcome"); err != nil {
			t.Errorf("VerifyPassword() after promotion error = %v", err)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		user := mustUser(t, env, "alice@example.com")
		anon, _ := env.Service.CreateAnonymousUser(ctx, "guest@example.com")

		tests := []struct {
			name     string
			user     *sqlc.User
			password string
			want     error
		}{
			{name: "empty", user: user, password: "", want: custody.ErrInvalidArgument},
			{name: "over 72 bytes", user: user, password: strings.Repeat("x", 73), want: custody.ErrInvalidArgument},
			{name: "anonymous", user: anon, password: "secret", want: custody.ErrInvalidArgument},
			{name: "nil user", user: nil, password: "secret", want: custody.ErrIntegrity},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := env.Service.SetPassword(ctx, tt.user, tt.password); !errors.Is(err, tt.want) {
					t.Errorf("SetPassword() error = %v, want %v", err, tt.want)
				}
			})
		}
	})
}
