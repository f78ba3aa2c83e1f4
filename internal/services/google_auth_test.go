package services

import (
	"context"
	"testing"

	"google.golang.org/api/idtoken"

	"github.com/cookclip/cookclip-backend/internal/repos"
)

func TestIdentityFromPayload(t *testing.T) {
	valid := &idtoken.Payload{
		Issuer:  "https://accounts.google.com",
		Subject: "google-sub-123",
		Claims: map[string]interface{}{
			"email":          "Cook@Example.com",
			"email_verified": true,
		},
	}

	identity, err := identityFromPayload(valid)
	if err != nil {
		t.Fatalf("identityFromPayload failed: %v", err)
	}
	if identity.Email != "cook@example.com" {
		t.Fatalf("email not normalized: %q", identity.Email)
	}
	if identity.Sub != "google-sub-123" {
		t.Fatalf("unexpected sub %q", identity.Sub)
	}

	cases := []struct {
		name   string
		mutate func(*idtoken.Payload)
	}{
		{name: "wrong issuer", mutate: func(p *idtoken.Payload) { p.Issuer = "https://evil.example.com" }},
		{name: "unverified email", mutate: func(p *idtoken.Payload) { p.Claims["email_verified"] = false }},
		{name: "missing email", mutate: func(p *idtoken.Payload) { delete(p.Claims, "email") }},
		{name: "missing subject", mutate: func(p *idtoken.Payload) { p.Subject = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &idtoken.Payload{
				Issuer:  valid.Issuer,
				Subject: valid.Subject,
				Claims: map[string]interface{}{
					"email":          "cook@example.com",
					"email_verified": true,
				},
			}
			tc.mutate(p)
			if _, err := identityFromPayload(p); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestGetOrCreateUser(t *testing.T) {
	gdb := testDB(t)
	log := testLogger(t)
	userRepo := repos.NewUserRepo(gdb, log)
	svc := &googleAuthService{
		db:       gdb,
		log:      log.With("service", "GoogleAuthService"),
		userRepo: userRepo,
	}

	// Fresh identity creates a google-provider user.
	created, err := svc.getOrCreateUser(context.Background(), &googleIdentity{Sub: "sub-1", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("getOrCreateUser failed: %v", err)
	}
	if created.AuthProvider != AuthProviderGoogle {
		t.Fatalf("unexpected provider %q", created.AuthProvider)
	}
	if created.GoogleID == nil || *created.GoogleID != "sub-1" {
		t.Fatal("google id not set on created user")
	}

	// Same identity again resolves to the same record.
	again, err := svc.getOrCreateUser(context.Background(), &googleIdentity{Sub: "sub-1", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("getOrCreateUser failed: %v", err)
	}
	if again.ID != created.ID {
		t.Fatal("lookup by google id created a duplicate")
	}

	// A password account with a matching verified email gets linked.
	existing := seedUser(t, gdb, "linked@example.com")
	linked, err := svc.getOrCreateUser(context.Background(), &googleIdentity{Sub: "sub-2", Email: "linked@example.com"})
	if err != nil {
		t.Fatalf("getOrCreateUser failed: %v", err)
	}
	if linked.ID != existing.ID {
		t.Fatal("linking created a new user instead of reusing the email match")
	}
	if linked.GoogleID == nil || *linked.GoogleID != "sub-2" {
		t.Fatal("google id not linked onto existing user")
	}
	if linked.AuthProvider != AuthProviderEmail+","+AuthProviderGoogle {
		t.Fatalf("unexpected provider after link: %q", linked.AuthProvider)
	}
}
