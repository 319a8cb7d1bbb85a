package middleware

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/yourusername/screening-api/internal/model"
	"google.golang.org/api/option"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens; accounts are matched by email
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier creates a verifier for the given Firebase project
func NewFirebaseVerifier(ctx context.Context, projectID string) (*FirebaseVerifier, error) {
	var app *firebase.App
	var err error

	if projectID != "" {
		conf := &firebase.Config{ProjectID: projectID}
		app, err = firebase.NewApp(ctx, conf)
	} else {
		// Falls back to GOOGLE_APPLICATION_CREDENTIALS or default credentials
		app, err = firebase.NewApp(ctx, nil, option.WithoutAuthentication())
	}
	if err != nil {
		return nil, fmt.Errorf("initializing Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing Firebase auth: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (*model.Principal, error) {
	t, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	email, _ := t.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("firebase token has no email claim")
	}
	return &model.Principal{Email: email}, nil
}
