package auth

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/kt-primus/einsatzplanung/config"
)

// FirebaseClients bundles the clients created from one Admin SDK app.
type FirebaseClients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	// Toolkit is nil when no web API key is configured; password sign-in is
	// then unavailable and clients must post an ID token instead.
	Toolkit *identitytoolkit.Service
}

// InitializeFirebase initializes the Firebase Admin SDK and the clients the
// service needs.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseClients, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	clients := &FirebaseClients{Auth: authClient, Firestore: fsClient}
	if cfg.WebAPIKey != "" {
		toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.WebAPIKey))
		if err != nil {
			_ = fsClient.Close()
			return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
		}
		clients.Toolkit = toolkit
	}
	return clients, nil
}

func (f *FirebaseClients) Close() error {
	if f == nil || f.Firestore == nil {
		return nil
	}
	return f.Firestore.Close()
}
