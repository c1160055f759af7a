package repo

import (
	"context"
	"fmt"
	"strconv"

	"CulturalDayBot/model"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

const sessionsPath = "sessions"

// FirebaseConnector struct to hold Firebase client and database reference
type FirebaseConnector struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseConnector creates a new Firebase connector
func NewFirebaseConnector(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseConnector, error) {
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseConnector{
		app:    app,
		client: client,
	}, nil
}

func (fc *FirebaseConnector) sessionRef(chatID int64) *db.Ref {
	return fc.client.NewRef(sessionsPath).Child(strconv.FormatInt(chatID, 10))
}

// ReadSession reads a chat's session from Firebase
func (fc *FirebaseConnector) ReadSession(ctx context.Context, chatID int64) (*model.UserState, error) {
	var state *model.UserState
	if err := fc.sessionRef(chatID).Get(ctx, &state); err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}
	if state == nil {
		return nil, model.ErrSessionDoesNotExist
	}
	return state, nil
}

// SaveSession overwrites a chat's session in Firebase
func (fc *FirebaseConnector) SaveSession(ctx context.Context, state model.UserState) error {
	if err := fc.sessionRef(state.ChatID).Set(ctx, state); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

// DeleteSession deletes a chat's session from Firebase
func (fc *FirebaseConnector) DeleteSession(ctx context.Context, chatID int64) error {
	if err := fc.sessionRef(chatID).Delete(ctx); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}
