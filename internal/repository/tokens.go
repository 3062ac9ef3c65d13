package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/lib/utils"
	"github.com/lossyrob/arturo-stac-api/internal/sqlerr"
	"github.com/rs/zerolog"
)

// TokensRepository stores pagination keysets under opaque uuid tokens.
// Tokens expire after the configured TTL; a cron janitor in the serve
// process purges expired rows.
type TokensRepository struct {
	server *server.Server
	log    *zerolog.Logger
}

func NewTokensRepository(s *server.Server) *TokensRepository {
	return &TokensRepository{server: s, log: s.Logger}
}

// Insert stores a keyset and returns the opaque token handed to the
// client. Tokens are written through the writer pool; they are the
// one thing read requests mutate.
func (r *TokensRepository) Insert(ctx context.Context, ks *Keyset) (string, error) {
	payload, err := json.Marshal(ks)
	if err != nil {
		return "", err
	}

	id := uuid.New()
	expires := time.Now().Add(r.server.Config.TokenTTL)

	_, err = r.server.DB.Writer.Exec(ctx,
		`INSERT INTO search_tokens (id, keyset, expires_at) VALUES ($1, $2, $3)`,
		id, payload, expires)
	if err != nil {
		return "", sqlerr.HandleError(err)
	}
	return id.String(), nil
}

// Get resolves a client token back into its keyset. Unknown, expired
// or malformed tokens are a 400: the client sent a token this server
// never minted or no longer honors.
func (r *TokensRepository) Get(ctx context.Context, token string) (*Keyset, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, invalidTokenError()
	}

	var payload []byte
	err = r.server.DB.Reader.QueryRow(ctx,
		`SELECT keyset FROM search_tokens WHERE id = $1 AND expires_at > now()`,
		id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, invalidTokenError()
	}
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	var ks Keyset
	if err := json.Unmarshal(payload, &ks); err != nil {
		return nil, invalidTokenError()
	}
	return &ks, nil
}

// PurgeExpired deletes expired tokens and reports how many went.
func (r *TokensRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.server.DB.Writer.Exec(ctx,
		`DELETE FROM search_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, sqlerr.HandleError(err)
	}
	return tag.RowsAffected(), nil
}

func invalidTokenError() error {
	return errs.NewBadRequestError("Invalid or expired pagination token", utils.Ptr("INVALID_TOKEN"), nil)
}
