package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"time"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/uow"
	"innkeep/internal/domain/shared/faults"
)

// IdempotentCommand must be implemented by commands that want key-based
// dedupe. RequestPayload returns the client-visible payload only, so the
// fingerprint is stable across retries that regenerate internal ids.
type IdempotentCommand interface {
	commands.Command
	TenantID() string
	IdempotencyKey() string
	RequestPayload() any
	ResultPrototype() any
	SuccessStatus() int
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency wraps mutating commands with tuple-keyed dedupe. It runs
// inside the transaction middleware so the record commits atomically
// with the command's own writes: a rolled-back command never consumes
// its key.
func Idempotency(ttl time.Duration) CommandMiddleware {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			unit, ok := uow.FromContext(ctx)
			if !ok {
				return nil, uow.ErrUnitOfWorkMissing
			}
			hash, err := fingerprint(idCmd.RequestPayload())
			if err != nil {
				return nil, err
			}
			store := unit.Idempotency()
			rec, err := store.Find(ctx, idCmd.TenantID(), idCmd.Key(), http.MethodPost, idCmd.IdempotencyKey())
			if err != nil {
				return nil, err
			}
			if rec != nil && rec.ExpiresAt.After(time.Now().UTC()) {
				if rec.RequestHash != hash {
					return nil, &faults.IdempotencyConflictError{Key: idCmd.IdempotencyKey()}
				}
				return replay(idCmd, rec.ResponseBody)
			}
			result, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			body, err := json.Marshal(result)
			if err != nil {
				return nil, err
			}
			record := &uow.IdempotencyRecord{
				TenantID:       idCmd.TenantID(),
				Endpoint:       idCmd.Key(),
				Method:         http.MethodPost,
				Key:            idCmd.IdempotencyKey(),
				RequestHash:    hash,
				ResponseStatus: idCmd.SuccessStatus(),
				ResponseBody:   body,
				ExpiresAt:      time.Now().UTC().Add(ttl),
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func fingerprint(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func replay(cmd IdempotentCommand, body []byte) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := json.Unmarshal(body, proto); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface(), nil
	}
	return proto, nil
}
