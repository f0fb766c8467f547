package sync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// dbOutcome итог выборки изменений на уровне базы данных
type dbOutcome int

const (
	dbUnchanged dbOutcome = iota
	dbZoneChanged
	dbZoneDeleted
)

func (o dbOutcome) String() string {
	switch o {
	case dbZoneChanged:
		return "zone_changed"
	case dbZoneDeleted:
		return "zone_deleted"
	default:
		return "unchanged"
	}
}

// databaseFetcher выясняет, изменилась ли или удалена целевая зона
type databaseFetcher struct {
	store   remote.Store
	state   *stateKeeper
	retrier *retrier
	logger  *slog.Logger
	zone    models.ZoneID
}

// fetch читает страницы изменений базы данных, сохраняя токен каждой страницы.
// Удаление зоны останавливает выборку без сохранения токена этой страницы,
// чтобы удаление было видно и в следующих циклах до явного сброса состояния.
func (f *databaseFetcher) fetch(ctx context.Context) (dbOutcome, error) {
	outcome := dbUnchanged
	restarted := false
	pages := 0

	for {
		since := f.state.snapshot().DatabaseToken

		var page *remote.DatabaseChanges
		err := f.retrier.do(ctx, "fetch database changes", func(ctx context.Context) error {
			var err error
			page, err = f.store.FetchDatabaseChanges(ctx, since)
			return err
		})
		if err != nil {
			if Classify(err).Kind == KindTokenExpired && !restarted {
				restarted = true
				f.logger.Warn("Database change token expired, refetching from scratch", "token", since.Short())
				if err := f.state.setDatabaseToken(ctx, nil, "database token expired"); err != nil {
					return outcome, fmt.Errorf("failed to clear database token: %w", err)
				}
				continue
			}
			return outcome, err
		}
		pages++

		if slices.Contains(page.Deleted, f.zone) {
			f.logger.Warn("Sync zone deleted remotely", "zone", f.zone)
			return dbZoneDeleted, remote.NewError(remote.CodeUserDeletedZone,
				fmt.Sprintf("zone %s was deleted remotely", f.zone))
		}
		if slices.Contains(page.Changed, f.zone) {
			outcome = dbZoneChanged
		}

		// Страница без токена не сдвигает курсор: сброс токена означал бы откат к началу истории
		if page.Token.IsZero() {
			f.logger.Warn("Database changes page without token, keeping previous token", "token", since.Short())
		} else if err := f.state.setDatabaseToken(ctx, page.Token, "database changes page"); err != nil {
			return outcome, fmt.Errorf("failed to save database token: %w", err)
		}

		if !page.MoreComing {
			f.logger.Debug("Database changes fetched", "outcome", outcome, "pages", pages)
			return outcome, nil
		}
	}
}
