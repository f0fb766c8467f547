package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// zoneChanges полный набор изменений зоны за один прогон
type zoneChanges struct {
	changed []models.Record
	deleted []models.RecordID
}

// zoneFetcher накапливает изменения записей зоны по всем страницам
// и отдаёт их только целиком, после последней страницы.
type zoneFetcher struct {
	store   remote.Store
	state   *stateKeeper
	retrier *retrier
	logger  *slog.Logger
	zone    models.ZoneID
}

type changeAccumulator struct {
	changed map[models.RecordID]models.Record
	deleted map[models.RecordID]struct{}
	order   []models.RecordID
}

func newChangeAccumulator() *changeAccumulator {
	return &changeAccumulator{
		changed: make(map[models.RecordID]models.Record),
		deleted: make(map[models.RecordID]struct{}),
	}
}

func (a *changeAccumulator) add(page *remote.ZoneChanges) {
	for _, rec := range page.Changed {
		if _, seen := a.changed[rec.ID]; !seen {
			if _, wasDeleted := a.deleted[rec.ID]; !wasDeleted {
				a.order = append(a.order, rec.ID)
			}
		}
		delete(a.deleted, rec.ID)
		a.changed[rec.ID] = rec
	}
	for _, id := range page.Deleted {
		if _, seen := a.changed[id]; !seen {
			if _, wasDeleted := a.deleted[id]; !wasDeleted {
				a.order = append(a.order, id)
			}
		}
		delete(a.changed, id)
		a.deleted[id] = struct{}{}
	}
}

func (a *changeAccumulator) result() *zoneChanges {
	res := &zoneChanges{}
	for _, id := range a.order {
		if rec, ok := a.changed[id]; ok {
			res.changed = append(res.changed, rec)
		} else if _, ok := a.deleted[id]; ok {
			res.deleted = append(res.deleted, id)
		}
	}
	return res
}

// fetch читает страницы изменений зоны. Токен каждой страницы сохраняется сразу.
// Устаревший токен сбрасывается, и выборка начинается заново (один раз).
func (f *zoneFetcher) fetch(ctx context.Context) (*zoneChanges, error) {
	acc := newChangeAccumulator()
	restarted := false
	pages := 0

	for {
		since := f.state.snapshot().ZoneToken

		var page *remote.ZoneChanges
		err := f.retrier.do(ctx, "fetch zone changes", func(ctx context.Context) error {
			var err error
			page, err = f.store.FetchZoneChanges(ctx, f.zone, since)
			return err
		})
		if err != nil {
			if Classify(err).Kind == KindTokenExpired && !restarted {
				restarted = true
				f.logger.Warn("Zone change token expired, refetching zone from scratch",
					"zone", f.zone, "token", since.Short())
				if err := f.state.setZoneToken(ctx, nil, "zone token expired"); err != nil {
					return nil, fmt.Errorf("failed to clear zone token: %w", err)
				}
				acc = newChangeAccumulator()
				continue
			}
			return nil, err
		}
		pages++

		for id, rerr := range page.RecordErrors {
			f.logger.Warn("Skipping record that failed to fetch", "zone", f.zone, "record", id, "error", rerr)
		}
		acc.add(page)

		if page.Token.IsZero() {
			f.logger.Warn("Zone changes page without token, keeping previous token", "zone", f.zone, "token", since.Short())
		} else if err := f.state.setZoneToken(ctx, page.Token, "zone changes page"); err != nil {
			return nil, fmt.Errorf("failed to save zone token: %w", err)
		}

		if !page.MoreComing {
			res := acc.result()
			f.logger.Debug("Zone changes fetched",
				"zone", f.zone,
				"pages", pages,
				"changed", len(res.changed),
				"deleted", len(res.deleted),
			)
			return res, nil
		}
	}
}
