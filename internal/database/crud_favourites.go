// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// CreateFavourite marks an item or collection as a favourite of one user.
// Items must be live; collections must belong to the requesting user.
func (s *Store) CreateFavourite(ctx context.Context, req models.CreateFavouriteRequest) (*models.FavouriteView, error) {
	fav := models.Favourite{
		ID:          uuid.New(),
		User:        req.User,
		CreatedTime: s.now(),
	}
	view := models.FavouriteView{ID: req.ID, Type: string(req.Type)}

	switch req.Type {
	case models.FavouriteItem:
		bundle, err := s.GetItem(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if bundle.Item.Type == models.TypeNameFolder {
			return nil, models.BadRequest("Cannot favourite an item of type name_folder")
		}
		if bundle.Item.Status != models.StatusActive {
			return nil, models.BadRequest("only active items can be favourited")
		}
		id := req.ID
		fav.ItemID = &id
		display, err := itemDisplayPath(&bundle.Item, s.zones.Greenroom)
		if err != nil {
			return nil, err
		}
		view.Name = bundle.Item.Name
		view.DisplayPath = display
	case models.FavouriteCollection:
		collection, err := s.GetCollection(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if collection.Owner != req.User {
			return nil, models.Forbidden("collection %s does not belong to user %s", req.ID, req.User)
		}
		id := req.ID
		fav.CollectionID = &id
		view.Name = collection.Name
		view.DisplayPath = collection.Name
	default:
		return nil, models.BadRequest("invalid favourite type %q", req.Type)
	}

	query := s.rebind(`INSERT INTO favourites (id, "user", item_id, collection_id, pinned, created_time)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, fav.ID, fav.User, fav.ItemID, fav.CollectionID, fav.Pinned, fav.CreatedTime); err != nil {
		return nil, conflictErr(err, "%s %s is already a favourite", req.Type, req.ID)
	}
	return &view, nil
}

// itemDisplayPath renders the human-readable location of an item:
// container/zone label/decoded path/name.
func itemDisplayPath(item *models.Item, greenroomValue int) (string, error) {
	decoded := ""
	if item.ParentPath != nil {
		var err error
		decoded, err = pathcodec.DecodePath(*item.ParentPath)
		if err != nil {
			return "", models.Internal("corrupt item path", err)
		}
	}
	zone := models.ZoneLabel(item.Zone, greenroomValue)
	return pathcodec.Join(item.ContainerCode, zone, decoded, item.Name), nil
}

// favouriteRow joins a favourite with the favourited entity's identity.
type favouriteRow struct {
	models.Favourite
	ItemName       *string `db:"item_name"`
	ItemParentPath *string `db:"item_parent_path"`
	ItemZone       *int    `db:"item_zone"`
	ItemContainer  *string `db:"item_container"`
	CollectionName *string `db:"collection_name"`
}

// ListFavourites pages through one user's favourites, pinned entries first.
func (s *Store) ListFavourites(ctx context.Context, user string, p models.Pagination) ([]models.FavouriteView, int, error) {
	var total int
	countQuery := s.rebind(`SELECT count(*) FROM favourites WHERE "user" = ?`)
	if err := s.db.GetContext(ctx, &total, countQuery, user); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	var rows []favouriteRow
	query := s.rebind(`SELECT favourites.id, favourites."user", favourites.item_id,
		favourites.collection_id, favourites.pinned, favourites.created_time,
		items.name AS item_name, items.parent_path AS item_parent_path,
		items.zone AS item_zone, items.container_code AS item_container,
		collections.name AS collection_name
		FROM favourites
		LEFT JOIN items ON items.id = favourites.item_id
		LEFT JOIN collections ON collections.id = favourites.collection_id
		WHERE favourites."user" = ?
		ORDER BY favourites.pinned DESC, favourites.created_time
		LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &rows, query, user, p.PageSize, p.Offset()); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	views := make([]models.FavouriteView, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		switch {
		case row.ItemID != nil:
			item := models.Item{
				Name:          stringOr(row.ItemName),
				ParentPath:    row.ItemParentPath,
				Zone:          intOr(row.ItemZone),
				ContainerCode: stringOr(row.ItemContainer),
			}
			display, err := itemDisplayPath(&item, s.zones.Greenroom)
			if err != nil {
				return nil, 0, err
			}
			views = append(views, models.FavouriteView{
				ID:          *row.ItemID,
				Type:        string(models.FavouriteItem),
				Name:        item.Name,
				DisplayPath: display,
				Pinned:      row.Pinned,
			})
		case row.CollectionID != nil:
			name := stringOr(row.CollectionName)
			views = append(views, models.FavouriteView{
				ID:          *row.CollectionID,
				Type:        string(models.FavouriteCollection),
				Name:        name,
				DisplayPath: name,
				Pinned:      row.Pinned,
			})
		}
	}
	return views, total, nil
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOr(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// DeleteFavourite removes one favourite of the user.
func (s *Store) DeleteFavourite(ctx context.Context, user string, ref models.FavouriteRef) error {
	column := "item_id"
	if ref.Type == models.FavouriteCollection {
		column = "collection_id"
	}
	query := s.rebind(`DELETE FROM favourites WHERE "user" = ? AND ` + column + " = ?")
	res, err := s.db.ExecContext(ctx, query, user, ref.ID)
	if err != nil {
		return models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Internal("database error", err)
	}
	if n == 0 {
		return models.NotFound("%s %s is not a favourite of user %s", ref.Type, ref.ID, user)
	}
	return nil
}

// DeleteFavourites removes a batch of the user's favourites in one
// transaction; the whole batch fails when any entry is missing.
func (s *Store) DeleteFavourites(ctx context.Context, user string, refs []models.FavouriteRef) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			column := "item_id"
			if ref.Type == models.FavouriteCollection {
				column = "collection_id"
			}
			query := s.rebind(`DELETE FROM favourites WHERE "user" = ? AND ` + column + " = ?")
			res, err := tx.ExecContext(ctx, query, user, ref.ID)
			if err != nil {
				return models.Internal("database error", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return models.Internal("database error", err)
			}
			if n == 0 {
				return models.NotFound("%s %s is not a favourite of user %s", ref.Type, ref.ID, user)
			}
		}
		return nil
	})
}

// PinFavourite flips the pinned marker of one favourite.
func (s *Store) PinFavourite(ctx context.Context, req models.PinFavouriteRequest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.pinFavouriteTx(ctx, tx, req)
	})
}

// PinFavourites applies a batch of pin changes in one transaction.
func (s *Store) PinFavourites(ctx context.Context, reqs []models.PinFavouriteRequest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, req := range reqs {
			if err := s.pinFavouriteTx(ctx, tx, req); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) pinFavouriteTx(ctx context.Context, tx *sqlx.Tx, req models.PinFavouriteRequest) error {
	column := "item_id"
	if req.Type == models.FavouriteCollection {
		column = "collection_id"
	}
	query := s.rebind(`UPDATE favourites SET pinned = ? WHERE "user" = ? AND ` + column + " = ?")
	res, err := tx.ExecContext(ctx, query, req.Pinned, req.User, req.ID)
	if err != nil {
		return models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Internal("database error", err)
	}
	if n == 0 {
		return models.NotFound("%s %s is not a favourite of user %s", req.Type, req.ID, req.User)
	}
	return nil
}

// removeFavouritesForItemsTx drops every user's favourites pointing at the
// given items, used when items leave the live tree.
func (s *Store) removeFavouritesForItemsTx(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := s.rebind("DELETE FROM favourites WHERE item_id = ANY(?::uuid[])")
	if _, err := tx.ExecContext(ctx, query, uuidArray(ids)); err != nil {
		return models.Internal("database error", err)
	}
	return nil
}
