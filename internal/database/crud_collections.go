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
)

const collectionColumns = "id, name, container_code, owner, created_time, last_updated_time"

// GetCollection fetches one collection by ID.
func (s *Store) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var c models.Collection
	query := s.rebind("SELECT " + collectionColumns + " FROM collections WHERE id = ?")
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFoundErr(err, "collection %s not found", id)
	}
	return &c, nil
}

// ListCollections pages through one user's collections in a project, with
// the caller's favourite markers.
func (s *Store) ListCollections(ctx context.Context, owner, containerCode string, p models.Pagination) ([]models.Collection, []bool, int, error) {
	var total int
	countQuery := s.rebind("SELECT count(*) FROM collections WHERE owner = ? AND container_code = ?")
	if err := s.db.GetContext(ctx, &total, countQuery, owner, containerCode); err != nil {
		return nil, nil, 0, models.Internal("database error", err)
	}

	var rows []struct {
		models.Collection
		FavID *uuid.UUID `db:"fav_id"`
	}
	query := s.rebind(`SELECT collections.id, collections.name, collections.container_code,
		collections.owner, collections.created_time, collections.last_updated_time,
		fav.id AS fav_id
		FROM collections
		LEFT JOIN favourites fav ON fav.collection_id = collections.id AND fav."user" = ?
		WHERE collections.owner = ? AND collections.container_code = ?
		ORDER BY collections.created_time
		LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &rows, query, owner, owner, containerCode, p.PageSize, p.Offset()); err != nil {
		return nil, nil, 0, models.Internal("database error", err)
	}

	collections := make([]models.Collection, len(rows))
	favourites := make([]bool, len(rows))
	for i := range rows {
		collections[i] = rows[i].Collection
		favourites[i] = rows[i].FavID != nil
	}
	return collections, favourites, total, nil
}

// CreateCollection inserts a collection, enforcing the per-user cap.
func (s *Store) CreateCollection(ctx context.Context, req models.CreateCollectionRequest) (*models.Collection, error) {
	if err := models.ValidateCollectionName(req.Name); err != nil {
		return nil, err
	}

	var created *models.Collection
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		countQuery := s.rebind("SELECT count(*) FROM collections WHERE owner = ? AND container_code = ?")
		if err := tx.GetContext(ctx, &count, countQuery, req.Owner, req.ContainerCode); err != nil {
			return models.Internal("database error", err)
		}
		if count >= s.limits.MaxCollections {
			return models.BadRequest("Cannot create more than %d collections", s.limits.MaxCollections)
		}

		now := s.now()
		c := models.Collection{
			ID:              uuid.New(),
			Name:            req.Name,
			ContainerCode:   req.ContainerCode,
			Owner:           req.Owner,
			CreatedTime:     now,
			LastUpdatedTime: now,
		}
		if req.ID != nil {
			c.ID = *req.ID
		}

		query := s.rebind("INSERT INTO collections (" + collectionColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
		if _, err := tx.ExecContext(ctx, query, c.ID, c.Name, c.ContainerCode, c.Owner, c.CreatedTime, c.LastUpdatedTime); err != nil {
			return conflictErr(err, "collection %s already exists", c.Name)
		}
		created = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RenameCollections applies a batch of renames for one owner in one
// transaction. Every collection must exist and belong to the owner.
func (s *Store) RenameCollections(ctx context.Context, req models.UpdateCollectionsRequest) ([]models.Collection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	renamed := make([]models.Collection, 0, len(req.Collections))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, rename := range req.Collections {
			var c models.Collection
			getQuery := s.rebind("SELECT " + collectionColumns + " FROM collections WHERE id = ? AND owner = ? AND container_code = ?")
			if err := tx.GetContext(ctx, &c, getQuery, rename.ID, req.Owner, req.ContainerCode); err != nil {
				return notFoundErr(err, "collection %s not found", rename.ID)
			}

			c.Name = rename.Name
			c.LastUpdatedTime = s.now()
			updateQuery := s.rebind("UPDATE collections SET name = ?, last_updated_time = ? WHERE id = ?")
			if _, err := tx.ExecContext(ctx, updateQuery, c.Name, c.LastUpdatedTime, c.ID); err != nil {
				return conflictErr(err, "collection %s already exists", c.Name)
			}
			renamed = append(renamed, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteCollection removes a collection; memberships and favourites cascade.
func (s *Store) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM collections WHERE id = ?"), id)
	if err != nil {
		return models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Internal("database error", err)
	}
	if n == 0 {
		return models.NotFound("collection %s not found", id)
	}
	return nil
}

// AddCollectionItems attaches items to a collection; existing memberships
// are left untouched.
func (s *Store) AddCollectionItems(ctx context.Context, req models.CollectionItemsRequest) error {
	if _, err := s.GetCollection(ctx, req.ID); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.rebind(`INSERT INTO items_collections (item_id, collection_id)
			VALUES (?, ?) ON CONFLICT DO NOTHING`)
		for _, itemID := range req.ItemIDs {
			if _, err := tx.ExecContext(ctx, query, itemID, req.ID); err != nil {
				return models.Internal("database error", err)
			}
		}
		return nil
	})
}

// RemoveCollectionItems detaches items from a collection.
func (s *Store) RemoveCollectionItems(ctx context.Context, req models.CollectionItemsRequest) error {
	if _, err := s.GetCollection(ctx, req.ID); err != nil {
		return err
	}
	query := s.rebind("DELETE FROM items_collections WHERE collection_id = ? AND item_id = ANY(?::uuid[])")
	if _, err := s.db.ExecContext(ctx, query, req.ID, uuidArray(req.ItemIDs)); err != nil {
		return models.Internal("database error", err)
	}
	return nil
}

// ListCollectionItems pages through the items of a collection at the given
// status. Extra conditions carry the caller's permission constraints.
func (s *Store) ListCollectionItems(ctx context.Context, collectionID uuid.UUID, status models.ItemStatus, extra []Condition, p models.Pagination) ([]ItemBundle, int, error) {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return nil, 0, err
	}

	order, err := orderClause(p)
	if err != nil {
		return nil, 0, err
	}

	conds := []Condition{
		{SQL: "ic.collection_id = ?", Args: []any{collectionID}},
		{SQL: "items.status = ?", Args: []any{status}},
		{SQL: "items.deleted = ?", Args: []any{false}},
	}
	conds = append(conds, extra...)
	where, args := And(conds)

	joins := itemJoins + " JOIN items_collections ic ON ic.item_id = items.id"

	var total int
	countQuery := "SELECT count(*)" + joins + " WHERE " + where
	if err := s.db.GetContext(ctx, &total, s.rebind(countQuery), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	query := "SELECT " + itemColumns + joins + " WHERE " + where + " " + order + " LIMIT ? OFFSET ?"
	args = append(args, p.PageSize, p.Offset())

	var records []itemRecord
	if err := s.db.SelectContext(ctx, &records, s.rebind(query), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}
	return bundles(records), total, nil
}
