// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// itemColumns selects an item row with its storage and extended blocks.
const itemColumns = `items.id, items.parent, items.parent_path, items.restore_path,
	items.status, items.type, items.zone, items.name, items.size, items.owner,
	items.container_code, items.container_type, items.deleted, items.deleted_by,
	items.deleted_at, items.created_time, items.last_updated_time,
	storage.id AS storage_id, storage.upload_id, storage.location_uri, storage.version,
	extended.id AS extended_id, extended.extra`

const itemJoins = ` FROM items
	JOIN storage ON storage.item_id = items.id
	JOIN extended ON extended.item_id = items.id`

// itemRecord is the scan target of joined item queries.
type itemRecord struct {
	models.Item
	StorageID   uuid.UUID    `db:"storage_id"`
	UploadID    *string      `db:"upload_id"`
	LocationURI *string      `db:"location_uri"`
	Version     *string      `db:"version"`
	ExtendedID  uuid.UUID    `db:"extended_id"`
	Extra       models.Extra `db:"extra"`
	FavID       *uuid.UUID   `db:"fav_id"`
}

// ItemBundle groups an item with its storage and extended rows plus the
// caller's favourite marker.
type ItemBundle struct {
	Item      models.Item
	Storage   models.Storage
	Extended  models.Extended
	Favourite bool
}

// View renders the bundle as the client-facing item shape.
func (b *ItemBundle) View() (*models.ItemView, error) {
	view, err := models.NewItemView(&b.Item, &b.Storage, &b.Extended)
	if err != nil {
		return nil, err
	}
	view.Favourite = b.Favourite
	return view, nil
}

func (r *itemRecord) bundle() ItemBundle {
	return ItemBundle{
		Item: r.Item,
		Storage: models.Storage{
			ID:          r.StorageID,
			ItemID:      r.Item.ID,
			UploadID:    r.UploadID,
			LocationURI: r.LocationURI,
			Version:     r.Version,
		},
		Extended:  models.Extended{ID: r.ExtendedID, ItemID: r.Item.ID, Extra: r.Extra},
		Favourite: r.FavID != nil,
	}
}

func bundles(records []itemRecord) []ItemBundle {
	out := make([]ItemBundle, len(records))
	for i := range records {
		out[i] = records[i].bundle()
	}
	return out
}

// appendLabel extends an encoded path with one more encoded label.
func appendLabel(encodedPath, name string) string {
	label := pathcodec.EncodeLabel(name)
	if encodedPath == "" {
		return label
	}
	return encodedPath + pathcodec.LabelSeparator + label
}

func derefPath(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func pathPtr(encoded string) *string {
	if encoded == "" {
		return nil
	}
	return &encoded
}

// GetItem fetches a single item by ID.
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*ItemBundle, error) {
	var record itemRecord
	query := "SELECT " + itemColumns + itemJoins + " WHERE items.id = ? AND items.deleted = false"
	if err := s.db.GetContext(ctx, &record, s.rebind(query), id); err != nil {
		return nil, notFoundErr(err, "item %s not found", id)
	}
	b := record.bundle()
	return &b, nil
}

// GetItemByLocation fetches the item occupying an exact tree location.
func (s *Store) GetItemByLocation(ctx context.Context, q models.LocationQuery) (*ItemBundle, error) {
	conds := []Condition{
		{SQL: "items.container_code = ?", Args: []any{q.ContainerCode}},
		{SQL: "items.container_type = ?", Args: []any{q.ContainerType}},
		{SQL: "items.zone = ?", Args: []any{q.Zone}},
		{SQL: "items.name = ?", Args: []any{q.Name}},
		{SQL: "items.status = ?", Args: []any{q.Status}},
		{SQL: "items.deleted = ?", Args: []any{false}},
	}
	if q.ParentPath != "" {
		conds = append(conds, Condition{SQL: "items.parent_path = ?::ltree", Args: []any{pathcodec.EncodePath(q.ParentPath)}})
	} else {
		conds = append(conds, Condition{SQL: "items.parent_path IS NULL"})
	}

	where, args := And(conds)
	var record itemRecord
	query := "SELECT " + itemColumns + itemJoins + " WHERE " + where
	if err := s.db.GetContext(ctx, &record, s.rebind(query), args...); err != nil {
		return nil, notFoundErr(err, "no item at %s/%s", q.ParentPath, q.Name)
	}
	b := record.bundle()
	return &b, nil
}

// ListItemsByIDs fetches a batch of items; missing IDs are silently skipped.
func (s *Store) ListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]ItemBundle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []itemRecord
	query := "SELECT " + itemColumns + itemJoins + " WHERE items.id = ANY(?::uuid[]) AND items.deleted = false"
	if err := s.db.SelectContext(ctx, &records, s.rebind(query), uuidArray(ids)); err != nil {
		return nil, models.Internal("database error", err)
	}
	return bundles(records), nil
}

// SearchItems lists items matching the filter plus any extra permission
// conditions, paged and sorted. When the filter names a favouring user the
// result carries per-item favourite markers.
func (s *Store) SearchItems(ctx context.Context, f models.ItemFilter, extra []Condition, p models.Pagination) ([]ItemBundle, int, error) {
	conds, err := buildItemConditions(f)
	if err != nil {
		return nil, 0, err
	}
	conds = append(conds, extra...)
	where, args := And(conds)

	order, err := orderClause(p)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := "SELECT count(*) FROM items WHERE " + where
	if err := s.db.GetContext(ctx, &total, s.rebind(countQuery), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	columns := itemColumns
	joins := itemJoins
	var joinArgs []any
	if f.FavUser != "" {
		columns += `, fav.id AS fav_id`
		joins += ` LEFT JOIN favourites fav ON fav.item_id = items.id AND fav."user" = ?`
		joinArgs = []any{f.FavUser}
	}

	query := "SELECT " + columns + joins + " WHERE " + where + " " + order + " LIMIT ? OFFSET ?"
	queryArgs := append(joinArgs, args...)
	queryArgs = append(queryArgs, p.PageSize, p.Offset())

	var records []itemRecord
	if err := s.db.SelectContext(ctx, &records, s.rebind(query), queryArgs...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}
	return bundles(records), total, nil
}

// CreateItem inserts one item, with optional copy-to-zone lineage.
func (s *Store) CreateItem(ctx context.Context, req models.CreateItemRequest) (*ItemBundle, error) {
	var bundle *ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		bundle, err = s.createItemTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// CreateItems inserts a batch in one transaction. With skipDuplicates set,
// items colliding with an existing location are dropped from the result
// instead of failing the batch.
func (s *Store) CreateItems(ctx context.Context, reqs []models.CreateItemRequest, skipDuplicates bool) ([]ItemBundle, error) {
	var created []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range reqs {
			bundle, err := s.createItemTx(ctx, tx, reqs[i])
			if err != nil {
				if skipDuplicates && models.IsConflict(err) {
					logging.Ctx(ctx).Debug().
						Str("name", reqs[i].Name).
						Msg("skipping duplicate item in batch create")
					continue
				}
				return err
			}
			created = append(created, *bundle)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) createItemTx(ctx context.Context, tx *sqlx.Tx, req models.CreateItemRequest) (*ItemBundle, error) {
	template, err := s.matchTemplateTx(ctx, tx, req.AttributeTemplateID, req.Attributes)
	if err != nil {
		return nil, err
	}

	encodedParent := pathcodec.EncodePath(req.ParentPath)
	taken, err := s.locationTakenTx(ctx, tx, req.ContainerCode, req.ContainerType, req.Zone, encodedParent, req.Name, req.Status, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.Conflict("item %s already exists at this location", req.Name)
	}

	now := s.now()
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}

	item := models.Item{
		ID:              id,
		Parent:          req.Parent,
		ParentPath:      pathPtr(encodedParent),
		Status:          req.Status,
		Type:            req.Type,
		Zone:            req.Zone,
		Name:            req.Name,
		Size:            req.Size,
		Owner:           req.Owner,
		ContainerCode:   req.ContainerCode,
		ContainerType:   req.ContainerType,
		CreatedTime:     now,
		LastUpdatedTime: now,
	}

	extra := models.Extra{Tags: req.Tags, SystemTags: req.SystemTags}
	if extra.Tags == nil {
		extra.Tags = []string{}
	}
	if extra.SystemTags == nil {
		extra.SystemTags = []string{}
	}
	if template != nil && len(req.Attributes) > 0 {
		extra.Attributes = map[string]map[string]any{template.ID.String(): req.Attributes}
	}

	storage := models.Storage{
		ID:          uuid.New(),
		ItemID:      id,
		UploadID:    req.UploadID,
		LocationURI: req.LocationURI,
		Version:     req.Version,
	}
	extended := models.Extended{ID: uuid.New(), ItemID: id, Extra: extra}

	if err := s.insertItemTx(ctx, tx, &item, &storage, &extended); err != nil {
		return nil, err
	}

	if req.TfrmType != nil && *req.TfrmType == models.TransformCopyToZone {
		source, err := s.getItemTx(ctx, tx, *req.TfrmSource)
		if err != nil {
			return nil, err
		}
		lineageID, err := s.insertLineageTx(ctx, tx, []uuid.UUID{source.Item.ID}, []uuid.UUID{id}, models.TransformCopyToZone)
		if err != nil {
			return nil, err
		}
		if err := s.snapshotProvenanceTx(ctx, tx, &lineageID, &source.Item); err != nil {
			return nil, err
		}
		if err := s.snapshotProvenanceTx(ctx, tx, &lineageID, &item); err != nil {
			return nil, err
		}
	}

	return &ItemBundle{Item: item, Storage: storage, Extended: extended}, nil
}

// UpdateItem applies a partial update, including moves and renames of whole
// subtrees.
func (s *Store) UpdateItem(ctx context.Context, id uuid.UUID, req models.UpdateItemRequest) (*ItemBundle, error) {
	var bundle *ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		bundle, err = s.updateItemTx(ctx, tx, id, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// UpdateItems applies a batch of partial updates in one transaction; ids and
// bodies pair positionally.
func (s *Store) UpdateItems(ctx context.Context, ids []uuid.UUID, reqs []models.UpdateItemRequest) ([]ItemBundle, error) {
	if len(ids) != len(reqs) {
		return nil, models.BadRequest("ids and items must have the same length")
	}
	updated := make([]ItemBundle, 0, len(ids))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, id := range ids {
			bundle, err := s.updateItemTx(ctx, tx, id, reqs[i])
			if err != nil {
				return err
			}
			updated = append(updated, *bundle)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) updateItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, req models.UpdateItemRequest) (*ItemBundle, error) {
	record, err := s.getItemTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	item := record.Item

	leavingRegistered := req.Status != nil && *req.Status != models.StatusRegistered
	if item.Status == models.StatusRegistered && !leavingRegistered {
		return nil, models.BadRequest("registered item %s cannot be modified", id)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, models.BadRequest("invalid status %q", *req.Status)
		}
		if *req.Status == models.StatusArchived {
			return nil, models.BadRequest("status cannot be set to ARCHIVED directly")
		}
	}

	oldParentPath := derefPath(item.ParentPath)
	oldName := item.Name

	newParentPath := oldParentPath
	if req.ParentPath != nil {
		newParentPath = pathcodec.EncodePath(*req.ParentPath)
	}
	newName := item.Name
	if req.Name != nil {
		newName = *req.Name
	}

	moving := newParentPath != oldParentPath
	renaming := newName != oldName
	if (moving || renaming) && item.Status != models.StatusActive {
		return nil, models.BadRequest("only active items can be moved or renamed")
	}
	if req.Parent != nil {
		item.Parent = req.Parent
	}

	if moving || renaming {
		taken, err := s.locationTakenTx(ctx, tx, item.ContainerCode, item.ContainerType, item.Zone, newParentPath, newName, models.StatusActive, &item.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.Conflict("item %s already exists at the target location", newName)
		}

		item.Name = newName
		item.ParentPath = pathPtr(newParentPath)

		if item.Type != models.TypeFile {
			oldPrefix := appendLabel(oldParentPath, oldName)
			newPrefix := appendLabel(newParentPath, newName)
			if err := s.moveSubtreeTx(ctx, tx, &item, oldPrefix, newPrefix); err != nil {
				return nil, err
			}
		}
	}

	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.Size != nil {
		item.Size = *req.Size
	}
	if req.Owner != nil {
		item.Owner = *req.Owner
	}
	item.LastUpdatedTime = s.now()

	extra := record.Extra
	if req.Tags != nil {
		extra.Tags = mergeTags(extra.Tags, *req.Tags)
		if len(extra.Tags) > s.limits.MaxTags {
			return nil, models.BadRequest("an item can only have a maximum of %d tags", s.limits.MaxTags)
		}
	}
	if req.SystemTags != nil {
		extra.SystemTags = mergeTags(extra.SystemTags, *req.SystemTags)
		if len(extra.SystemTags) > s.limits.MaxSystemTags {
			return nil, models.BadRequest("an item can only have a maximum of %d system tags", s.limits.MaxSystemTags)
		}
	}
	if len(req.Attributes) > 0 {
		if item.Type != models.TypeFile {
			return nil, models.BadRequest("attributes can only be applied to files")
		}
		template, err := s.matchTemplateTx(ctx, tx, req.AttributeTemplateID, req.Attributes)
		if err != nil {
			return nil, err
		}
		if extra.Attributes == nil {
			extra.Attributes = map[string]map[string]any{}
		}
		extra.Attributes[template.ID.String()] = req.Attributes
	}

	storage := models.Storage{
		ID:          record.StorageID,
		ItemID:      item.ID,
		UploadID:    record.UploadID,
		LocationURI: record.LocationURI,
		Version:     record.Version,
	}
	if req.UploadID != nil {
		storage.UploadID = req.UploadID
	}
	if req.LocationURI != nil {
		storage.LocationURI = req.LocationURI
	}
	if req.Version != nil {
		storage.Version = req.Version
	}

	extended := models.Extended{ID: record.ExtendedID, ItemID: item.ID, Extra: extra}

	if err := s.saveItemTx(ctx, tx, &item); err != nil {
		return nil, err
	}
	if err := s.saveStorageTx(ctx, tx, &storage); err != nil {
		return nil, err
	}
	if err := s.saveExtendedTx(ctx, tx, &extended); err != nil {
		return nil, err
	}
	if err := s.snapshotProvenanceTx(ctx, tx, nil, &item); err != nil {
		return nil, err
	}

	return &ItemBundle{Item: item, Storage: storage, Extended: extended}, nil
}

// mergeTags unions two tag lists preserving first-seen order.
func mergeTags(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, t := range append(append([]string{}, existing...), incoming...) {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// moveSubtreeTx rewrites the parent_path of every descendant when a folder
// moves or is renamed.
func (s *Store) moveSubtreeTx(ctx context.Context, tx *sqlx.Tx, root *models.Item, oldPrefix, newPrefix string) error {
	descendants, err := s.subtreeTx(ctx, tx, root, "parent_path", oldPrefix)
	if err != nil {
		return err
	}
	now := s.now()
	for i := range descendants {
		desc := &descendants[i].Item
		rewritten, err := replacePathPrefix(derefPath(desc.ParentPath), oldPrefix, newPrefix)
		if err != nil {
			return models.Internal("subtree move failed", err)
		}
		desc.ParentPath = pathPtr(rewritten)
		desc.LastUpdatedTime = now
		if err := s.saveItemTx(ctx, tx, desc); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveItem moves an item and its subtree into the archived state. The
// returned bundles carry the root first, then the affected descendants.
// An already archived item is returned untouched.
func (s *Store) ArchiveItem(ctx context.Context, id uuid.UUID) ([]ItemBundle, error) {
	var affected []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		record, err := s.getItemTx(ctx, tx, id)
		if err != nil {
			return err
		}
		item := record.Item

		if item.Type == models.TypeNameFolder {
			return models.BadRequest("name folders cannot be archived")
		}
		if item.Status == models.StatusArchived {
			// Already at the target status; nothing to write.
			affected = append(affected, record.bundle())
			return nil
		}

		// Archived items all live at the ltree root, so the archived name
		// must be free among them.
		finalName, err := s.availableNameTx(ctx, tx, item.ContainerCode, item.ContainerType, item.Zone, "", item.Name, models.StatusArchived)
		if err != nil {
			return err
		}

		oldPrefix := appendLabel(derefPath(item.ParentPath), item.Name)
		descendants, err := s.subtreeTx(ctx, tx, &item, "parent_path", oldPrefix)
		if err != nil {
			return err
		}

		rootDepth := pathcodec.Depth(derefPath(item.ParentPath))
		now := s.now()

		item.RestorePath = item.ParentPath
		item.ParentPath = nil
		item.Parent = nil
		item.Status = models.StatusArchived
		item.Name = finalName
		item.LastUpdatedTime = now
		if err := s.saveItemTx(ctx, tx, &item); err != nil {
			return err
		}
		record.Item = item
		affected = append(affected, record.bundle())

		for i := range descendants {
			desc := &descendants[i].Item
			spliced, err := spliceLabel(derefPath(desc.ParentPath), rootDepth, finalName)
			if err != nil {
				return models.Internal("archive splice failed", err)
			}
			desc.RestorePath = pathPtr(spliced)
			desc.ParentPath = nil
			desc.Status = models.StatusArchived
			desc.LastUpdatedTime = now
			if err := s.saveItemTx(ctx, tx, desc); err != nil {
				return err
			}
			affected = append(affected, descendants[i].bundle())
		}

		if err := s.removeFavouritesForItemsTx(ctx, tx, affectedIDs(affected)); err != nil {
			return err
		}
		return s.recordArchiveLineageTx(ctx, tx, affected)
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// RestoreItem returns an archived item and its subtree to the live tree at
// the recorded restore location, reattaching the root to the destination
// folder. An already active item is returned untouched.
func (s *Store) RestoreItem(ctx context.Context, id uuid.UUID) ([]ItemBundle, error) {
	var affected []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		record, err := s.getItemTx(ctx, tx, id)
		if err != nil {
			return err
		}
		item := record.Item

		if item.Status == models.StatusActive {
			// Already at the target status; nothing to write.
			affected = append(affected, record.bundle())
			return nil
		}
		if item.Status != models.StatusArchived || item.RestorePath == nil {
			return models.BadRequest("item %s is not archived", id)
		}

		restorePath := *item.RestorePath
		destID, err := s.resolveRestoreDestinationTx(ctx, tx, &item, restorePath)
		if err != nil {
			return err
		}

		finalName, err := s.availableNameTx(ctx, tx, item.ContainerCode, item.ContainerType, item.Zone, restorePath, item.Name, models.StatusActive)
		if err != nil {
			return err
		}

		descendants, err := s.subtreeTx(ctx, tx, &item, "restore_path", appendLabel(restorePath, item.Name))
		if err != nil {
			return err
		}

		rootDepth := pathcodec.Depth(restorePath)
		now := s.now()

		item.ParentPath = item.RestorePath
		item.RestorePath = nil
		item.Parent = &destID
		item.Status = models.StatusActive
		item.Name = finalName
		item.LastUpdatedTime = now
		if err := s.saveItemTx(ctx, tx, &item); err != nil {
			return err
		}
		record.Item = item
		affected = append(affected, record.bundle())

		for i := range descendants {
			desc := &descendants[i].Item
			spliced, err := spliceLabel(derefPath(desc.RestorePath), rootDepth, finalName)
			if err != nil {
				return models.Internal("restore splice failed", err)
			}
			desc.ParentPath = pathPtr(spliced)
			desc.RestorePath = nil
			desc.Status = models.StatusActive
			desc.LastUpdatedTime = now
			if err := s.saveItemTx(ctx, tx, desc); err != nil {
				return err
			}
			affected = append(affected, descendants[i].bundle())
		}

		return s.recordArchiveLineageTx(ctx, tx, affected)
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// resolveRestoreDestinationTx finds the live folder an archived item returns
// to: the ACTIVE item whose path equals restore_path minus the trailing
// label. Its id re-establishes the parent adjacency edge on restore.
func (s *Store) resolveRestoreDestinationTx(ctx context.Context, tx *sqlx.Tx, item *models.Item, restorePath string) (uuid.UUID, error) {
	if pathcodec.Depth(restorePath) == 0 {
		return uuid.Nil, models.BadRequest("item %s has no restore location", item.ID)
	}

	destParent := ""
	destLabel := restorePath
	if idx := strings.LastIndex(restorePath, pathcodec.LabelSeparator); idx >= 0 {
		destParent = restorePath[:idx]
		destLabel = restorePath[idx+1:]
	}
	destName, err := pathcodec.DecodeLabel(destLabel)
	if err != nil {
		return uuid.Nil, models.Internal("corrupt restore path", err)
	}

	conds := []Condition{
		{SQL: "container_code = ?", Args: []any{item.ContainerCode}},
		{SQL: "container_type = ?", Args: []any{item.ContainerType}},
		{SQL: "zone = ?", Args: []any{item.Zone}},
		{SQL: "name = ?", Args: []any{destName}},
		{SQL: "status = ?", Args: []any{models.StatusActive}},
		{SQL: "deleted = ?", Args: []any{false}},
	}
	if destParent != "" {
		conds = append(conds, Condition{SQL: "parent_path = ?::ltree", Args: []any{destParent}})
	} else {
		conds = append(conds, Condition{SQL: "parent_path IS NULL"})
	}

	where, args := And(conds)
	var destID uuid.UUID
	query := "SELECT id FROM items WHERE " + where
	if err := tx.GetContext(ctx, &destID, s.rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, models.BadRequest("Restore destination does not exist")
		}
		return uuid.Nil, models.Internal("database error", err)
	}
	return destID, nil
}

// DeleteItem removes an item and its subtree permanently. The returned
// bundles describe every removed item.
func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) ([]ItemBundle, error) {
	var removed []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		removed, err = s.deleteItemTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteItemsByIDs removes a batch of items and their subtrees in one
// transaction.
func (s *Store) DeleteItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]ItemBundle, error) {
	var removed []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range ids {
			batch, err := s.deleteItemTx(ctx, tx, id)
			if err != nil {
				return err
			}
			removed = append(removed, batch...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) deleteItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) ([]ItemBundle, error) {
	record, err := s.getItemTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	item := record.Item

	locattr := "parent_path"
	base := derefPath(item.ParentPath)
	if item.Status == models.StatusArchived {
		locattr = "restore_path"
		base = derefPath(item.RestorePath)
	}

	descendants, err := s.subtreeTx(ctx, tx, &item, locattr, appendLabel(base, item.Name))
	if err != nil {
		return nil, err
	}

	removed := append([]ItemBundle{record.bundle()}, bundles(descendants)...)

	query := s.rebind("DELETE FROM items WHERE id = ANY(?::uuid[])")
	if _, err := tx.ExecContext(ctx, query, uuidArray(affectedIDs(removed))); err != nil {
		return nil, models.Internal("database error", err)
	}
	return removed, nil
}

// Bequeath pushes attributes and system tags from a folder onto every item
// in its subtree. Attributes land on files only.
func (s *Store) Bequeath(ctx context.Context, id uuid.UUID, req models.BequeathRequest) ([]ItemBundle, error) {
	var affected []ItemBundle
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		record, err := s.getItemTx(ctx, tx, id)
		if err != nil {
			return err
		}
		item := record.Item

		if item.Type != models.TypeFolder {
			return models.BadRequest("only folders can bequeath properties")
		}
		if item.Status != models.StatusActive {
			return models.BadRequest("only active folders can bequeath properties")
		}

		var template *models.AttributeTemplate
		if len(req.Attributes) > 0 {
			template, err = s.matchTemplateTx(ctx, tx, req.AttributeTemplateID, req.Attributes)
			if err != nil {
				return err
			}
		}

		descendants, err := s.subtreeTx(ctx, tx, &item, "parent_path", appendLabel(derefPath(item.ParentPath), item.Name))
		if err != nil {
			return err
		}

		now := s.now()
		for i := range descendants {
			desc := &descendants[i]
			changed := false

			if req.SystemTags != nil {
				desc.Extra.SystemTags = *req.SystemTags
				changed = true
			}
			if template != nil && desc.Item.Type == models.TypeFile {
				if desc.Extra.Attributes == nil {
					desc.Extra.Attributes = map[string]map[string]any{}
				}
				desc.Extra.Attributes[template.ID.String()] = req.Attributes
				changed = true
			}
			if !changed {
				continue
			}

			desc.Item.LastUpdatedTime = now
			extended := models.Extended{ID: desc.ExtendedID, ItemID: desc.Item.ID, Extra: desc.Extra}
			if err := s.saveExtendedTx(ctx, tx, &extended); err != nil {
				return err
			}
			if err := s.saveItemTx(ctx, tx, &desc.Item); err != nil {
				return err
			}
			affected = append(affected, desc.bundle())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

func affectedIDs(items []ItemBundle) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].Item.ID
	}
	return ids
}

// recordArchiveLineageTx writes one archive lineage entry per affected item,
// with provenance snapshots for the files among them.
func (s *Store) recordArchiveLineageTx(ctx context.Context, tx *sqlx.Tx, affected []ItemBundle) error {
	for i := range affected {
		item := &affected[i].Item
		lineageID, err := s.insertLineageTx(ctx, tx, []uuid.UUID{item.ID}, nil, models.TransformArchive)
		if err != nil {
			return err
		}
		if err := s.snapshotProvenanceTx(ctx, tx, &lineageID, item); err != nil {
			return err
		}
	}
	return nil
}

// getItemTx fetches a joined item record inside a transaction.
func (s *Store) getItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*itemRecord, error) {
	var record itemRecord
	query := "SELECT " + itemColumns + itemJoins + " WHERE items.id = ? AND items.deleted = false"
	if err := tx.GetContext(ctx, &record, s.rebind(query), id); err != nil {
		return nil, notFoundErr(err, "item %s not found", id)
	}
	return &record, nil
}

// subtreeTx fetches every descendant of a root, navigating by the given
// location attribute (parent_path for live trees, restore_path for archived
// ones).
func (s *Store) subtreeTx(ctx context.Context, tx *sqlx.Tx, root *models.Item, locattr, rootPath string) ([]itemRecord, error) {
	var records []itemRecord
	query := "SELECT " + itemColumns + itemJoins + `
		WHERE items.container_code = ? AND items.container_type = ? AND items.zone = ?
		AND items.deleted = false AND items.` + locattr + ` ~ ?::lquery
		ORDER BY nlevel(items.` + locattr + `)`
	lquery := rootPath + pathcodec.LabelSeparator + "*"
	err := tx.SelectContext(ctx, &records, s.rebind(query), root.ContainerCode, root.ContainerType, root.Zone, lquery)
	if err != nil {
		return nil, models.Internal("database error", err)
	}
	return records, nil
}

// locationTakenTx reports whether an item already occupies the location.
// exclude skips one id so an item never collides with its own row.
func (s *Store) locationTakenTx(ctx context.Context, tx *sqlx.Tx, containerCode string, containerType models.ContainerType, zone int, encodedParent, name string, status models.ItemStatus, exclude *uuid.UUID) (bool, error) {
	conds := []Condition{
		{SQL: "container_code = ?", Args: []any{containerCode}},
		{SQL: "container_type = ?", Args: []any{containerType}},
		{SQL: "zone = ?", Args: []any{zone}},
		{SQL: "name = ?", Args: []any{name}},
		{SQL: "status = ?", Args: []any{status}},
		{SQL: "deleted = ?", Args: []any{false}},
	}
	if exclude != nil {
		conds = append(conds, Condition{SQL: "id != ?", Args: []any{*exclude}})
	}
	if encodedParent != "" {
		conds = append(conds, Condition{SQL: "parent_path = ?::ltree", Args: []any{encodedParent}})
	} else {
		conds = append(conds, Condition{SQL: "parent_path IS NULL"})
	}

	where, args := And(conds)
	var taken bool
	query := "SELECT EXISTS (SELECT 1 FROM items WHERE " + where + ")"
	if err := tx.GetContext(ctx, &taken, s.rebind(query), args...); err != nil {
		return false, models.Internal("database error", err)
	}
	return taken, nil
}

// availableNameTx returns the name itself when the location is free, or a
// timestamped variant when it is taken.
func (s *Store) availableNameTx(ctx context.Context, tx *sqlx.Tx, containerCode string, containerType models.ContainerType, zone int, encodedParent, name string, status models.ItemStatus) (string, error) {
	taken, err := s.locationTakenTx(ctx, tx, containerCode, containerType, zone, encodedParent, name, status, nil)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}
	return timestampedName(name, s.now()), nil
}

func (s *Store) insertItemTx(ctx context.Context, tx *sqlx.Tx, item *models.Item, storage *models.Storage, extended *models.Extended) error {
	itemQuery := s.rebind(`INSERT INTO items
		(id, parent, parent_path, restore_path, status, type, zone, name, size,
		 owner, container_code, container_type, created_time, last_updated_time)
		VALUES (?, ?, ?::ltree, ?::ltree, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, itemQuery,
		item.ID, item.Parent, item.ParentPath, item.RestorePath, item.Status,
		item.Type, item.Zone, item.Name, item.Size, item.Owner,
		item.ContainerCode, item.ContainerType, item.CreatedTime, item.LastUpdatedTime)
	if err != nil {
		return conflictErr(err, "item %s already exists at this location", item.Name)
	}

	storageQuery := s.rebind(`INSERT INTO storage (id, item_id, upload_id, location_uri, version)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, storageQuery, storage.ID, storage.ItemID, storage.UploadID, storage.LocationURI, storage.Version); err != nil {
		return models.Internal("database error", err)
	}

	extendedQuery := s.rebind("INSERT INTO extended (id, item_id, extra) VALUES (?, ?, ?)")
	if _, err := tx.ExecContext(ctx, extendedQuery, extended.ID, extended.ItemID, extended.Extra); err != nil {
		return models.Internal("database error", err)
	}
	return nil
}

func (s *Store) saveItemTx(ctx context.Context, tx *sqlx.Tx, item *models.Item) error {
	query := s.rebind(`UPDATE items SET
		parent = ?, parent_path = ?::ltree, restore_path = ?::ltree, status = ?,
		zone = ?, name = ?, size = ?, owner = ?, last_updated_time = ?
		WHERE id = ?`)
	_, err := tx.ExecContext(ctx, query,
		item.Parent, item.ParentPath, item.RestorePath, item.Status,
		item.Zone, item.Name, item.Size, item.Owner, item.LastUpdatedTime, item.ID)
	if err != nil {
		return conflictErr(err, "item %s already exists at the target location", item.Name)
	}
	return nil
}

func (s *Store) saveStorageTx(ctx context.Context, tx *sqlx.Tx, storage *models.Storage) error {
	query := s.rebind("UPDATE storage SET upload_id = ?, location_uri = ?, version = ? WHERE item_id = ?")
	if _, err := tx.ExecContext(ctx, query, storage.UploadID, storage.LocationURI, storage.Version, storage.ItemID); err != nil {
		return models.Internal("database error", err)
	}
	return nil
}

func (s *Store) saveExtendedTx(ctx context.Context, tx *sqlx.Tx, extended *models.Extended) error {
	query := s.rebind("UPDATE extended SET extra = ? WHERE item_id = ?")
	if _, err := tx.ExecContext(ctx, query, extended.Extra, extended.ItemID); err != nil {
		return models.Internal("database error", err)
	}
	return nil
}

// matchTemplateTx loads the attribute template and validates attribute values
// against it. Both absent means no template applies.
func (s *Store) matchTemplateTx(ctx context.Context, tx *sqlx.Tx, templateID *uuid.UUID, attrs map[string]any) (*models.AttributeTemplate, error) {
	if templateID == nil {
		if len(attrs) > 0 {
			return nil, models.BadRequest("attributes require an attribute_template_id")
		}
		return nil, nil
	}

	var template models.AttributeTemplate
	query := s.rebind("SELECT id, name, project_code, attributes FROM attribute_templates WHERE id = ?")
	if err := tx.GetContext(ctx, &template, query, *templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.BadRequest("attribute template %s not found", *templateID)
		}
		return nil, models.Internal("database error", err)
	}
	if err := models.MatchTemplate(&template, attrs); err != nil {
		return nil, err
	}
	return &template, nil
}

// MarkDeleted flags items as trashed without removing their rows.
func (s *Store) MarkDeleted(ctx context.Context, ids []uuid.UUID, user string) (int64, error) {
	query := s.rebind(`UPDATE items SET deleted = true, deleted_by = ?, deleted_at = ?
		WHERE id = ANY(?::uuid[]) AND deleted = false`)
	res, err := s.db.ExecContext(ctx, query, user, s.now(), uuidArray(ids))
	if err != nil {
		return 0, models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, models.Internal("database error", err)
	}
	return n, nil
}

// UnmarkDeleted clears the trash flag from items.
func (s *Store) UnmarkDeleted(ctx context.Context, ids []uuid.UUID) (int64, error) {
	query := s.rebind(`UPDATE items SET deleted = false, deleted_by = NULL, deleted_at = NULL
		WHERE id = ANY(?::uuid[]) AND deleted = true`)
	res, err := s.db.ExecContext(ctx, query, uuidArray(ids))
	if err != nil {
		return 0, models.Internal("database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, models.Internal("database error", err)
	}
	return n, nil
}

// ListMarkedDeleted pages through trashed items, oldest first. Both filters
// are optional; deletedBy scopes the listing to one user's trash.
func (s *Store) ListMarkedDeleted(ctx context.Context, containerCode, deletedBy string, p models.Pagination) ([]ItemBundle, int, error) {
	conds := []Condition{{SQL: "items.deleted = ?", Args: []any{true}}}
	if containerCode != "" {
		conds = append(conds, Condition{SQL: "items.container_code = ?", Args: []any{containerCode}})
	}
	if deletedBy != "" {
		conds = append(conds, Condition{SQL: "items.deleted_by = ?", Args: []any{deletedBy}})
	}
	where, args := And(conds)

	var total int
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT count(*) FROM items WHERE "+where), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}

	query := "SELECT " + itemColumns + itemJoins + " WHERE " + where +
		" ORDER BY items.deleted_at LIMIT ? OFFSET ?"
	args = append(args, p.PageSize, p.Offset())

	var records []itemRecord
	if err := s.db.SelectContext(ctx, &records, s.rebind(query), args...); err != nil {
		return nil, 0, models.Internal("database error", err)
	}
	return bundles(records), total, nil
}
