// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/datalodge/metacat/internal/models"
	"github.com/datalodge/metacat/internal/pathcodec"
)

// lineageRecord scans a lineage row with its uuid[] columns.
type lineageRecord struct {
	ID       uuid.UUID            `db:"id"`
	Consumes uuidArray            `db:"consumes"`
	Produces uuidArray            `db:"produces"`
	TfrmType models.TransformType `db:"tfrm_type"`
}

// insertLineageTx writes one transformation edge and returns its ID.
func (s *Store) insertLineageTx(ctx context.Context, tx *sqlx.Tx, consumes, produces []uuid.UUID, tfrm models.TransformType) (uuid.UUID, error) {
	id := uuid.New()
	query := s.rebind("INSERT INTO lineage (id, consumes, produces, tfrm_type) VALUES (?, ?::uuid[], ?::uuid[], ?)")
	if _, err := tx.ExecContext(ctx, query, id, uuidArray(consumes), uuidArray(produces), tfrm); err != nil {
		return uuid.Nil, models.Internal("database error", err)
	}
	return id, nil
}

// snapshotProvenanceTx records the current state of a file item. Folders and
// name folders leave no provenance trail.
func (s *Store) snapshotProvenanceTx(ctx context.Context, tx *sqlx.Tx, lineageID *uuid.UUID, item *models.Item) error {
	if item.Type != models.TypeFile {
		return nil
	}
	query := s.rebind(`INSERT INTO provenance
		(id, lineage_id, item_id, snapshot_time, parent, parent_path, restore_path,
		 status, type, zone, name, size, owner, container_code, container_type)
		VALUES (?, ?, ?, ?, ?, ?::ltree, ?::ltree, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, query,
		uuid.New(), lineageID, item.ID, s.now(), item.Parent, item.ParentPath,
		item.RestorePath, item.Status, item.Type, item.Zone, item.Name,
		item.Size, item.Owner, item.ContainerCode, item.ContainerType)
	if err != nil {
		return models.Internal("database error", err)
	}
	return nil
}

// GetLineageProvenance assembles the transformation history of one item:
// every lineage edge touching it, grouped by lineage ID, plus the latest
// provenance snapshot of each item involved.
func (s *Store) GetLineageProvenance(ctx context.Context, itemID uuid.UUID) (*models.LineageProvenanceView, error) {
	single := uuidArray{itemID}
	var edges []lineageRecord
	edgeQuery := s.rebind(`SELECT id, consumes, produces, tfrm_type FROM lineage
		WHERE consumes @> ?::uuid[] OR produces @> ?::uuid[]`)
	if err := s.db.SelectContext(ctx, &edges, edgeQuery, single, single); err != nil {
		return nil, models.Internal("database error", err)
	}

	involved := map[uuid.UUID]bool{itemID: true}
	for _, edge := range edges {
		for _, id := range edge.Consumes {
			involved[id] = true
		}
		for _, id := range edge.Produces {
			involved[id] = true
		}
	}
	ids := make([]uuid.UUID, 0, len(involved))
	for id := range involved {
		ids = append(ids, id)
	}

	var snapshots []models.Provenance
	snapQuery := s.rebind(`SELECT id, lineage_id, item_id, snapshot_time, parent,
		parent_path, restore_path, status, type, zone, name, size, owner,
		container_code, container_type
		FROM provenance WHERE item_id = ANY(?::uuid[]) ORDER BY snapshot_time`)
	if err := s.db.SelectContext(ctx, &snapshots, snapQuery, uuidArray(ids)); err != nil {
		return nil, models.Internal("database error", err)
	}

	if len(edges) == 0 && len(snapshots) == 0 {
		return nil, models.NotFound("no lineage recorded for item %s", itemID)
	}

	view := &models.LineageProvenanceView{
		Lineage:    make(map[string]models.LineageEdgeView, len(edges)),
		Provenance: make(map[string]models.ProvenanceView, len(snapshots)),
	}
	for _, edge := range edges {
		view.Lineage[edge.ID.String()] = models.LineageEdgeView{
			TfrmType: models.TfrmTypeLabel(edge.TfrmType),
			Consumes: idStrings(edge.Consumes),
			Produces: idStrings(edge.Produces),
		}
	}

	// Snapshots arrive oldest first; the newest per item wins.
	for _, snap := range snapshots {
		pv, err := provenanceView(&snap)
		if err != nil {
			return nil, err
		}
		view.Provenance[snap.ItemID.String()] = *pv
	}
	return view, nil
}

func idStrings(ids uuidArray) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func provenanceView(p *models.Provenance) (*models.ProvenanceView, error) {
	view := &models.ProvenanceView{
		ID:            p.ID,
		LineageID:     p.LineageID,
		SnapshotTime:  p.SnapshotTime.UTC().Format(time.RFC3339),
		Parent:        p.Parent,
		Status:        p.Status,
		Type:          p.Type,
		Zone:          p.Zone,
		Name:          p.Name,
		Size:          p.Size,
		Owner:         p.Owner,
		ContainerCode: p.ContainerCode,
		ContainerType: p.ContainerType,
	}
	if p.ParentPath != nil {
		decoded, err := pathcodec.DecodePath(*p.ParentPath)
		if err != nil {
			return nil, models.Internal("corrupt provenance path", err)
		}
		view.ParentPath = &decoded
	}
	if p.RestorePath != nil {
		decoded, err := pathcodec.DecodePath(*p.RestorePath)
		if err != nil {
			return nil, models.Internal("corrupt provenance path", err)
		}
		view.RestorePath = &decoded
	}
	return view, nil
}
