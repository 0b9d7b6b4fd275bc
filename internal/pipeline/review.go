// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gunmerch/internal/imaging"
	"gunmerch/internal/models"
	"gunmerch/internal/store"
)

// AutoPublishSkipped is the approval message when auto-publish is on but
// the design cannot be printed yet.
const AutoPublishSkipped = "Design approved. Auto-publish skipped: generate an image for this design, then approve it again to publish."

// reviewTransitions lists the statuses an operator may move a design to.
// live is reached only by publishing and sold only by a reconciled sale.
var reviewTransitions = map[models.DesignStatus][]models.DesignStatus{
	models.DesignStatusPending:  {models.DesignStatusApproved, models.DesignStatusRejected},
	models.DesignStatusApproved: {models.DesignStatusApproved, models.DesignStatusRejected, models.DesignStatusPending},
	models.DesignStatusRejected: {models.DesignStatusPending, models.DesignStatusApproved},
}

// CanTransition reports whether review may move a design from one status
// to another.
func CanTransition(from, to models.DesignStatus) bool {
	for _, s := range reviewTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetStatus moves a design to the status named by raw. Values outside the
// five known statuses fail with models.ErrInvalidStatus and transitions
// the review workflow does not allow fail with ErrTransition; in both
// cases the stored status is unchanged.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (d *models.Design, err error) {
	ctx, span := s.start(ctx, "SetStatus")
	defer func() { end(span, err) }()

	to, err := models.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	d, err = s.design(ctx, id)
	if err != nil {
		return nil, err
	}
	from := d.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrTransition, from, to)
	}

	err = s.deps.Designs.TransitionStatus(ctx, id, from, to)
	if errors.Is(err, store.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: design %d changed concurrently", ErrTransition, id)
	}
	if err != nil {
		return nil, err
	}
	d.Status = to

	s.log.Info(ctx, id, "Design status changed", map[string]any{"from": string(from), "to": string(to)})
	return d, nil
}

// Approve approves a design. With auto_publish on, a design with an image
// (or flagged text-only) is published right away; otherwise the approval
// stands and the message tells the operator to generate an image first.
// A failed auto-publish leaves the design approved and is reported in the
// message.
func (s *Service) Approve(ctx context.Context, id int64) (Summary, error) {
	d, err := s.SetStatus(ctx, id, string(models.DesignStatusApproved))
	if err != nil {
		return Summary{}, err
	}
	if !s.settings(ctx).Bool(models.SettingAutoPublish) {
		return Summary{Message: "Design approved.", Count: 1}, nil
	}
	if !d.HasImage() && !d.IsTextOnly() {
		s.log.Info(ctx, id, "Auto-publish skipped: design has no image", nil)
		return Summary{Message: AutoPublishSkipped, Count: 1}, nil
	}

	res, err := s.Publish(ctx, id)
	if err != nil {
		return Summary{Message: "Design approved, but publishing failed: " + err.Error(), Count: 1}, nil
	}
	return Summary{Message: "Design approved and published (" + res.Backend + " product " + res.RemoteProductID + ").", Count: 1}, nil
}

// Reject rejects a design.
func (s *Service) Reject(ctx context.Context, id int64) (Summary, error) {
	if _, err := s.SetStatus(ctx, id, string(models.DesignStatusRejected)); err != nil {
		return Summary{}, err
	}
	return Summary{Message: "Design rejected.", Count: 1}, nil
}

// BulkApprove approves each design in turn.
func (s *Service) BulkApprove(ctx context.Context, ids []int64) BulkResult {
	return s.bulk(ctx, ids, s.Approve)
}

// BulkReject rejects each design in turn.
func (s *Service) BulkReject(ctx context.Context, ids []int64) BulkResult {
	return s.bulk(ctx, ids, s.Reject)
}

func (s *Service) bulk(ctx context.Context, ids []int64, op func(context.Context, int64) (Summary, error)) BulkResult {
	res := BulkResult{Errors: map[int64]string{}, Messages: map[int64]string{}}
	for _, id := range ids {
		sum, err := op(ctx, id)
		if err != nil {
			res.Failed++
			res.Errors[id] = err.Error()
			continue
		}
		res.Succeeded++
		res.Messages[id] = sum.Message
	}
	return res
}

// Editable design metadata keys.
var editableMeta = map[string]bool{
	models.MetaImagePrompt:    true,
	models.MetaHighlightWord:  true,
	models.MetaHighlightColor: true,
	models.MetaTextOnly:       true,
	models.MetaStatusNote:     true,
}

// UpdateMeta sets the per-design knobs. An empty value removes the key.
func (s *Service) UpdateMeta(ctx context.Context, id int64, values map[string]string) (*models.Design, error) {
	for k, v := range values {
		if !editableMeta[k] {
			return nil, fmt.Errorf("%w: meta key %q is not editable", ErrInvalidSetting, k)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch k {
		case models.MetaHighlightColor:
			if _, err := imaging.ParseHexColor(v); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, k, err)
			}
		case models.MetaTextOnly:
			if _, err := strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidSetting, k)
			}
		}
	}

	d, err := s.design(ctx, id)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			err = s.deps.Designs.DeleteMeta(ctx, id, k)
		} else {
			err = s.deps.Designs.SetMeta(ctx, id, k, v)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.deps.Designs.Touch(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info(ctx, id, "Design metadata updated", map[string]any{"keys": len(values)})
	return s.design(ctx, d.ID)
}
