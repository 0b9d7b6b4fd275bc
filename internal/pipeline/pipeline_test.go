// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"gunmerch/internal/designer"
	"gunmerch/internal/models"
	"gunmerch/internal/storefront"
	"gunmerch/internal/trends"
)

var seedTrends = []models.Trend{
	{Topic: "Boating accident meme goes viral", SourceURL: "https://example.com/boating", EngagementScore: 920},
	{Topic: "New ATF pistol brace rule controversy", SourceURL: "https://example.com/brace", EngagementScore: 850},
	{Topic: "Glock vs Sig Sauer reliability test", SourceURL: "https://example.com/glock", EngagementScore: 430},
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, seedTrends...)

	sum, err := h.svc.ScanTrends(ctx)
	if err != nil {
		t.Fatalf("ScanTrends: %v", err)
	}
	if sum.Count != 3 || sum.Message != "Found and stored 3 trends." {
		t.Fatalf("ScanTrends summary = %+v", sum)
	}
	stored, _ := h.svc.ListTrends(ctx, models.TrendFilter{})
	if len(stored) != 3 || stored[0].EngagementScore != 920 {
		t.Fatalf("stored trends = %+v", stored)
	}

	sum, err = h.svc.GenerateDesigns(ctx, 2)
	if err != nil {
		t.Fatalf("GenerateDesigns: %v", err)
	}
	if sum.Count != 2 {
		t.Fatalf("GenerateDesigns count = %d, want 2", sum.Count)
	}
	pending, _ := h.svc.ListDesigns(ctx, models.DesignFilter{Status: models.DesignStatusPending})
	if len(pending) != 2 {
		t.Fatalf("pending designs = %d, want 2", len(pending))
	}
	topics := []string{pending[0].TrendTopic, pending[1].TrendTopic}
	if !slices.Contains(topics, seedTrends[0].Topic) || !slices.Contains(topics, seedTrends[1].Topic) {
		t.Errorf("designs built from %v, want the two highest-scoring trends", topics)
	}
	for _, d := range pending {
		if d.DesignText == "" {
			t.Errorf("design %d has no slogan", d.ID)
		}
		if d.EstimatedMargin != 40 {
			t.Errorf("design %d margin = %v, want default 40", d.ID, d.EstimatedMargin)
		}
	}
	if _, ok := h.notifier.notes["new_designs"]; !ok {
		t.Error("missing new_designs notification")
	}

	h.settings.values[models.SettingAutoPublish] = "true"
	id := pending[0].ID

	sum, err = h.svc.Approve(ctx, id)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if sum.Message != AutoPublishSkipped {
		t.Errorf("Approve message = %q, want the auto-publish skip message", sum.Message)
	}
	d, _ := h.svc.GetDesign(ctx, id)
	if d.Status != models.DesignStatusApproved {
		t.Fatalf("status = %s, want approved", d.Status)
	}
	if h.store.creates != 0 {
		t.Fatal("product created for a design without an image")
	}

	asset, err := h.svc.GenerateImage(ctx, id)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if asset.Width != 200 || asset.Height != 200 || asset.Provider != "fake" {
		t.Errorf("asset = %+v", asset)
	}
	if _, ok := h.storage.objects[asset.S3Key]; !ok {
		t.Errorf("asset object %q not stored", asset.S3Key)
	}

	sum, err = h.svc.Approve(ctx, id)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if !strings.Contains(sum.Message, "published (printful product 5001)") {
		t.Errorf("Approve message = %q", sum.Message)
	}
	if h.store.finds != 1 || h.store.creates != 1 {
		t.Errorf("finds=%d creates=%d, want one lookup then one create", h.store.finds, h.store.creates)
	}

	d, _ = h.svc.GetDesign(ctx, id)
	if d.Status != models.DesignStatusLive {
		t.Fatalf("status = %s, want live", d.Status)
	}
	if *d.RemoteBackend != storefront.BackendPrintful || *d.RemoteProductID != "5001" {
		t.Errorf("remote = %s/%s", *d.RemoteBackend, *d.RemoteProductID)
	}

	spec := h.store.lastSpec
	if spec.ExternalID != models.ExternalID(id) {
		t.Errorf("ExternalID = %q", spec.ExternalID)
	}
	if len(spec.Variants) != 2 || spec.Variants[0].Price != "21.00" {
		t.Errorf("variants = %+v", spec.Variants)
	}
	if !slices.Contains(spec.Tags, "gunmerch") {
		t.Errorf("tags = %v", spec.Tags)
	}
	if !strings.HasPrefix(h.store.uploads[0].URL, "https://cdn.test/designs/") {
		t.Errorf("upload URL = %q", h.store.uploads[0].URL)
	}
	if _, ok := h.notifier.notes["published:"+models.ExternalID(id)]; !ok {
		t.Error("missing published notification")
	}
	if !h.logs.has("Design published") {
		t.Error("publish not recorded in the activity log")
	}
}

func TestScanTrends_FallsBackToMock(t *testing.T) {
	h := newHarness(t)
	h.svc.deps.Scanner = trends.NewScanner()

	sum, err := h.svc.ScanTrends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := len(trends.MockTrends()); sum.Count != want {
		t.Errorf("Count = %d, want %d", sum.Count, want)
	}
	if !h.cache.ok {
		t.Error("cache not refreshed")
	}
}

func TestGenerateDesigns_MinEngagementAndAutoApprove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, seedTrends...)
	h.settings.values[models.SettingMinEngagement] = "500"
	h.settings.values[models.SettingAutoApprove] = "true"

	if _, err := h.svc.ScanTrends(ctx); err != nil {
		t.Fatal(err)
	}
	sum, err := h.svc.GenerateDesigns(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 2 {
		t.Fatalf("Count = %d, want 2 (430 is below the minimum)", sum.Count)
	}
	approved, _ := h.svc.ListDesigns(ctx, models.DesignFilter{Status: models.DesignStatusApproved})
	if len(approved) != 2 {
		t.Errorf("approved = %d, want 2", len(approved))
	}
}

func TestGenerateDesigns_NothingQualifies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, seedTrends...)
	h.settings.values[models.SettingMinEngagement] = "5000"

	if _, err := h.svc.ScanTrends(ctx); err != nil {
		t.Fatal(err)
	}
	sum, err := h.svc.GenerateDesigns(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 0 || !strings.HasPrefix(sum.Message, "No designs generated") {
		t.Errorf("summary = %+v", sum)
	}
	if _, ok := h.notifier.notes["new_designs"]; ok {
		t.Error("notification sent although nothing was generated")
	}
}

func TestGenerateDesigns_WithoutTrendsUsesMock(t *testing.T) {
	h := newHarness(t)
	sum, err := h.svc.GenerateDesigns(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 2 {
		t.Errorf("Count = %d, want 2", sum.Count)
	}
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	orig := h.approved(t)
	h.designs.SetMeta(ctx, orig.ID, models.MetaImagePrompt, "vintage stamp")
	h.designs.SetMeta(ctx, orig.ID, models.MetaStatusNote, "too busy")

	d, err := h.svc.Regenerate(ctx, orig.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID == orig.ID || d.Status != models.DesignStatusPending {
		t.Errorf("regenerated design = %+v", d)
	}
	if d.TrendTopic != orig.TrendTopic {
		t.Errorf("TrendTopic = %q", d.TrendTopic)
	}
	if d.Meta[models.MetaRegeneratedFrom] != models.ExternalID(orig.ID) {
		t.Errorf("regenerated_from = %q", d.Meta[models.MetaRegeneratedFrom])
	}
	if d.Meta[models.MetaImagePrompt] != "vintage stamp" {
		t.Error("image prompt not carried over")
	}
	if _, ok := d.Meta[models.MetaStatusNote]; ok {
		t.Error("status note should not carry over")
	}

	if _, err := h.svc.Regenerate(ctx, 999); !errors.Is(err, ErrDesignNotFound) {
		t.Errorf("err = %v, want ErrDesignNotFound", err)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d, _ := h.designs.Create(ctx, &models.Design{Title: "x", Status: models.DesignStatusPending, Meta: map[string]string{}})

	tests := []struct {
		raw  string
		want error
	}{
		{"archived", models.ErrInvalidStatus},
		{"APPROVED", models.ErrInvalidStatus},
		{"", models.ErrInvalidStatus},
		{"live", ErrTransition},
		{"sold", ErrTransition},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if _, err := h.svc.SetStatus(ctx, d.ID, tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			got, _ := h.svc.GetDesign(ctx, d.ID)
			if got.Status != models.DesignStatusPending {
				t.Errorf("status changed to %s", got.Status)
			}
		})
	}

	for _, to := range []string{"rejected", "pending", "approved", "approved", "pending"} {
		got, err := h.svc.SetStatus(ctx, d.ID, to)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", to, err)
		}
		if string(got.Status) != to {
			t.Errorf("status = %s, want %s", got.Status, to)
		}
	}

	if _, err := h.svc.SetStatus(ctx, 999, "approved"); !errors.Is(err, ErrDesignNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestSetStatus_LiveIsFinalForReview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)
	if err := h.designs.MarkLive(ctx, d.ID, storefront.BackendPrintful, "77"); err != nil {
		t.Fatal(err)
	}
	for _, to := range []string{"pending", "approved", "rejected", "sold"} {
		if _, err := h.svc.SetStatus(ctx, d.ID, to); !errors.Is(err, ErrTransition) {
			t.Errorf("live to %s: err = %v, want ErrTransition", to, err)
		}
	}
}

func TestApprove_WithoutAutoPublish(t *testing.T) {
	h := newHarness(t)
	d, _ := h.designs.Create(context.Background(), &models.Design{Title: "x", Status: models.DesignStatusPending, Meta: map[string]string{}})

	sum, err := h.svc.Approve(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Message != "Design approved." {
		t.Errorf("message = %q", sum.Message)
	}
}

func TestBulkApprove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d, _ := h.designs.Create(ctx, &models.Design{Title: "x", Status: models.DesignStatusPending, Meta: map[string]string{}})

	res := h.svc.BulkApprove(ctx, []int64{d.ID, 999})
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Errors[999], "not found") {
		t.Errorf("error for 999 = %q", res.Errors[999])
	}
	if res.Messages[d.ID] != "Design approved." {
		t.Errorf("message = %q", res.Messages[d.ID])
	}

	res = h.svc.BulkReject(ctx, []int64{d.ID})
	if res.Succeeded != 1 {
		t.Errorf("reject result = %+v", res)
	}
}

func TestPublish_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)
	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	first, err := h.svc.Publish(ctx, d.ID)
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	second, err := h.svc.Publish(ctx, d.ID)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if h.store.creates != 1 {
		t.Errorf("creates = %d, want 1", h.store.creates)
	}
	if !second.Adopted || second.RemoteProductID != first.RemoteProductID {
		t.Errorf("second publish = %+v, want adoption of %s", second, first.RemoteProductID)
	}
}

func TestPublish_AdoptsExistingProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)
	h.store.products[models.ExternalID(d.ID)] = &storefront.Product{ID: "remote-9", ExternalID: models.ExternalID(d.ID)}

	res, err := h.svc.Publish(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Adopted || res.RemoteProductID != "remote-9" {
		t.Errorf("result = %+v", res)
	}
	if h.store.creates != 0 || len(h.store.uploads) != 0 {
		t.Error("adoption must not upload or create")
	}
	got, _ := h.svc.GetDesign(ctx, d.ID)
	if got.Status != models.DesignStatusLive {
		t.Errorf("status = %s", got.Status)
	}
}

func TestPublish_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("needs image", func(t *testing.T) {
		h := newHarness(t)
		d := h.approved(t)
		if _, err := h.svc.Publish(ctx, d.ID); !errors.Is(err, ErrNeedsImage) {
			t.Fatalf("err = %v, want ErrNeedsImage", err)
		}
		got, _ := h.svc.GetDesign(ctx, d.ID)
		if got.Status != models.DesignStatusApproved {
			t.Errorf("status = %s", got.Status)
		}
	})

	t.Run("pending", func(t *testing.T) {
		h := newHarness(t)
		d, _ := h.designs.Create(ctx, &models.Design{Title: "x", Status: models.DesignStatusPending, Meta: map[string]string{}})
		if _, err := h.svc.Publish(ctx, d.ID); !errors.Is(err, ErrTransition) {
			t.Fatalf("err = %v, want ErrTransition", err)
		}
		if h.store.finds != 0 {
			t.Error("store queried for a pending design")
		}
	})

	t.Run("no storefront creates products", func(t *testing.T) {
		h := newHarness(t)
		h.store.creatable = false
		d := h.approved(t)
		if _, err := h.svc.Publish(ctx, d.ID); !errors.Is(err, storefront.ErrProductCreationUnsupported) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestPublish_RoutesToAlternate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.creatable = false
	alt := newFakeStore(storefront.BackendShopify, true)
	h.svc.deps.Alternate = alt

	d := h.approved(t)
	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	res, err := h.svc.Publish(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Backend != storefront.BackendShopify || alt.creates != 1 || h.store.creates != 0 {
		t.Errorf("result = %+v, alt creates %d, primary creates %d", res, alt.creates, h.store.creates)
	}
	got, _ := h.svc.GetDesign(ctx, d.ID)
	if *got.RemoteBackend != storefront.BackendShopify {
		t.Errorf("RemoteBackend = %s", *got.RemoteBackend)
	}
}

func TestPublish_AlternateWithoutPrimary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alt := newFakeStore(storefront.BackendShopify, true)
	h.svc.deps.Storefront = nil
	h.svc.deps.Alternate = alt

	d := h.approved(t)
	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	res, err := h.svc.Publish(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Backend != storefront.BackendShopify || alt.creates != 1 {
		t.Errorf("result = %+v, alt creates %d", res, alt.creates)
	}

	h.svc.deps.Alternate = nil
	other := h.approved(t)
	if _, err := h.svc.Publish(ctx, other.ID); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("no storefront: err = %v", err)
	}
}

func TestPublish_CreateFailureKeepsStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.createErr = &storefront.APIError{Backend: "printful", Endpoint: "/store/products", StatusCode: 500, Message: "boom"}

	d := h.approved(t)
	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Publish(ctx, d.ID); err == nil {
		t.Fatal("expected error")
	}
	got, _ := h.svc.GetDesign(ctx, d.ID)
	if got.Status != models.DesignStatusApproved || got.IsPublished() {
		t.Errorf("design = %+v", got)
	}
	if _, ok := h.notifier.notes["publish_failed:"+models.ExternalID(d.ID)]; !ok {
		t.Error("missing publish_failed notification")
	}

	h.settings.values[models.SettingAutoPublish] = "true"
	sum, err := h.svc.Approve(ctx, d.ID)
	if err != nil {
		t.Fatalf("Approve should report publish failures in the message: %v", err)
	}
	if !strings.Contains(sum.Message, "publishing failed") {
		t.Errorf("message = %q", sum.Message)
	}
}

func TestPublish_TextOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("renders a full-size print file")
	}
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)
	h.designs.SetMeta(ctx, d.ID, models.MetaTextOnly, "true")

	if _, err := h.svc.Publish(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if len(h.store.uploads) != 1 || !strings.HasSuffix(h.store.uploads[0].Filename, ".png") {
		t.Fatalf("uploads = %+v", h.store.uploads)
	}
	if !strings.Contains(h.store.uploads[0].URL, "/print/") {
		t.Errorf("upload URL = %q", h.store.uploads[0].URL)
	}
}

func TestSyncSales_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	live := h.approved(t)
	h.designs.MarkLive(ctx, live.ID, storefront.BackendPrintful, "5001")
	other := h.approved(t)
	h.designs.MarkLive(ctx, other.ID, storefront.BackendShopify, "9001")

	h.store.orders = []storefront.Order{{
		ID: "o1",
		Lines: []storefront.OrderLine{
			{ID: "l1", ExternalID: models.VariantExternalID(live.ID, 1), Quantity: 2, UnitPrice: 25},
			{ID: "l2", ProductID: "5001", Quantity: 1, UnitPrice: 25},
			// Published on another backend; the numeric ID is not ours here.
			{ID: "l3", ExternalID: models.VariantExternalID(other.ID, 1), Quantity: 1, UnitPrice: 10},
		},
	}}

	rep, err := h.svc.SyncSales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Count != 3 || rep.Unmatched != 1 || len(rep.Lines) != 3 {
		t.Fatalf("first sync = %+v", rep)
	}
	got, _ := h.svc.GetDesign(ctx, live.ID)
	if got.SalesCount != 3 || got.Revenue != 75 || got.Status != models.DesignStatusSold {
		t.Errorf("design after sync = count %d revenue %v status %s", got.SalesCount, got.Revenue, got.Status)
	}
	if _, ok := h.notifier.notes["sale:printful:o1:l1"]; !ok {
		t.Error("missing sale notification")
	}

	rep, err = h.svc.SyncSales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Count != 0 || rep.Unmatched != 0 || len(rep.Lines) != 3 {
		t.Errorf("second sync = %+v", rep)
	}
	got, _ = h.svc.GetDesign(ctx, live.ID)
	if got.SalesCount != 3 {
		t.Errorf("sales counted twice: %d", got.SalesCount)
	}
	o, _ := h.svc.GetDesign(ctx, other.ID)
	if o.SalesCount != 0 {
		t.Errorf("line credited to a design on another backend")
	}
}

func TestSyncSales_ReportsFailedStorefront(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alt := newFakeStore(storefront.BackendShopify, true)
	alt.ordersErr = &storefront.APIError{Backend: storefront.BackendShopify, Endpoint: "/orders.json", StatusCode: 503, Message: "unavailable"}
	h.svc.deps.Alternate = alt

	live := h.approved(t)
	h.designs.MarkLive(ctx, live.ID, storefront.BackendPrintful, "5001")
	h.store.orders = []storefront.Order{{
		ID:    "o1",
		Lines: []storefront.OrderLine{{ID: "l1", ExternalID: models.ExternalID(live.ID), Quantity: 1, UnitPrice: 25}},
	}}

	rep, err := h.svc.SyncSales(ctx)
	if err != nil {
		t.Fatalf("partial failure should keep the primary's progress: %v", err)
	}
	if rep.Count != 1 || rep.Failed != 1 || len(rep.Errors) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if !strings.Contains(rep.Errors[0], "shopify") {
		t.Errorf("error does not name the storefront: %q", rep.Errors[0])
	}
	if !strings.Contains(rep.Message, "1 failures.") {
		t.Errorf("message = %q", rep.Message)
	}

	// Nothing processed at all surfaces as an error with the report.
	h.store.ordersErr = errors.New("printful down")
	rep, err = h.svc.SyncSales(ctx)
	if err == nil || rep == nil || rep.Failed != 2 {
		t.Errorf("all storefronts failing: rep %+v, err %v", rep, err)
	}
}

func TestBuildImagePrompt(t *testing.T) {
	d := &models.Design{
		Title:      "Molon Labe",
		DesignText: "Come and take it",
		Concept:    "Stencil letters",
		Meta:       map[string]string{models.MetaHighlightWord: "take"},
	}

	got := BuildImagePrompt("Shirt: {text}. {highlight} {custom_prompt}", d)
	want := `Shirt: Come and take it. Make the word "take" stand out in the color #C8102E.`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}

	d.DesignText = ""
	d.Meta = map[string]string{
		models.MetaImagePrompt:    "  woodcut style ",
		models.MetaHighlightColor: "#00FF00",
	}
	got = BuildImagePrompt("{slogan} / {title} / {concept} {custom_prompt}", d)
	if got != "Molon Labe / Molon Labe / Stencil letters woodcut style" {
		t.Errorf("got %q", got)
	}

	if got := BuildImagePrompt("", d); !strings.Contains(got, "Molon Labe") {
		t.Errorf("default template did not include the text: %q", got)
	}
}

func TestRetailPrice(t *testing.T) {
	tests := []struct {
		base, margin float64
		want         string
	}{
		{15, 40, "21.00"},
		{19.99, 35, "26.99"},
		{10, 0, "10.00"},
	}
	for _, tt := range tests {
		if got := RetailPrice(tt.base, tt.margin); got != tt.want {
			t.Errorf("RetailPrice(%v, %v) = %s, want %s", tt.base, tt.margin, got, tt.want)
		}
	}
}

func TestImagePostProcessing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)

	if _, err := h.svc.RemoveBackground(ctx, d.ID); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}

	orig, err := h.svc.GenerateImage(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}

	matted, err := h.svc.RemoveBackground(ctx, d.ID)
	if err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}
	if matted.ID != orig.ID || matted.S3Key == orig.S3Key {
		t.Errorf("asset %d key %q, want same row with a new key", matted.ID, matted.S3Key)
	}
	if matted.ContentType != "image/png" {
		t.Errorf("ContentType = %q", matted.ContentType)
	}
	if _, ok := h.storage.objects[orig.S3Key]; ok {
		t.Error("old object not deleted")
	}

	up, err := h.svc.Upscale(ctx, d.ID)
	if err != nil {
		t.Fatalf("Upscale: %v", err)
	}
	if up.Width != matted.Width*4 || up.Height != matted.Height*4 {
		t.Errorf("upscaled to %dx%d from %dx%d", up.Width, up.Height, matted.Width, matted.Height)
	}
}

func TestGenerateImage_Errors(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	d := h.approved(t)
	h.images.err = errors.New("quota exceeded")
	if _, err := h.svc.GenerateImage(ctx, d.ID); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v", err)
	}
	if !h.logs.has("Image generation failed") {
		t.Error("failure not logged")
	}

	h.svc.deps.Storage = nil
	if _, err := h.svc.GenerateImage(ctx, d.ID); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestUpdateMeta(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)

	if _, err := h.svc.UpdateMeta(ctx, d.ID, map[string]string{models.MetaHighlightColor: "red"}); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("bad color: err = %v", err)
	}
	if _, err := h.svc.UpdateMeta(ctx, d.ID, map[string]string{"remote_product_id": "1"}); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("protected key: err = %v", err)
	}

	got, err := h.svc.UpdateMeta(ctx, d.ID, map[string]string{
		models.MetaHighlightWord:  "take",
		models.MetaHighlightColor: "#00FF00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Meta[models.MetaHighlightColor] != "#00FF00" {
		t.Errorf("meta = %v", got.Meta)
	}

	got, err = h.svc.UpdateMeta(ctx, d.ID, map[string]string{models.MetaHighlightWord: ""})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Meta[models.MetaHighlightWord]; ok {
		t.Error("empty value should remove the key")
	}
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for _, bad := range []map[string]string{
		{"bogus": "1"},
		{models.SettingAutoPublish: "maybe"},
		{models.SettingMinEngagement: "-1"},
		{models.SettingDefaultMargin: "lots"},
		{models.SettingBaseCost: "13", "bogus": "1"},
		{models.SettingTrendRetentionDays: "0"},
		{models.SettingLogRetentionDays: "0"},
		{models.SettingSalesWindowDays: "1.5"},
		{models.SettingDefaultMargin: "NaN"},
	} {
		if _, err := h.svc.UpdateSettings(ctx, bad); !errors.Is(err, ErrInvalidSetting) {
			t.Errorf("UpdateSettings(%v): err = %v", bad, err)
		}
	}
	if len(h.settings.values) != 0 {
		t.Fatalf("invalid update wrote %v", h.settings.values)
	}

	got, err := h.svc.UpdateSettings(ctx, map[string]string{
		models.SettingBaseCost:          " 12.50 ",
		models.SettingAutoApprove:        "true",
		models.SettingDefaultMargin:      "42.5",
		models.SettingLogRetentionDays:   "1",
		models.SettingTrendRetentionDays: "14",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got[models.SettingBaseCost] != "12.50" || got[models.SettingAutoApprove] != "true" {
		t.Errorf("settings = %v", got)
	}
	if got[models.SettingDefaultMargin] != "42.5" || got[models.SettingLogRetentionDays] != "1" {
		t.Errorf("numeric settings = %v", got)
	}
	if got[models.SettingDesignsPerScan] != "10" {
		t.Errorf("defaults not filled in: %v", got)
	}
}

func TestTestConnection(t *testing.T) {
	h := newHarness(t)
	alt := newFakeStore(storefront.BackendShopify, true)
	alt.probeErr = errors.New("unauthorized")
	h.svc.deps.Alternate = alt

	got, err := h.svc.TestConnection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("statuses = %+v", got)
	}
	if got[0].Error != "" || !got[0].CreatesProducts || got[0].Store == nil {
		t.Errorf("primary = %+v", got[0])
	}
	if got[1].Error != "unauthorized" {
		t.Errorf("alternate = %+v", got[1])
	}
}

func TestMaintenanceAndLogs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.cache.Set(ctx, []models.Trend{{Topic: "stale"}})

	sum, err := h.svc.Maintenance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 3 {
		t.Errorf("Count = %d, want 3", sum.Count)
	}
	if _, ok := h.cache.Get(ctx); ok {
		t.Error("pruning trends must invalidate the current-trends cache")
	}

	entries, total, err := h.svc.Logs(ctx, models.LogFilter{Level: models.LogSystem})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || entries[0].Message != "Maintenance complete" {
		t.Errorf("logs = %+v (total %d)", entries, total)
	}

	if _, err := h.svc.ClearLogs(ctx, 0); err != nil {
		t.Fatal(err)
	}
	// ClearLogs records itself after deleting.
	if _, total, _ := h.svc.Logs(ctx, models.LogFilter{}); total != 1 {
		t.Errorf("total after clear = %d, want 1", total)
	}
}

func TestDebugLogsFollowSetting(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	d := h.approved(t)

	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if h.logs.has("Generating image") {
		t.Error("debug entry stored with debug logging off")
	}

	h.settings.values[models.SettingDebugLogging] = "true"
	if _, err := h.svc.GenerateImage(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if !h.logs.has("Generating image") {
		t.Error("debug entry missing with debug logging on")
	}
}

func TestConceptGeneratorIsBankBacked(t *testing.T) {
	g := designer.New(nil, designer.WithPicker(func(int) int { return 0 }))
	draft := g.FromTrend(context.Background(), seedTrends[0], 40)
	if draft.DesignText == "" || draft.Title != seedTrends[0].Topic {
		t.Errorf("draft = %+v", draft)
	}
}
