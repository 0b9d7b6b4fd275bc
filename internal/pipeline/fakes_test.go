// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"gunmerch/internal/ai"
	"gunmerch/internal/designer"
	"gunmerch/internal/models"
	"gunmerch/internal/store"
	"gunmerch/internal/storefront"
	"gunmerch/internal/trends"
)

// --- designs ---

type memDesigns struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*models.Design
}

func newMemDesigns() *memDesigns { return &memDesigns{rows: map[int64]*models.Design{}} }

func cloneDesign(d *models.Design) *models.Design {
	c := *d
	c.Meta = make(map[string]string, len(d.Meta))
	for k, v := range d.Meta {
		c.Meta[k] = v
	}
	return &c
}

func (m *memDesigns) Create(_ context.Context, d *models.Design) (*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	c := cloneDesign(d)
	c.ID = m.next
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.rows[c.ID] = c
	return cloneDesign(c), nil
}

func (m *memDesigns) FindByID(_ context.Context, id int64) (*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return cloneDesign(d), nil
}

func (m *memDesigns) FindByRemoteProductID(_ context.Context, backend, remoteID string) (*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.RemoteBackend != nil && *d.RemoteBackend == backend && d.RemoteProductID != nil && *d.RemoteProductID == remoteID {
			return cloneDesign(d), nil
		}
	}
	return nil, nil
}

func (m *memDesigns) List(_ context.Context, f models.DesignFilter) ([]models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Design
	for _, d := range m.rows {
		if f.Status == "" || d.Status == f.Status {
			out = append(out, *cloneDesign(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memDesigns) TransitionStatus(_ context.Context, id int64, from, to models.DesignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok || d.Status != from {
		return store.ErrStatusConflict
	}
	d.Status = to
	return nil
}

func (m *memDesigns) MarkLive(_ context.Context, id int64, backend, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok || (d.Status != models.DesignStatusApproved && d.Status != models.DesignStatusLive) {
		return store.ErrStatusConflict
	}
	for _, other := range m.rows {
		if other.ID != id && other.RemoteProductID != nil && *other.RemoteProductID == remoteID &&
			other.RemoteBackend != nil && *other.RemoteBackend == backend {
			return errors.New("duplicate remote product")
		}
	}
	d.RemoteBackend, d.RemoteProductID = &backend, &remoteID
	d.Status = models.DesignStatusLive
	return nil
}

func (m *memDesigns) SetImageAsset(_ context.Context, id, assetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.rows[id]
	d.ImageAssetID = &assetID
	d.DesignType = models.DesignTypeImage
	return nil
}

func (m *memDesigns) Touch(context.Context, int64) error { return nil }

func (m *memDesigns) SetMeta(_ context.Context, id int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].Meta[key] = value
	return nil
}

func (m *memDesigns) DeleteMeta(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[id].Meta, key)
	return nil
}

func (m *memDesigns) Stats(context.Context) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &models.Stats{}
	for _, d := range m.rows {
		st.Generated++
		switch d.Status {
		case models.DesignStatusPending:
			st.Pending++
		case models.DesignStatusApproved:
			st.Approved++
		case models.DesignStatusRejected:
			st.Rejected++
		case models.DesignStatusLive:
			st.Live++
		case models.DesignStatusSold:
			st.Sold++
		}
		st.TotalSales += d.SalesCount
		st.TotalRevenue += d.Revenue
	}
	return st, nil
}

// --- trends ---

type memTrends struct {
	mu   sync.Mutex
	rows []models.Trend
}

func (m *memTrends) Store(_ context.Context, t models.Trend) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].Topic == t.Topic {
			m.rows[i].EngagementScore = t.EngagementScore
			return m.rows[i].ID, nil
		}
	}
	t.ID = int64(len(m.rows) + 1)
	t.DiscoveredAt = time.Now()
	m.rows = append(m.rows, t)
	return t.ID, nil
}

func (m *memTrends) List(_ context.Context, f models.TrendFilter) ([]models.Trend, error) {
	f = f.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Trend(nil), m.rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EngagementScore > out[j].EngagementScore })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memTrends) Top(ctx context.Context, limit int) ([]models.Trend, error) {
	return m.List(ctx, models.TrendFilter{Limit: limit})
}

func (m *memTrends) DeleteOlderThan(context.Context, int) (int64, error) { return 3, nil }

type memCache struct {
	trends []models.Trend
	ok     bool
}

func (c *memCache) Get(context.Context) ([]models.Trend, bool) { return c.trends, c.ok }
func (c *memCache) Set(_ context.Context, t []models.Trend)   { c.trends, c.ok = t, true }
func (c *memCache) Invalidate(context.Context)                { c.trends, c.ok = nil, false }

// --- assets and storage ---

type memAssets struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*models.Asset
}

func (m *memAssets) Create(_ context.Context, a *models.Asset) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	c := *a
	c.ID = m.next
	m.rows[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memAssets) FindByID(_ context.Context, id int64) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (m *memAssets) Update(_ context.Context, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	m.rows[a.ID] = &c
	return nil
}

func (m *memAssets) Delete(_ context.Context, id int64) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	delete(m.rows, id)
	return a, nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return data, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

// --- logs, settings, ledger, notifications ---

type memLogs struct {
	mu      sync.Mutex
	entries []models.LogEntry
}

func (m *memLogs) Insert(_ context.Context, e models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLogs) List(_ context.Context, f models.LogFilter) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LogEntry
	for _, e := range m.entries {
		if f.Level == "" || e.Level == f.Level {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLogs) Count(ctx context.Context, f models.LogFilter) (int, error) {
	l, _ := m.List(ctx, f)
	return len(l), nil
}

func (m *memLogs) DeleteOlderThan(context.Context, int) (int64, error) { return 0, nil }

func (m *memLogs) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

func (m *memLogs) has(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}

type memSettings struct {
	mu     sync.Mutex
	values models.Settings
}

func (m *memSettings) All(context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := models.Settings{}
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memSettings) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

type memLedger struct {
	mu      sync.Mutex
	designs *memDesigns
	seen    map[string]bool
}

func (l *memLedger) Apply(_ context.Context, s models.Sale) (models.SaleResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := s.Backend + "/" + s.OrderID + "/" + s.LineID
	if l.seen[key] {
		return models.SaleResult{}, nil
	}
	l.seen[key] = true
	res := models.SaleResult{Applied: true}
	if s.DesignID == nil {
		return res, nil
	}

	l.designs.mu.Lock()
	defer l.designs.mu.Unlock()
	d := l.designs.rows[*s.DesignID]
	d.SalesCount += s.Quantity
	d.Revenue += s.Amount()
	res.SalesCount = d.SalesCount
	if s.Quantity > 0 && d.Status == models.DesignStatusLive {
		d.Status = models.DesignStatusSold
		res.Sold = true
	}
	return res, nil
}

type memNotifier struct {
	mu    sync.Mutex
	notes map[string]models.Notification
}

func (n *memNotifier) Notify(_ context.Context, note models.Notification) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.notes[note.Key]; ok {
		return false, nil
	}
	n.notes[note.Key] = note
	return true, nil
}

func (n *memNotifier) List(context.Context) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, note := range n.notes {
		out = append(out, note)
	}
	return out, nil
}

func (n *memNotifier) Dismiss(_ context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.notes, key)
	return nil
}

// --- image provider ---

type fakeImages struct {
	data  []byte
	url   string
	err   error
	calls int
	last  string
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt string) (*ai.Image, error) {
	f.calls++
	f.last = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Image{Data: f.data, URL: f.url, ContentType: "image/png", Provider: "fake"}, nil
}

func (f *fakeImages) SupportsImageGeneration() bool { return true }

// --- storefront ---

type fakeStore struct {
	mu        sync.Mutex
	name      string
	creatable bool
	probeErr  error
	createErr error
	products  map[string]*storefront.Product
	nextID    int
	finds     int
	creates   int
	uploads   []storefront.FileUpload
	lastSpec  storefront.ProductSpec
	orders    []storefront.Order
	ordersErr error
	template  *storefront.Template
}

func newFakeStore(name string, creatable bool) *fakeStore {
	return &fakeStore{
		name:      name,
		creatable: creatable,
		products:  map[string]*storefront.Product{},
		nextID:    5000,
		template: &storefront.Template{
			OptionNames: []string{"Size"},
			Variants: []storefront.Variant{
				{CatalogID: 1, Options: []string{"M"}, Files: []storefront.PrintFile{{Type: "default", ID: "1"}}},
				{CatalogID: 2, Options: []string{"L"}, Files: []storefront.PrintFile{{Type: "default", ID: "1"}}},
			},
		},
	}
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) TestConnection(context.Context) (*storefront.StoreInfo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return &storefront.StoreInfo{ID: "1", Name: "Test " + f.name, Type: "api"}, nil
}

func (f *fakeStore) SupportsProductCreation(context.Context) (bool, error) {
	return f.creatable, f.probeErr
}

func (f *fakeStore) FindProductByExternalID(_ context.Context, ext string) (*storefront.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if p, ok := f.products[ext]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) UploadAsset(_ context.Context, file storefront.FileUpload) (*storefront.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file)
	return &storefront.UploadedFile{ID: strconv.Itoa(len(f.uploads) + 100), URL: file.URL}, nil
}

func (f *fakeStore) TemplateProduct(context.Context) (*storefront.Template, error) {
	return f.template, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, spec storefront.ProductSpec) (*storefront.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	f.nextID++
	f.lastSpec = spec
	p := &storefront.Product{ID: strconv.Itoa(f.nextID), ExternalID: spec.ExternalID, Name: spec.Title}
	f.products[spec.ExternalID] = p
	c := *p
	return &c, nil
}

func (f *fakeStore) ListFulfilledOrders(context.Context, time.Time) ([]storefront.Order, error) {
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders, nil
}

// --- harness ---

type harness struct {
	svc      *Service
	designs  *memDesigns
	trends   *memTrends
	cache    *memCache
	assets   *memAssets
	storage  *memStorage
	logs     *memLogs
	settings *memSettings
	notifier *memNotifier
	images   *fakeImages
	store    *fakeStore
}

func newHarness(t *testing.T, seed ...models.Trend) *harness {
	t.Helper()
	h := &harness{
		designs:  newMemDesigns(),
		trends:   &memTrends{},
		cache:    &memCache{},
		assets:   &memAssets{rows: map[int64]*models.Asset{}},
		storage:  &memStorage{objects: map[string][]byte{}},
		logs:     &memLogs{},
		settings: &memSettings{values: models.Settings{}},
		notifier: &memNotifier{notes: map[string]models.Notification{}},
		images:   &fakeImages{data: testPNG(t, 200, 200)},
		store:    newFakeStore(storefront.BackendPrintful, true),
	}
	h.svc = New(Deps{
		Designs:    h.designs,
		Trends:     h.trends,
		Cache:      h.cache,
		Assets:     h.assets,
		Logs:       h.logs,
		Settings:   h.settings,
		Ledger:     &memLedger{designs: h.designs, seen: map[string]bool{}},
		Notifier:   h.notifier,
		Storage:    h.storage,
		Scanner:    trends.NewScanner(trends.NewMockSource(seed...)),
		Concepts:   designer.New(nil, designer.WithPicker(func(int) int { return 0 })),
		Images:     h.images,
		Storefront: h.store,
	})
	return h
}

// approved creates an approved design directly in the repository.
func (h *harness) approved(t *testing.T) *models.Design {
	t.Helper()
	d, err := h.designs.Create(context.Background(), &models.Design{
		Title:      "Molon Labe",
		DesignText: "Come and take it",
		Concept:    "Bold block letters.",
		TrendTopic: "Second Amendment",
		DesignType: models.DesignTypeText,
		Status:     models.DesignStatusApproved,
		Meta:       map[string]string{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// testPNG is a white square with a centred red block.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x >= w/4 && x < 3*w/4 && y >= h/4 && y < 3*h/4 {
				c = color.NRGBA{200, 16, 46, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
