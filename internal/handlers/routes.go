// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import "github.com/go-chi/chi/v5"

// Routes registers the operator API on r. Authentication is applied by
// the caller.
func (a *API) Routes(r chi.Router) {
	// Trends
	r.Post("/trends/scan", a.ScanTrends)
	r.Get("/trends", a.ListTrends)

	// Designs
	r.Route("/designs", func(r chi.Router) {
		r.Get("/", a.ListDesigns)
		r.Post("/generate", a.GenerateDesigns)
		r.Post("/bulk/approve", a.BulkApprove)
		r.Post("/bulk/reject", a.BulkReject)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.GetDesign)
			r.Put("/meta", a.UpdateMeta)
			r.Post("/status", a.SetStatus)
			r.Post("/approve", a.Approve)
			r.Post("/reject", a.Reject)
			r.Post("/regenerate", a.Regenerate)
			r.Post("/image", a.GenerateImage)
			r.Post("/remove-background", a.RemoveBackground)
			r.Post("/upscale", a.Upscale)
			r.Post("/publish", a.Publish)
		})
	})

	// Sales and storefront
	r.Post("/sales/sync", a.SyncSales)
	r.Get("/storefront/test", a.TestConnection)

	// Operations
	r.Get("/notifications", a.Notifications)
	r.Delete("/notifications/{key}", a.DismissNotification)
	r.Get("/logs", a.Logs)
	r.Delete("/logs", a.ClearLogs)
	r.Post("/maintenance", a.Maintenance)
	r.Post("/jobs/{name}", a.RunJob)
	r.Get("/stats", a.Stats)
	r.Get("/settings", a.GetSettings)
	r.Put("/settings", a.UpdateSettings)

	// LLM providers
	r.Get("/ai/providers", a.AIProviders)
	r.Put("/ai/provider", a.SetAIProvider)
}
