// ABOUTME: Builds the media provider stack and flow runtime factory from config.
// ABOUTME: Adapters for unset API keys are left out; their node kinds fail with a clear error.
package main

import (
	"log"

	"github.com/litai12/Tanva-sub008/flow"
	"github.com/litai12/Tanva-sub008/media"
	"github.com/litai12/Tanva-sub008/server"
	"github.com/litai12/Tanva-sub008/store"
)

// buildMediaService assembles the provider client from whichever API keys
// the config carries. Gemini doubles as the edit-capable image provider
// because it accepts reference images.
func buildMediaService(cfg *server.Config, logger *log.Logger) *media.Service {
	var opts []media.ClientOption
	var optimizer media.Optimizer

	if cfg.OpenAIKey != "" {
		openai := media.NewOpenAIAdapter(cfg.OpenAIKey)
		opts = append(opts, media.WithImageProvider("openai", openai))
		optimizer = openai
	}

	editProvider := ""
	if cfg.GeminiKey != "" {
		opts = append(opts, media.WithImageProvider("gemini", media.NewGeminiAdapter(cfg.GeminiKey)))
		editProvider = "gemini"
	}

	if cfg.KlingKey != "" {
		opts = append(opts, media.WithVideoProvider("kling", media.NewKlingAdapter(cfg.KlingKey)))
	}

	var storage *media.StorageClient
	if cfg.StorageURL != "" {
		storage = media.NewStorageClient(cfg.StorageKey, cfg.StorageURL)
	}

	var models *media.TripoAdapter
	if cfg.TripoKey != "" {
		models = media.NewTripoAdapter(cfg.TripoKey)
	}

	return media.NewService(media.ServiceConfig{
		Client:       media.NewClient(opts...),
		Optimizer:    optimizer,
		Storage:      storage,
		Models:       models,
		EditProvider: editProvider,
		Logger:       logger,
	})
}

// newRuntimeFactory returns the per-session runtime constructor. Every
// session shares the provider stack, the credit gate, and the history sink.
func newRuntimeFactory(svc *media.Service, db *store.Store, logger *log.Logger) server.RuntimeFactory {
	return func() (*flow.Runtime, error) {
		return flow.NewRuntime(flow.RuntimeConfig{
			Registry: flow.DefaultRegistry(flow.Services{
				Images:    svc,
				Videos:    svc,
				Optimizer: svc,
				Frames:    svc,
				Models:    svc,
			}),
			Credits:  db,
			Uploader: svc,
			History:  flow.NewHistory(db),
			Logger:   logger,
		}), nil
	}
}
