package main

import (
	"fmt"
	"net/http"

	"github.com/wgomg/kukulkan/internal/api"
	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/hf"
	"github.com/wgomg/kukulkan/internal/pipeline"
	"github.com/wgomg/kukulkan/internal/qa"
	"github.com/wgomg/kukulkan/internal/retrieval"
	"github.com/wgomg/kukulkan/internal/source"
	"github.com/wgomg/kukulkan/internal/summarize"
	"github.com/wgomg/kukulkan/internal/utils"
	"github.com/wgomg/kukulkan/internal/utils/httputils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := utils.NewLogger("error", false)
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log := utils.NewLogger("error", cfg.App.RawBodyLog)
		log.Fatal("Invalid configuration:", err)
	}

	logger := utils.NewLogger(cfg.App.LogLevel, cfg.App.RawBodyLog)
	logger.Info(nil, "Starting Video Q&A Service")
	logger.Info(nil, "Environment: %s", cfg.App.Env)
	logger.Info(nil, "Log level: %s", cfg.App.LogLevel)
	logger.Info(nil, "Embedding model: %s", cfg.HuggingFace.EmbeddingModel)
	logger.Info(nil, "Generation model: %s", cfg.HuggingFace.GenerationModel)

	hfClient, err := hf.NewClient(cfg, logger)
	if err != nil {
		logger.Error(nil, "Failed to create inference client: %v", err)
		logger.Fatal("Missing required configuration")
	}

	engine := retrieval.NewEngine(hfClient, cfg, logger)
	composer := qa.NewComposer(engine, hfClient, cfg, logger)
	summarizer := summarize.NewAgent(hfClient, logger)

	fetcher := source.NewTimedTextClient(cfg, logger)
	transcriber := source.NewAudioTranscriber(cfg, hfClient, logger)
	acquirer := source.NewAcquirer(fetcher, transcriber, cfg, logger)

	p := pipeline.New(acquirer, engine, composer, summarizer, cfg, logger)

	handler := api.NewHandler(logger, p, cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Video Q&A Service is running\n")
	})

	api.RegisterRoutes(mux, handler)

	logger.Info(nil, "Starting server on port %s", cfg.App.ServerPort)
	logger.Info(nil, "Endpoints:")
	logger.Info(nil, "  GET  /health")
	logger.Info(nil, "  POST /process")
	logger.Info(nil, "  POST /ask")
	logger.Info(nil, "  GET  /export")
	logger.Info(nil, "  GET  /session")
	logger.Info(nil, "  POST /session/clear")
	logger.Fatal(http.ListenAndServe("0.0.0.0:"+cfg.App.ServerPort, httputils.WithRequestID(mux)))
}
