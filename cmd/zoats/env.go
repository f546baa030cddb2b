package main

import (
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/backup"
	"github.com/vrijenattawar/ZoATS/internal/clarify"
	"github.com/vrijenattawar/ZoATS/internal/dossier"
	"github.com/vrijenattawar/ZoATS/internal/extract"
	"github.com/vrijenattawar/ZoATS/internal/gestalt"
	"github.com/vrijenattawar/ZoATS/internal/intake"
	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/quicktest"
	"github.com/vrijenattawar/ZoATS/internal/store"
	anthropicpkg "github.com/vrijenattawar/ZoATS/pkg/anthropic"
)

// pipelineEnv holds the initialized collaborators shared by the
// stage commands and the orchestrator.
type pipelineEnv struct {
	Store    *store.JobStore
	Gate     *quicktest.Gate
	Engine   *gestalt.Engine
	Workflow *clarify.Workflow
	Backup   *backup.Manager
	Dossier  *dossier.Generator
	Intake   *intake.Ingester
}

// initEnv wires the semantic collaborators (live Anthropic client or the
// deterministic simulators), the email collaborators, and the stage
// components against the jobs store.
func initEnv() (*pipelineEnv, error) {
	st := store.New(cfg.JobsDir)

	var (
		extractor extract.SignalExtractor
		detector  extract.AIDetector
		checker   extract.DealBreakerChecker
	)
	if cfg.Anthropic.Simulate || cfg.Anthropic.Key == "" {
		if !cfg.Anthropic.Simulate {
			zap.L().Warn("no anthropic key configured, using simulated extractors")
		}
		sim := extract.NewSimExtractor()
		extractor, detector, checker = sim, sim, sim
	} else {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		if cfg.Anthropic.RequestsPerMinute > 0 {
			client = anthropicpkg.NewRateLimited(client, cfg.Anthropic.RequestsPerMinute)
		}
		llm := extract.NewLLMExtractor(client, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens))
		extractor, detector, checker = llm, llm, llm
	}

	var sender mailer.Sender
	if cfg.Email.Simulate || cfg.Email.SMTPHost == "" {
		if !cfg.Email.Simulate {
			zap.L().Warn("no smtp host configured, using simulated sender")
		}
		sender = mailer.NewSimSender()
	} else {
		sender = mailer.NewSMTPSender(cfg.Email)
	}
	inbox := mailer.NewFileInbox(cfg.Inbox.Dir)

	engine := gestalt.New(extractor, detector, st, cfg.Gestalt)
	workflow, err := clarify.NewWorkflow(st, sender, inbox, engine, cfg.Clarify, cfg.Email)
	if err != nil {
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Gate:     quicktest.New(checker, cfg.QuickTest),
		Engine:   engine,
		Workflow: workflow,
		Backup:   backup.NewManager(st),
		Dossier:  dossier.NewGenerator(st),
		Intake:   intake.NewIngester(st, cfg.Intake),
	}, nil
}
