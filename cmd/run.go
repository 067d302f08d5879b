package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/advisor"
	"github.com/spigell/talent-sourcer/internal/advisor/gemini"
	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/logger"
	"github.com/spigell/talent-sourcer/internal/metrics"
	"github.com/spigell/talent-sourcer/internal/pipeline"
	"github.com/spigell/talent-sourcer/internal/project"
	"github.com/spigell/talent-sourcer/internal/secrets"
	"github.com/spigell/talent-sourcer/internal/store"
	"github.com/spigell/talent-sourcer/internal/talentpool"
)

const (
	PromptShowShortlist    = "Show shortlist"
	PromptNo               = "Quit"
	PromptReportByEmployer = "Report by employers"
	PromptDecisionTrail    = "Show decision trail"
	PromptShortlistToFile  = "Dump shortlist to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptShowShortlist, PromptReportByEmployer, PromptDecisionTrail, PromptShortlistToFile, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sourcing pipeline for the configured project",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("dry-run", false, "use the in-memory store instead of postgres")
	runCmd.Flags().BoolP("auto-approve", "y", false, "print the shortlist and exit without prompting")
	runCmd.Flags().String("metrics-listen", "", "address to expose prometheus metrics on (e.g. :9090). Default is unset.")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talent-sourcer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Project == nil || config.Project.Title == "" {
		logger.Fatal("project title is required under project.title to run a sourcing pipeline")
	}

	if config.Search == nil {
		logger.Fatal("search criteria are required under the search section")
	}

	token, err := resolveToken(config)
	if err != nil {
		logger.Fatal(
			"loading provider token",
			zap.Error(err),
			zap.String("hint", "set TALENTPOOL_TOKEN_FILE environment variable or the 'provider.token-file' key in the configuration file"),
		)
	}

	tp := talentpool.New(logger, token)
	if config.Provider != nil {
		if config.Provider.APIURL != "" {
			tp.APIURL = config.Provider.APIURL
		}
		if config.Provider.UserAgent != "" {
			tp.UserAgent = config.Provider.UserAgent
		}
	}

	candidates, projects, cleanup, err := buildStores(ctx, cmd, config)
	if err != nil {
		logger.Fatal("building stores", zap.Error(err))
	}
	defer cleanup()

	proj, err := seedProject(ctx, projects, config.Project)
	if err != nil {
		logger.Fatal("preparing project", zap.Error(err))
	}

	adv := buildAdvisor(ctx, config.AI, logger)

	m := metrics.New()
	if addr := cmd.Flag("metrics-listen").Value.String(); addr != "" {
		serveMetrics(addr, m, logger)
	}

	pipelineCfg := pipeline.DefaultConfig()
	if config.Pipeline != nil {
		pipelineCfg = *config.Pipeline
	}
	if proj.MinSuitable > 0 {
		pipelineCfg.MinSuitable = proj.MinSuitable
	}

	p := pipeline.New(pipelineCfg, pipeline.Deps{
		Logger:     logger,
		Searcher:   tp,
		Enricher:   tp,
		Advisor:    adv,
		Candidates: candidates,
		Projects:   projects,
		Metrics:    m,
	})

	result, err := p.ProcessSourcingRequest(ctx, pipeline.Request{
		ProjectID:   proj.ID,
		Criteria:    *config.Search,
		TargetCount: config.Project.TargetCount,
	})
	if err != nil {
		logger.Fatal("sourcing run failed", zap.Error(err), zap.Any("warnings", result.Warnings))
	}

	logger.Info("sourcing run finished",
		zap.Int("found", result.Found),
		zap.Int("suitable", result.Suitable),
		zap.Int("maybe", result.Maybe),
		zap.Int("shortlisted", len(result.Ranked)),
		zap.Int("retries", result.Retries),
		zap.String("stage", result.Stage.String()),
	)

	if len(result.Ranked) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates shortlisted"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := handleAction(PromptShowShortlist, logger, result); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, result *pipeline.Result) error {
	switch action {
	case PromptShowShortlist:
		pretty, _ := json.MarshalIndent(shortlistRows(result.Ranked), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", len(result.Ranked)))
		return nil
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	case PromptReportByEmployer:
		pretty, _ := json.MarshalIndent(reportByEmployer(result.Ranked), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", len(result.Ranked)))
		return nil
	case PromptDecisionTrail:
		pretty, _ := json.MarshalIndent(result.Decisions, "", "  ")
		logger.Info(string(pretty), zap.Int("decisions count", len(result.Decisions)))
		return nil
	case PromptShortlistToFile:
		filename, err := dumpShortlist(result.Ranked)
		if err != nil {
			return fmt.Errorf("dump shortlist to file: %w", err)
		}
		logger.Info("dumping shortlist to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func resolveToken(config *Config) (string, error) {
	if config == nil {
		return "", errors.New("config is required")
	}

	var tokenFile string
	if config.Provider != nil {
		tokenFile = strings.TrimSpace(config.Provider.TokenFile)
	}
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("provider.token-file"))
	}

	if tokenFile == "" {
		return "", errors.New("provider token file is not configured")
	}

	return secrets.Load(secrets.Source{
		Name: "provider token",
		File: tokenFile,
	})
}

// buildStores picks postgres when a DSN is configured and the run is not a
// dry run, otherwise the in-memory store.
func buildStores(ctx context.Context, cmd *cobra.Command, config *Config) (store.CandidateStore, store.ProjectStore, func(), error) {
	dryRun := cmd.Flag("dry-run").Value.String() == "true"

	var dsn string
	if config.Store != nil {
		dsn = strings.TrimSpace(config.Store.DSN)
		if file := strings.TrimSpace(config.Store.DSNFile); dsn == "" && file != "" {
			loaded, err := secrets.Load(secrets.Source{Name: "database dsn", File: file})
			if err != nil {
				return nil, nil, nil, err
			}
			dsn = loaded
		}
	}
	if dsn == "" {
		dsn = strings.TrimSpace(viper.GetString("store.dsn"))
	}

	if dryRun || dsn == "" {
		mem := store.NewMemory()
		return mem, mem.Projects(), func() {}, nil
	}

	db, err := store.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, db.Projects(), db.Close, nil
}

// seedProject loads the configured project, creating it on first run.
func seedProject(ctx context.Context, projects store.ProjectStore, cfg *ProjectConfig) (*project.Project, error) {
	if cfg.ID != "" {
		existing, err := projects.FindByID(ctx, cfg.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	proj := project.New(cfg.ID, cfg.Title, cfg.Company)
	proj.Description = cfg.Description
	proj.Location = cfg.Location
	proj.RequiredSkills = candidate.NewSkillSet(cfg.RequiredSkills...)
	proj.RequiredExperience = cfg.RequiredExperience
	proj.TargetCount = cfg.TargetCount
	proj.MinSuitable = cfg.MinSuitable

	if err := projects.Save(ctx, proj); err != nil {
		return nil, fmt.Errorf("saving new project: %w", err)
	}
	return proj, nil
}

// buildAdvisor returns the configured advisory or nil. A nil advisor means
// the pipeline decides gates with its built-in rules.
func buildAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) advisor.Advisor {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		log.Warn("skipping advisory", zap.String("reason", "unsupported ai provider"), zap.String("provider", cfg.Provider))
		return nil
	}

	if cfg.Gemini == nil {
		log.Warn("skipping advisory", zap.String("reason", "gemini configuration is required when ai is enabled"))
		return nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		log.Warn("skipping advisory", zap.Error(err), zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"))
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		log.Warn("skipping advisory", zap.Error(err))
		return nil
	}

	advLogger := logger.WithCommonFields(log, "gemini", generator.Model())
	return gemini.NewAdvisor(generator, advLogger, cfg.Gemini.MaxLogLength)
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

type shortlistRow struct {
	Name       string  `json:"name"`
	Position   string  `json:"position,omitempty"`
	Employer   string  `json:"employer,omitempty"`
	Location   string  `json:"location,omitempty"`
	Email      string  `json:"email,omitempty"`
	ProfileURL string  `json:"profile_url,omitempty"`
	Status     string  `json:"status"`
	Score      float64 `json:"score"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

func shortlistRows(list []*candidate.Candidate) []shortlistRow {
	rows := make([]shortlistRow, 0, len(list))
	for _, c := range list {
		row := shortlistRow{
			Name:       c.Name,
			Position:   c.Position,
			Employer:   c.Employer,
			Location:   c.Location,
			Email:      c.Contact.Email(),
			ProfileURL: c.Contact.ProfileURL(),
			Status:     c.Status.String(),
			Score:      c.OverallScore(),
		}
		if c.Score != nil {
			row.Reasoning = c.Score.Reasoning
		}
		rows = append(rows, row)
	}
	return rows
}

func reportByEmployer(list []*candidate.Candidate) map[string]int {
	report := make(map[string]int)
	for _, c := range list {
		employer := c.Employer
		if employer == "" {
			employer = "unknown"
		}
		report[employer]++
	}
	return report
}

func dumpShortlist(list []*candidate.Candidate) (string, error) {
	file, err := os.CreateTemp("", app+"-shortlist-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := json.MarshalIndent(shortlistRows(list), "", "  ")
	if err != nil {
		return "", err
	}

	if _, err := file.Write(data); err != nil {
		return "", err
	}
	return file.Name(), nil
}
