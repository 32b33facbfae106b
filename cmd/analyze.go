package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/analysis"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/documents"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/screening"
	"github.com/spigell/cv-screener/internal/secrets"
)

const (
	PromptReportBySkill       = "Report by best suited skill"
	PromptShowCandidate       = "Show candidate details"
	PromptBack                = "back"
	PromptExportCSV           = "Export candidates to CSV"
	PromptCandidatesToFile    = "Dump candidates to file"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
	PromptExit                = "Exit"
	defaultParallel           = 4
	defaultCSVFile            = "candidates.csv"
)

var errExit = errors.New("exit requested")

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Analyze résumé files, directories or the configured S3 prefix and screen the candidates",
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntP("parallel", "p", defaultParallel, "how many documents are analyzed at once")
	analyzeCmd.Flags().BoolP("yes", "y", false, "do not ask for actions, print candidates as JSON and exit")
	analyzeCmd.Flags().Bool("no-ai", false, "skip the AI review even when it is enabled in the config")
	analyzeCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	analyzeCmd.Flags().Int("min-skill-score", 0, "minimum score of the best skill to keep a candidate (default 10)")

	viper.BindPFlag("screening.exclude-file", analyzeCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("screening.minimum-skill-score", analyzeCmd.Flags().Lookup("min-skill-score"))
}

func analyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	catalog, err := catalogFromConfig(config)
	if err != nil {
		logger.Fatal("building the skill catalog", zap.Error(err))
	}
	analyzer := analysis.New(catalog, logger)

	source, err := documentSource(ctx, config, args)
	if err != nil {
		logger.Fatal("preparing a document source", zap.Error(err))
	}

	parallel, _ := cmd.Flags().GetInt("parallel")
	found, err := analyzeDocuments(ctx, source, analyzer, parallel, logger)
	if err != nil {
		logger.Fatal("analyzing documents", zap.Error(err))
	}

	if found.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no documents analyzed"))
		return
	}

	noAI, _ := cmd.Flags().GetBool("no-ai")
	steps, deps := prepareScreening(ctx, config, noAI, logger)
	for _, status := range screening.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	screened, _, err := screening.Run(ctx, screeningConfig(config), deps, steps, found)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	if screened.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after screening"))
		return
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		out, err := json.MarshalIndent(screened.Items, "", "  ")
		if err != nil {
			logger.Fatal("encoding candidates", zap.Error(err))
		}
		fmt.Println(string(out))
		return
	}

	for {
		logger.Info("current list of candidates", zap.Int("count", screened.Len()))

		_, action, err := actionPrompt(config).Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, screened); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func actionPrompt(config *Config) *promptui.Select {
	items := []string{PromptReportBySkill, PromptShowCandidate, PromptExportCSV, PromptCandidatesToFile}
	if config.Screening.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	items = append(items, PromptExit)

	return &promptui.Select{
		Label: "Choose an action",
		Items: items,
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, found *candidates.Candidates) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportBySkill:
		pretty, _ := json.MarshalIndent(found.ReportBySkill(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", found.Len()))
		return nil
	case PromptShowCandidate:
		return showCandidates(logger, found)
	case PromptExportCSV:
		pathPrompt := promptui.Prompt{
			Label:   "CSV file",
			Default: defaultCSVFile,
		}
		path, err := pathPrompt.Run()
		if err != nil {
			return err
		}
		if err := found.ExportCSV(strings.TrimSpace(path)); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		logger.Info("exported candidates to csv", zap.String("filename", path))
		return nil
	case PromptCandidatesToFile:
		filename, err := found.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := config.Screening.ExcludeFile
		excluded, err := candidates.GetExcludedCandidatesFromFile(excludeFile)
		if err != nil {
			return err
		}

		excluded.Append(found.ToExcluded())

		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", excludeFile))

		found.Exclude(candidates.CandidateEmailField, excluded.Emails())
		if found.Len() == 0 {
			logger.Info("exiting", zap.String("reason", "no candidates left"))
			return errExit
		}
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// showCandidates lets the user pick candidates one by one and prints their profiles.
func showCandidates(logger *zap.Logger, found *candidates.Candidates) error {
	for {
		items := make([]string, 0, found.Len()+1)
		for _, candidate := range found.Items {
			items = append(items, candidateLabel(candidate))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		details, err := candidateDetails(found, selected)
		if err != nil {
			return err
		}
		logger.Info(details)
	}
}

func candidateLabel(candidate *candidates.Candidate) string {
	name, best := analysis.UnknownName, ""
	if candidate.Profile != nil {
		name, best = candidate.Profile.Name, candidate.Profile.BestSuitedSkill
	}
	return fmt.Sprintf("%s %s / %s / %s", candidate.ID, name, best, candidate.ResumeName)
}

// candidateDetails renders the candidate whose ID starts the label.
func candidateDetails(found *candidates.Candidates, label string) (string, error) {
	id, _, _ := strings.Cut(label, " ")
	candidate := found.FindByID(id)
	if candidate == nil {
		return "", fmt.Errorf("there is no such candidate id %s", id)
	}

	pretty, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding candidate %s: %w", id, err)
	}
	return string(pretty), nil
}

func documentSource(ctx context.Context, config *Config, paths []string) (documents.Source, error) {
	if len(paths) > 0 {
		return documents.NewLocalSource(paths...), nil
	}

	if config.Source == nil || config.Source.S3 == nil {
		return nil, errors.New("no paths given and no s3 source configured")
	}

	return documents.NewS3Source(ctx, *config.Source.S3)
}

// analyzeDocuments fetches and analyzes every document of source. Documents
// that cannot be fetched, decoded or analyzed are logged and skipped. The
// result keeps the listing order.
func analyzeDocuments(ctx context.Context, source documents.Source, analyzer *analysis.Analyzer, parallel int, log *zap.Logger) (*candidates.Candidates, error) {
	keys, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	log.Info("found documents", zap.String("source", source.Name()), zap.Int("count", len(keys)))

	if parallel <= 0 {
		parallel = defaultParallel
	}

	results := make([]*candidates.Candidate, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, key := range keys {
		g.Go(func() error {
			docLog := logger.WithFields(log, logger.DocumentFields(source.Name(), key)...)

			doc, err := source.Fetch(gctx, key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				docLog.Warn("skipping document", zap.String("reason", "fetch failed"), zap.Error(err))
				return nil
			}

			text, err := doc.Text()
			if err != nil {
				docLog.Warn("skipping document", zap.String("reason", "decode failed"), zap.Error(err))
				return nil
			}

			profile, err := analyzer.Analyze(text)
			if err != nil {
				docLog.Warn("skipping document", zap.String("reason", "analysis failed"), zap.Error(err))
				return nil
			}

			docLog.Debug("document analyzed",
				zap.String("best_suited_skill", profile.BestSuitedSkill),
				zap.Int("total_score", profile.TotalScore()),
			)

			results[i] = candidates.New(doc.Name, profile)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := &candidates.Candidates{}
	for _, candidate := range results {
		if candidate != nil {
			found.Add(candidate)
		}
	}

	log.Info("analyzed documents", zap.Int("candidates", found.Len()), zap.Int("skipped", len(keys)-found.Len()))
	return found, nil
}

func screeningConfig(config *Config) *screening.Config {
	cfg := &screening.Config{
		MinimumSkillScore: config.Screening.MinimumSkillScore,
		ExcludeFile:       config.Screening.ExcludeFile,
	}
	if config.AI != nil {
		aiConfig := config.AI.AIConfig
		cfg.AI = &aiConfig
	}
	return cfg
}

func prepareScreening(ctx context.Context, config *Config, noAI bool, logger *zap.Logger) ([]screening.Filter, screening.Deps) {
	steps := screening.Default()
	deps := screening.Deps{Logger: logger}

	switch {
	case noAI:
		screening.DisableByName(steps, "ai_review", "disabled by --no-ai flag")
	case config.AI == nil || !config.AI.Enabled:
		screening.DisableByName(steps, "ai_review", "disabled in config")
	default:
		reviewer, err := newAIReviewer(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping AI filter", zap.Error(err))
			screening.DisableByName(steps, "ai_review", err.Error())
			break
		}
		deps.Reviewer = reviewer
	}

	return steps, deps
}

func newAIReviewer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Reviewer, error) {
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai filter is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	reviewerLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
		zap.Float64("minimum_fit_score", minScore),
	)

	reviewer := gemini.NewReviewer(generator, minScore, cfg.Gemini.MaxLogLength, reviewerLogger)
	if cfg.Prompt != nil {
		reviewer.SetPromptOverrides(*cfg.Prompt)
	}

	return reviewer, nil
}
