package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"quizforge/internal/adapter/llm"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/quizgen"
	"quizforge/internal/textproc"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// pipeline runs the full offline flow over one text file: clean the
// sections, compress them into study notes, generate questions and print
// the result as JSON.
func main() {
	inputPath := flag.String("input", "", "path to the input text file (sections split on '# ' headings)")
	maxMCQ := flag.Int("max-mcq", 0, "maximum multiple-choice questions (0 = default)")
	maxShort := flag.Int("max-short", 0, "maximum short-answer questions (0 = default)")
	notesOnly := flag.Bool("notes-only", false, "stop after compression and print the study notes")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall generation timeout")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -input <file> [-max-mcq N] [-max-short N] [-notes-only]")
		os.Exit(2)
	}

	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fatal("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	sections, err := readSections(*inputPath)
	if err != nil {
		fatal("failed to read input: %v", err)
	}

	cleaned := textproc.CleanSections(sections)
	compressed := textproc.CompressSections(cleaned)
	notes := textproc.ConcatNotes(compressed)
	logger.Get().Info("Notes prepared",
		zap.Int("sections_in", len(sections)),
		zap.Int("sections_kept", len(cleaned)),
		zap.Int("notes_tokens", quizgen.EstimateTokens(notes)))

	if *notesOnly {
		fmt.Println(notes)
		return
	}

	generator, err := newTextGenerator(cfg)
	if err != nil {
		fatal("failed to initialize LLM provider: %v", err)
	}

	orchestrator := quizgen.NewOrchestrator(quizgen.NewClient(generator, cfg.Generation.MaxRetries))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := orchestrator.GenerateQuestions(ctx, notes, domain.GenerationOptions{
		MaxMCQ:               *maxMCQ,
		MaxShort:             *maxShort,
		SingleCallTokenLimit: cfg.Generation.SingleCallTokenLimit,
		ChunkTargetTokens:    cfg.Generation.ChunkTargetTokens,
		PerChunkMCQ:          cfg.Generation.PerChunkMCQ,
		PerChunkShort:        cfg.Generation.PerChunkShort,
		MapConcurrency:       cfg.Generation.MapConcurrency,
		Temperature:          cfg.Generation.Temperature,
	})
	if err != nil {
		fatal("generation failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fatal("failed to encode result: %v", err)
	}
	if result.Status == domain.StatusFailed {
		os.Exit(1)
	}
}

// readSections splits the input file into sections on '# ' heading lines.
// A file without headings becomes a single untitled section.
func readSections(path string) ([]textproc.Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sections []textproc.Section
	var title string
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text == "" && title == "" {
			return
		}
		sections = append(sections, textproc.Section{
			ID:    fmt.Sprintf("sec%d", len(sections)+1),
			Title: title,
			Text:  text,
		})
		body = nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "# ") {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return sections, nil
}

func newTextGenerator(cfg *config.Config) (domain.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAITextGenerator(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model)
	case "ollama":
		return llm.NewOllamaTextGenerator(cfg.LLM.Ollama.ServerURL, cfg.LLM.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
