package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"bpetok/internal/pkg/bpetok/config"
	"bpetok/internal/pkg/bpetok/corpus"
	"bpetok/internal/pkg/bpetok/tokenizer"
)

func main() {
	fmt.Fprintf(os.Stderr, "bpetok %s\n", Version)

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadAndParse()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse configuration")
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logging")
	}

	log.Debug().
		Str("mode", cfg.Mode).
		Str("model_dir", cfg.ModelDir).
		Strs("corpus", cfg.Corpus).
		Int("vocab_size", cfg.VocabSize).
		Msg("Configuration loaded")

	switch cfg.Mode {
	case config.ModeTrain:
		runTrain(cfg)
	case config.ModeEncode:
		runEncode(cfg)
	case config.ModeDecode:
		runDecode(cfg)
	case config.ModeInfo:
		runInfo(cfg)
	}
}

func runTrain(cfg *config.Config) {
	log.Info().Strs("paths", cfg.Corpus).Msg("Loading corpus...")
	docs, err := corpus.Load(cfg.Corpus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load corpus")
	}
	if cfg.Normalize {
		docs = corpus.Normalize(docs)
	}
	log.Info().Int("documents", len(docs)).Msg("Corpus loaded")

	opts := []tokenizer.Option{}
	if cfg.MarkDocuments {
		opts = append(opts, tokenizer.WithDocumentBoundaries())
	}
	if !cfg.NoProgress {
		target := cfg.VocabSize - 256 - len(cfg.SpecialTokens)
		if target > 0 {
			bar := progressbar.Default(int64(target), "training")
			opts = append(opts, tokenizer.WithProgress(func(done, total int) {
				_ = bar.Set(done)
			}))
		}
	}

	startTime := time.Now()
	tok, err := tokenizer.Train(docs, cfg.VocabSize, cfg.SpecialTokens, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to train tokenizer")
	}
	elapsed := time.Since(startTime)

	log.Info().
		Dur("elapsed", elapsed).
		Int("vocab_size", tok.VocabSize()).
		Int("merges", len(tok.Merges())).
		Msg("Training complete")

	if err := tok.Save(cfg.ModelDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to save tokenizer")
	}
	log.Info().Str("dir", cfg.ModelDir).Msg("Tokenizer saved")
}

func runEncode(cfg *config.Config) {
	tok := loadTokenizer(cfg)

	var ids []int
	switch {
	case cfg.NoSpecial:
		ids = tok.EncodeWithSpecial(cfg.Text, nil)
	case len(cfg.AllowedSpecial) > 0:
		ids = tok.EncodeWithSpecial(cfg.Text, cfg.AllowedSpecial)
	default:
		ids = tok.Encode(cfg.Text)
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, " "))

	log.Debug().Int("bytes", len(cfg.Text)).Int("tokens", len(ids)).Msg("Text encoded")
}

func runDecode(cfg *config.Config) {
	tok := loadTokenizer(cfg)

	ids, err := parseIDs(cfg.IDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse ids")
	}

	fmt.Fprintln(os.Stdout, tok.Decode(ids))
}

func runInfo(cfg *config.Config) {
	tok := loadTokenizer(cfg)

	fmt.Fprintf(os.Stderr, "Vocabulary size: %d\n", tok.VocabSize())
	fmt.Fprintf(os.Stderr, "Seed size: %d\n", tok.SeedSize())
	fmt.Fprintf(os.Stderr, "Merges: %d\n", len(tok.Merges()))
	fmt.Fprintf(os.Stderr, "Special tokens:\n")
	for _, name := range tok.SpecialTokens() {
		id, _ := tok.SpecialTokenID(name)
		fmt.Fprintf(os.Stderr, "  %s = %d\n", name, id)
	}
}

func loadTokenizer(cfg *config.Config) *tokenizer.Tokenizer {
	tok, err := tokenizer.Load(cfg.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ModelDir).Msg("Failed to load tokenizer")
	}
	log.Debug().
		Int("vocab_size", tok.VocabSize()).
		Int("merges", len(tok.Merges())).
		Msg("Tokenizer loaded")
	return tok
}

func parseIDs(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	ids := make([]int, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q", field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	}

	return nil
}
