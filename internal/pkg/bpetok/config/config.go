package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bpetok/internal/pkg/bpetok/tokenizer"
)

// Modes accepted as the first positional argument.
const (
	ModeTrain  = "train"
	ModeEncode = "encode"
	ModeDecode = "decode"
	ModeInfo   = "info"
)

type Config struct {
	Mode string

	ModelDir       string   `mapstructure:"model_dir"`
	Corpus         []string `mapstructure:"corpus"`
	VocabSize      int      `mapstructure:"vocab_size"`
	SpecialTokens  []string `mapstructure:"special_tokens"`
	Normalize      bool     `mapstructure:"normalize"`
	MarkDocuments  bool     `mapstructure:"mark_documents"`
	Text           string   `mapstructure:"text"`
	IDs            string   `mapstructure:"ids"`
	AllowedSpecial []string `mapstructure:"allowed_special"`
	NoSpecial      bool     `mapstructure:"no_special"`
	NoProgress     bool     `mapstructure:"no_progress"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFile        string   `mapstructure:"log_file"`
}

func LoadAndParse() (*Config, error) {
	viper.SetDefault("model_dir", "tokenizer")
	viper.SetDefault("vocab_size", 512)
	viper.SetDefault("special_tokens", tokenizer.DefaultSpecialTokens())
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")

	flagSet := pflag.NewFlagSet("bpetok", pflag.ContinueOnError)
	configFile := flagSet.StringP("config", "c", "", "Path to config file")
	flagSet.StringP("model-dir", "m", "", "Directory holding the tokenizer artifacts")
	flagSet.StringSlice("corpus", nil, "Corpus files or directories ('-' reads stdin)")
	flagSet.Int("vocab-size", 0, "Target vocabulary size for training")
	flagSet.StringSlice("special-tokens", nil, "Ordered special-token names")
	flagSet.Bool("normalize", false, "Apply Unicode NFC normalization to the corpus")
	flagSet.Bool("mark-documents", false, "Append the end-of-text id after every document")
	flagSet.StringP("text", "t", "", "Text to encode (use '-' to read from stdin)")
	flagSet.StringP("file", "f", "", "Read text to encode from file")
	flagSet.String("ids", "", "Token ids to decode, space or comma separated")
	flagSet.StringSlice("allowed-special", nil, "Special tokens matched during encoding (default: all)")
	flagSet.Bool("no-special", false, "Encode special-token text byte-level instead of atomically")
	flagSet.Bool("no-progress", false, "Disable the training progress bar")
	flagSet.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flagSet.String("log-file", "", "Log file path")
	helpFlag := flagSet.BoolP("help", "h", false, "Show help message")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *helpFlag {
		fmt.Fprintf(os.Stderr, "Usage: bpetok [options] <train|encode|decode|info> [text|ids]\n\nOptions:\n")
		flagSet.PrintDefaults()
		os.Exit(0)
	}

	bindings := map[string]string{
		"model_dir":       "model-dir",
		"corpus":          "corpus",
		"vocab_size":      "vocab-size",
		"special_tokens":  "special-tokens",
		"normalize":       "normalize",
		"mark_documents":  "mark-documents",
		"text":            "text",
		"ids":             "ids",
		"allowed_special": "allowed-special",
		"no_special":      "no-special",
		"no_progress":     "no-progress",
		"log_level":       "log-level",
		"log_file":        "log-file",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flagSet.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
	} else {
		viper.SetConfigName("bpetok.cfg")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bpetok"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("BPETOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	args := flagSet.Args()
	if len(args) == 0 {
		return nil, fmt.Errorf("mode is required: train, encode, decode or info")
	}
	cfg.Mode = args[0]
	rest := args[1:]

	switch cfg.Mode {
	case ModeTrain, ModeEncode, ModeDecode, ModeInfo:
	default:
		return nil, fmt.Errorf("unknown mode %q (expected train, encode, decode or info)", cfg.Mode)
	}

	textFile, _ := flagSet.GetString("file")
	if textFile != "" {
		content, err := os.ReadFile(textFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		cfg.Text = string(content)
	} else if cfg.Text == "-" {
		content, err := readStdin()
		if err != nil {
			return nil, err
		}
		cfg.Text = content
	} else if cfg.Text == "" && cfg.Mode == ModeEncode && len(rest) > 0 {
		cfg.Text = strings.Join(rest, " ")
	}

	if cfg.IDs == "" && cfg.Mode == ModeDecode && len(rest) > 0 {
		cfg.IDs = strings.Join(rest, " ")
	}

	switch cfg.Mode {
	case ModeTrain:
		if len(cfg.Corpus) == 0 {
			return nil, fmt.Errorf("train requires at least one --corpus path")
		}
		if cfg.VocabSize <= 0 {
			return nil, fmt.Errorf("train requires a positive --vocab-size")
		}
	case ModeEncode:
		if cfg.Text == "" {
			return nil, fmt.Errorf("encode requires text (use -t, -f, or provide as argument)")
		}
	case ModeDecode:
		if cfg.IDs == "" {
			return nil, fmt.Errorf("decode requires ids (use --ids or provide as argument)")
		}
	}

	return &cfg, nil
}

func readStdin() (string, error) {
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(content), nil
}
