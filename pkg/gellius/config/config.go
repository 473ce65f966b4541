package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/gellius/pkg/gellius/analytics"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/output"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Analyzer backends
const (
	BackendLatin = "latin"
	BackendProse = "prose"
	BackendCLTK  = "cltk"
)

// Config is the run configuration. Relative paths resolve against the
// working directory.
type Config struct {
	Input                 string         `yaml:"input"`
	OutputDir             string         `yaml:"output_dir"`
	Outputs               output.Names   `yaml:"outputs"`
	TopGlobal             int            `yaml:"top_global"`
	TopPerBook            int            `yaml:"top_per_book"`
	HTMLReport            bool           `yaml:"html_report"`
	RejectDuplicateTitles bool           `yaml:"reject_duplicate_titles"`
	LogLevel              string         `yaml:"log_level"`
	Analyzer              AnalyzerConfig `yaml:"analyzer"`
}

// AnalyzerConfig selects and configures the NLP backend.
type AnalyzerConfig struct {
	Backend  string   `yaml:"backend"`
	Language string   `yaml:"language"`
	Stages   []string `yaml:"stages"`
	// DropFinalStage removes the last stage of the default pipeline. It has
	// no effect when Stages is set explicitly.
	DropFinalStage bool       `yaml:"drop_final_stage"`
	Stoplist       string     `yaml:"stoplist"`
	Lexicon        string     `yaml:"lexicon"`
	Cache          bool       `yaml:"cache"`
	CLTK           CLTKConfig `yaml:"cltk"`
}

type CLTKConfig struct {
	Python       string        `yaml:"python"`
	Script       string        `yaml:"script"`
	StartTimeout time.Duration `yaml:"start_timeout"`
}

// Default reproduces the most complete of the historical scripts.
func Default() *Config {
	return &Config{
		Input:      "data/books.xml",
		OutputDir:  "data",
		Outputs:    output.DefaultNames(),
		TopGlobal:  analytics.DefaultTopGlobal,
		TopPerBook: analytics.DefaultTopPerBook,
		LogLevel:   "info",
		Analyzer: AnalyzerConfig{
			Backend:        BackendLatin,
			Language:       "lat",
			DropFinalStage: true,
			Cache:          true,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", internalerr.ErrInvalidConfig, path, err)
	}
	cfg.Outputs = cfg.Outputs.WithDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from GELLIUS_* environment variables. The given
// dotenv files (default .env) are loaded first when they exist; variables
// already set in the environment win.
func (c *Config) ApplyEnv(envFiles ...string) error {
	_ = godotenv.Load(envFiles...)

	c.Input = getEnv("GELLIUS_INPUT", c.Input)
	c.OutputDir = getEnv("GELLIUS_OUTPUT_DIR", c.OutputDir)
	c.LogLevel = getEnv("GELLIUS_LOG_LEVEL", c.LogLevel)
	c.Analyzer.Backend = getEnv("GELLIUS_BACKEND", c.Analyzer.Backend)
	c.Analyzer.Language = getEnv("GELLIUS_LANGUAGE", c.Analyzer.Language)
	c.Analyzer.Stoplist = getEnv("GELLIUS_STOPLIST", c.Analyzer.Stoplist)
	c.Analyzer.Lexicon = getEnv("GELLIUS_LEXICON", c.Analyzer.Lexicon)
	c.Analyzer.CLTK.Python = getEnv("GELLIUS_PYTHON", c.Analyzer.CLTK.Python)

	var err error
	if c.TopGlobal, err = getEnvInt("GELLIUS_TOP_GLOBAL", c.TopGlobal); err != nil {
		return err
	}
	if c.TopPerBook, err = getEnvInt("GELLIUS_TOP_PER_BOOK", c.TopPerBook); err != nil {
		return err
	}
	if c.HTMLReport, err = getEnvBool("GELLIUS_HTML_REPORT", c.HTMLReport); err != nil {
		return err
	}
	if c.Analyzer.Cache, err = getEnvBool("GELLIUS_CACHE", c.Analyzer.Cache); err != nil {
		return err
	}
	if v := os.Getenv("GELLIUS_STAGES"); v != "" {
		c.Analyzer.Stages = splitList(v)
	}
	return nil
}

// Validate checks the configuration before any component is built.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Input) == "" {
		problems = append(problems, "input path is empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		problems = append(problems, "output_dir is empty")
	}
	if c.TopGlobal <= 0 {
		problems = append(problems, fmt.Sprintf("top_global must be positive, got %d", c.TopGlobal))
	}
	if c.TopPerBook <= 0 {
		problems = append(problems, fmt.Sprintf("top_per_book must be positive, got %d", c.TopPerBook))
	}
	switch c.Analyzer.Backend {
	case BackendLatin, BackendProse, BackendCLTK:
	default:
		problems = append(problems, fmt.Sprintf("unknown analyzer backend %q", c.Analyzer.Backend))
	}
	if c.Analyzer.CLTK.StartTimeout < 0 {
		problems = append(problems, "cltk start_timeout is negative")
	}
	if _, err := c.NLPConfig(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// NLPConfig resolves the analyzer language and stage list.
func (c *Config) NLPConfig() (nlp.Config, error) {
	cfg := nlp.DefaultConfig(c.Analyzer.Language)
	if len(c.Analyzer.Stages) > 0 {
		cfg.Stages = make([]nlp.Stage, 0, len(c.Analyzer.Stages))
		for _, s := range c.Analyzer.Stages {
			st, err := nlp.ParseStage(s)
			if err != nil {
				return nlp.Config{}, err
			}
			cfg.Stages = append(cfg.Stages, st)
		}
	} else if c.Analyzer.DropFinalStage {
		cfg = cfg.WithoutFinal()
	}
	if err := cfg.Validate(); err != nil {
		return nlp.Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not an integer", internalerr.ErrInvalidConfig, key, v)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not a boolean", internalerr.ErrInvalidConfig, key, v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
